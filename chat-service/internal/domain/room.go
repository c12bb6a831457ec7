package domain

import "time"

// RoomCategory groups rooms by the kind of support offered.
type RoomCategory string

const (
	CategoryCrisis    RoomCategory = "crisis"
	CategoryGeneral   RoomCategory = "general"
	CategoryEmotional RoomCategory = "emotional"
	CategoryLegal     RoomCategory = "legal"
)

// RoomInfo is the static descriptor of a room merged with live occupancy.
type RoomInfo struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	MaxUsers       int          `json:"max_users"`
	Category       RoomCategory `json:"category"`
	HumanModerated bool         `json:"human_moderated"`
	CurrentUsers   int          `json:"current_users"`
	// Instance is the gRPC address of the instance hosting the room, when known.
	Instance string `json:"instance,omitempty"`
}

// RoomStats is the live footprint of one room.
type RoomStats struct {
	Members  int `json:"members"`
	Messages int `json:"messages"`
}

// Stats is the read-only snapshot served to monitoring.
type Stats struct {
	ActiveSessions   int                  `json:"active_sessions"`
	ConnectedClients int                  `json:"connected_clients"`
	ActiveRooms      int                  `json:"active_rooms"`
	TotalMessages    int                  `json:"total_messages"`
	Rooms            map[string]RoomStats `json:"rooms"`
	Timestamp        time.Time            `json:"timestamp"`
}

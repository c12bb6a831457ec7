package pubsub

import "fmt"

// Channel naming conventions: {prefix}:room:{roomID}:{stream}.
const (
	ChannelRoomEvents   = "support:room:%s:events"
	ChannelCrisisAlerts = "support:room:%s:crisis"
)

// RoomEventsChannel carries room and session lifecycle events.
func RoomEventsChannel(roomID string) string {
	return fmt.Sprintf(ChannelRoomEvents, roomID)
}

// CrisisChannel carries crisis escalations for on-call staff.
func CrisisChannel(roomID string) string {
	return fmt.Sprintf(ChannelCrisisAlerts, roomID)
}

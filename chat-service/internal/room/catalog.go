package room

import (
	"sort"
	"strings"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	CrisisIntervention = "crisis-intervention"
	GeneralSupport     = "general-support"
	EmotionalSupport   = "emotional-support"
	LegalConsultation  = "legal-consultation"

	DefaultMaxUsers = 50
)

var defaultRooms = []domain.RoomInfo{
	{
		ID:             CrisisIntervention,
		Name:           "Crisis Intervention",
		Description:    "Immediate support for people in crisis, monitored by trained staff",
		MaxUsers:       10,
		Category:       domain.CategoryCrisis,
		HumanModerated: true,
	},
	{
		ID:          GeneralSupport,
		Name:        "General Support",
		Description: "A welcoming space to talk about whatever is on your mind",
		MaxUsers:    50,
		Category:    domain.CategoryGeneral,
	},
	{
		ID:          EmotionalSupport,
		Name:        "Emotional Support",
		Description: "Share feelings with peers who understand",
		MaxUsers:    40,
		Category:    domain.CategoryEmotional,
	},
	{
		ID:             LegalConsultation,
		Name:           "Legal Consultation",
		Description:    "Guidance on rights, reporting options and legal resources",
		MaxUsers:       20,
		Category:       domain.CategoryLegal,
		HumanModerated: true,
	},
}

// Catalog holds static room descriptors. Read-only after construction.
type Catalog struct {
	entries map[string]domain.RoomInfo
}

func NewCatalog(rooms []domain.RoomInfo) *Catalog {
	c := &Catalog{entries: make(map[string]domain.RoomInfo, len(rooms))}
	for _, r := range rooms {
		c.entries[r.ID] = r
	}
	return c
}

// DefaultCatalog returns the built-in support rooms.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultRooms)
}

func (c *Catalog) Known(roomID string) bool {
	_, ok := c.entries[roomID]
	return ok
}

// Lookup returns the descriptor for roomID, or a general-purpose descriptor
// derived from the id when the room is not catalogued.
func (c *Catalog) Lookup(roomID string) domain.RoomInfo {
	if info, ok := c.entries[roomID]; ok {
		return info
	}
	return domain.RoomInfo{
		ID:          roomID,
		Name:        displayName(roomID),
		Description: "Support room",
		MaxUsers:    DefaultMaxUsers,
		Category:    domain.CategoryGeneral,
	}
}

// List returns catalogued rooms ordered by id.
func (c *Catalog) List() []domain.RoomInfo {
	out := make([]domain.RoomInfo, 0, len(c.entries))
	for _, info := range c.entries {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func displayName(roomID string) string {
	words := strings.NewReplacer("_", " ", "-", " ").Replace(roomID)
	return cases.Title(language.English).String(strings.Join(strings.Fields(words), " "))
}

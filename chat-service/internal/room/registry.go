package room

import (
	"sync"

	"github.com/weiawesome/wes-support-chat/chat-service/internal/domain"
)

type roomState struct {
	members map[string]struct{}
	history *History
}

// Registry tracks room membership and history. A room exists only while it
// has members; removing the last member discards its history.
type Registry struct {
	rooms    map[string]*roomState
	catalog  *Catalog
	capacity int
	mu       sync.RWMutex
}

func NewRegistry(catalog *Catalog, historyCapacity int) *Registry {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if historyCapacity <= 0 {
		historyCapacity = DefaultHistoryCapacity
	}
	return &Registry{
		rooms:    make(map[string]*roomState),
		catalog:  catalog,
		capacity: historyCapacity,
	}
}

func (r *Registry) Catalog() *Catalog { return r.catalog }

// Join adds sessionID to roomID, creating the room if needed. It reports
// whether the room was created. Leaving the previous room is the caller's job.
func (r *Registry) Join(roomID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[roomID]
	if !ok {
		st = &roomState{
			members: make(map[string]struct{}),
			history: NewHistory(r.capacity),
		}
		r.rooms[roomID] = st
	}
	st.members[sessionID] = struct{}{}
	return !ok
}

// Leave removes sessionID from roomID and reports whether the room was
// deleted as a result. Unknown rooms or members are ignored.
func (r *Registry) Leave(roomID, sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	if _, member := st.members[sessionID]; !member {
		return false
	}
	delete(st.members, sessionID)
	if len(st.members) == 0 {
		delete(r.rooms, roomID)
		return true
	}
	return false
}

// Append adds msg to the room history. Returns false if the room does not exist.
func (r *Registry) Append(roomID string, msg domain.Message) bool {
	return r.Publish(roomID, msg, nil)
}

// Publish appends msg and, while still holding the registry lock, hands the
// current member list to deliver. Members therefore observe messages in the
// same order as the history. deliver must not block or call back into the
// registry.
func (r *Registry) Publish(roomID string, msg domain.Message, deliver func(members []string)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	st.history.Append(msg)
	if deliver != nil {
		deliver(memberList(st))
	}
	return true
}

func (r *Registry) Members(roomID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return memberList(st)
}

func (r *Registry) IsMember(roomID, sessionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, member := st.members[sessionID]
	return member
}

// History returns the room's messages oldest first.
func (r *Registry) History(roomID string) []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return st.history.Items()
}

func (r *Registry) MemberCount(roomID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if st, ok := r.rooms[roomID]; ok {
		return len(st.members)
	}
	return 0
}

func (r *Registry) Exists(roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[roomID]
	return ok
}

// IsFull reports whether the room has reached its catalogued capacity.
func (r *Registry) IsFull(roomID string) bool {
	return r.MemberCount(roomID) >= r.catalog.Lookup(roomID).MaxUsers
}

// Describe merges the static descriptor with live occupancy.
func (r *Registry) Describe(roomID string) domain.RoomInfo {
	info := r.catalog.Lookup(roomID)
	info.CurrentUsers = r.MemberCount(roomID)
	return info
}

// Snapshot returns per-room member and message counts.
func (r *Registry) Snapshot() map[string]domain.RoomStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]domain.RoomStats, len(r.rooms))
	for id, st := range r.rooms {
		out[id] = domain.RoomStats{
			Members:  len(st.members),
			Messages: st.history.Len(),
		}
	}
	return out
}

func memberList(st *roomState) []string {
	out := make([]string, 0, len(st.members))
	for id := range st.members {
		out = append(out, id)
	}
	return out
}

package room

import "sort"

// Registry is the in-memory table of live rooms, keyed by room code.
//
// It is not internally locked: all mutation goes through the hub's single
// event loop, which serializes access the same way the pumps serialize
// reads and writes on a connection. Constructing one registry per server
// (and per test) keeps rooms free of ambient global state.
type Registry struct {
	rooms map[string]*Room
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room for code, creating an empty one if it does
// not exist yet. Callers always observe the same room object for a given
// live code.
func (r *Registry) GetOrCreate(code string) *Room {
	if rm, ok := r.rooms[code]; ok {
		return rm
	}
	rm := &Room{
		Code:         code,
		Participants: make(map[string]*Participant),
	}
	r.rooms[code] = rm
	return rm
}

// Get returns the room for code, or nil when no such room is live.
func (r *Registry) Get(code string) *Room {
	return r.rooms[code]
}

// Has reports whether a room with the given code is currently live.
func (r *Registry) Has(code string) bool {
	_, ok := r.rooms[code]
	return ok
}

// Len returns the number of live rooms.
func (r *Registry) Len() int {
	return len(r.rooms)
}

// GenerateCode draws a fresh room code, retrying a bounded number of times
// when it collides with a live room. After maxCodeAttempts the last draw is
// returned even on collision; with a 32^6 code space that residual risk is
// an accepted trade-off.
func (r *Registry) GenerateCode() string {
	code := randomCode()
	for attempts := 0; r.Has(code) && attempts < maxCodeAttempts; attempts++ {
		code = randomCode()
	}
	return code
}

// Snapshot returns the room's host and its participants ordered by
// ascending join time. The second return is false when the room does not
// exist; a missing code is never an error.
func (r *Registry) Snapshot(code string) (Snapshot, bool) {
	rm, ok := r.rooms[code]
	if !ok {
		return Snapshot{}, false
	}
	snap := Snapshot{
		RoomCode:     code,
		HostID:       rm.HostID,
		Participants: make([]Participant, 0, len(rm.Participants)),
	}
	for _, p := range rm.Participants {
		snap.Participants = append(snap.Participants, *p)
	}
	sort.Slice(snap.Participants, func(i, j int) bool {
		a, b := snap.Participants[i], snap.Participants[j]
		if a.JoinedAt != b.JoinedAt {
			return a.JoinedAt < b.JoinedAt
		}
		return a.ID < b.ID
	})
	return snap, true
}

// Remove deletes a participant from the room. When the last participant
// leaves, the room itself is deleted and its code becomes reusable.
// Removing from a missing room is a no-op.
func (r *Registry) Remove(code, participantID string) {
	rm, ok := r.rooms[code]
	if !ok {
		return
	}
	delete(rm.Participants, participantID)
	if len(rm.Participants) == 0 {
		delete(r.rooms, code)
	}
}

package room

// Role identifies what a participant is allowed to do in a room.
type Role string

const (
	// RoleHost is the single participant that originates the shared stream.
	RoleHost Role = "host"

	// RoleViewer receives the host's stream and cannot originate one.
	RoleViewer Role = "viewer"
)

// ParseRole maps arbitrary input to a valid role. Anything that is not
// exactly "host" or "viewer" becomes a viewer.
func ParseRole(s string) Role {
	if s == string(RoleHost) {
		return RoleHost
	}
	return RoleViewer
}

// Participant is one connection's membership record inside a room.
type Participant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	JoinedAt int64  `json:"joinedAt"`
}

// Room groups the participants sharing one coordination scope.
// HostID, when non-empty, always references a participant present in
// Participants with RoleHost.
type Room struct {
	Code         string
	HostID       string
	Participants map[string]*Participant
}

// Snapshot is a point-in-time view of a room, with participants ordered
// by ascending join time.
type Snapshot struct {
	RoomCode     string        `json:"roomCode"`
	HostID       string        `json:"hostId,omitempty"`
	Participants []Participant `json:"participants"`
}

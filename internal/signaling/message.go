package signaling

import (
	"encoding/json"
	"errors"

	"github.com/skye-hx/watchparty/internal/room"
)

// Event names carried on the wire, client to server and server to client.
const (
	// client -> server
	EventJoinRoom = "join-room"

	// server -> client
	EventWelcome    = "welcome"
	EventRoomState  = "room-state"
	EventHostStatus = "host-status"
	EventViewerJoin = "viewer-joined"
	EventHostLeft   = "host-left"
	EventToast      = "system-toast"

	// both directions
	EventChat    = "chat-message"
	EventHostURL = "host-url"
	EventOffer   = "webrtc-offer"
	EventAnswer  = "webrtc-answer"
	EventICE     = "webrtc-ice"
)

// Envelope is the frame every WebSocket message travels in. Data holds the
// event-specific payload and stays opaque until the receiver decodes it
// against the variant for Event.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`

	// client is the connection the envelope arrived on. Set by the read
	// pump, used only by the hub; unexported, so it never reaches the wire.
	client *Client
}

// ErrBadPayload is returned when an envelope's data does not decode into
// the payload variant its event requires.
var ErrBadPayload = errors.New("malformed event payload")

// NewEnvelope marshals payload into an envelope for event. Payloads are
// plain structs, so marshaling only fails on programmer error.
func NewEnvelope(event string, payload any) *Envelope {
	data, err := json.Marshal(payload)
	if err != nil {
		return &Envelope{Event: event}
	}
	return &Envelope{Event: event, Data: data}
}

// Decode unmarshals the envelope's data into v, rejecting absent payloads
// at the boundary instead of deep inside handler logic.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return ErrBadPayload
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return ErrBadPayload
	}
	return nil
}

// JoinRoomPayload asks to enter a room under a display name and a
// self-declared role.
type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// WelcomePayload tells a freshly upgraded connection its identifier, which
// peers later use to address negotiation messages to it.
type WelcomePayload struct {
	ID string `json:"id"`
}

// HostStatusPayload carries the room's current host, empty when none.
type HostStatusPayload struct {
	HostID string `json:"hostId,omitempty"`
}

// ViewerJoinedPayload is unicast to the host so it can start negotiating
// with the new viewer.
type ViewerJoinedPayload struct {
	ViewerID string `json:"viewerId"`
}

// HostLeftPayload is broadcast to the remaining members when the host
// disconnects.
type HostLeftPayload struct {
	At int64 `json:"at"`
}

// ToastPayload is a one-time advisory for exactly one connection.
type ToastPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ChatInPayload is an inbound chat line. Sender name and role are taken
// from the session, never from the wire.
type ChatInPayload struct {
	RoomCode string `json:"roomCode"`
	Text     string `json:"text"`
}

// ChatOutPayload is the stamped chat line fanned out to the room.
type ChatOutPayload struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Role room.Role `json:"role"`
	Text string    `json:"text"`
	At   int64     `json:"at"`
}

// HostURLInPayload announces the link the host is currently viewing.
type HostURLInPayload struct {
	RoomCode string `json:"roomCode"`
	URL      string `json:"url"`
}

// HostURLOutPayload is the fanned-out form of the host's link notice.
type HostURLOutPayload struct {
	URL string `json:"url"`
	At  int64  `json:"at"`
}

// SignalPayload addresses one negotiation message to a single endpoint.
// SDP and Candidate stay raw: the relay forwards them without inspecting
// or validating their contents beyond presence.
type SignalPayload struct {
	To        string          `json:"to,omitempty"`
	From      string          `json:"from,omitempty"`
	SDP       json.RawMessage `json:"sdp,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

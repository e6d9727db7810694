package signaling

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/skye-hx/watchparty/internal/room"
)

const (
	maxNameLen = 24
	maxChatLen = 500
	maxURLLen  = 2000

	defaultName = "Guest"
)

// Hub is the central brain of the coordinator. It owns the room registry
// and every connected client, and processes one event at a time: each
// join, chat, relay message or disconnect is handled to completion before
// the next is dispatched, so room state needs no locking. Rooms are fully
// independent of one another.
type Hub struct {
	// Register is the channel for freshly upgraded connections.
	Register chan *Client

	// Unregister is the channel for closed connections.
	Unregister chan *Client

	// Inbound carries every envelope read off any connection.
	Inbound chan *Envelope

	// codeReqs serializes room-code generation through the run loop so
	// the HTTP surface never touches the registry from its own goroutine.
	codeReqs chan chan string

	registry *room.Registry
	clients  map[string]*Client
	log      zerolog.Logger

	// lastJoinAt keeps join timestamps strictly increasing even when two
	// joins land in the same millisecond; the value is used only for
	// ordering participants.
	lastJoinAt int64
}

// NewHub creates a hub around its own registry.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Inbound:    make(chan *Envelope),
		codeReqs:   make(chan chan string),
		registry:   room.NewRegistry(),
		clients:    make(map[string]*Client),
		log:        logger,
	}
}

// Registry exposes the hub's room table. Outside of tests that drive the
// hub synchronously, only the run loop may touch it.
func (h *Hub) Registry() *room.Registry {
	return h.registry
}

// GenerateCode draws a fresh room code via the run loop, so collision
// checks see a consistent view of the live rooms.
func (h *Hub) GenerateCode() string {
	reply := make(chan string, 1)
	h.codeReqs <- reply
	return <-reply
}

// Run starts the hub's main processing loop. This is the single goroutine
// that safely manages all state.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.handleRegister(client)

		case client := <-h.Unregister:
			h.handleUnregister(client)

		case env := <-h.Inbound:
			h.dispatch(env)

		case reply := <-h.codeReqs:
			reply <- h.registry.GenerateCode()
		}
	}
}

func (h *Hub) handleRegister(c *Client) {
	h.clients[c.ID] = c
	c.deliver(NewEnvelope(EventWelcome, WelcomePayload{ID: c.ID}))
	h.log.Debug().Str("client_id", c.ID).Msg("client registered")
}

func (h *Hub) handleUnregister(c *Client) {
	if _, ok := h.clients[c.ID]; !ok {
		return
	}
	h.handleLeave(c)
	delete(h.clients, c.ID)
	close(c.Send)
	h.log.Debug().Str("client_id", c.ID).Msg("client unregistered")
}

// dispatch routes an inbound envelope to its handler. Unknown events and
// malformed payloads are dropped without answering the sender: this is a
// best-effort relay, not an RPC surface.
func (h *Hub) dispatch(env *Envelope) {
	switch env.Event {
	case EventJoinRoom:
		var p JoinRoomPayload
		if env.Decode(&p) != nil {
			h.dropped(env)
			return
		}
		h.handleJoin(env.client, p)

	case EventChat:
		var p ChatInPayload
		if env.Decode(&p) != nil {
			h.dropped(env)
			return
		}
		h.handleChat(env.client, p)

	case EventHostURL:
		var p HostURLInPayload
		if env.Decode(&p) != nil {
			h.dropped(env)
			return
		}
		h.handleHostLink(env.client, p)

	case EventOffer, EventAnswer, EventICE:
		var p SignalPayload
		if env.Decode(&p) != nil {
			h.dropped(env)
			return
		}
		h.handleRelay(env.Event, env.client, p)

	default:
		h.dropped(env)
	}
}

func (h *Hub) dropped(env *Envelope) {
	h.log.Debug().Str("client_id", env.client.ID).Str("event", env.Event).Msg("dropping malformed or unknown event")
}

// handleJoin is the session gateway: it normalizes the request, runs host
// election, records the participant and fans out the updated snapshot.
func (h *Hub) handleJoin(c *Client, p JoinRoomPayload) {
	code, ok := room.NormalizeCode(p.RoomCode)
	if !ok {
		h.dropped(&Envelope{Event: EventJoinRoom, client: c})
		return
	}

	name := strings.TrimSpace(p.Name)
	if n := []rune(name); len(n) > maxNameLen {
		name = string(n[:maxNameLen])
	}
	if name == "" {
		name = defaultName
	}

	role := room.ParseRole(p.Role)

	rm := h.registry.GetOrCreate(code)

	// A second host self-declaration is not an error: downgrade to viewer
	// and tell only the requester.
	if role == room.RoleHost && rm.HostID != "" && rm.HostID != c.ID {
		role = room.RoleViewer
		c.deliver(NewEnvelope(EventToast, ToastPayload{
			Type:    "warn",
			Message: "Host already exists. You joined as a viewer.",
		}))
	}

	if role == room.RoleHost {
		rm.HostID = c.ID
	}

	rm.Participants[c.ID] = &room.Participant{
		ID:       c.ID,
		Name:     name,
		Role:     role,
		JoinedAt: h.joinStamp(),
	}

	c.roomCode = code
	c.name = name
	c.role = role

	h.broadcastSnapshot(code)

	if role == room.RoleViewer && rm.HostID != "" {
		h.sendTo(rm.HostID, NewEnvelope(EventViewerJoin, ViewerJoinedPayload{ViewerID: c.ID}))
	}

	c.deliver(NewEnvelope(EventHostStatus, HostStatusPayload{HostID: rm.HostID}))

	h.log.Info().Str("client_id", c.ID).Str("room", code).Str("role", string(role)).Msg("participant joined")
}

// handleLeave removes a departing participant and notifies the remainder.
// Triggered on disconnect; there is no explicit leave event.
func (h *Hub) handleLeave(c *Client) {
	if c.roomCode == "" {
		return
	}

	rm := h.registry.Get(c.roomCode)
	if rm == nil {
		return
	}

	wasHost := rm.HostID == c.ID
	h.registry.Remove(c.roomCode, c.ID)

	if wasHost {
		rm.HostID = ""
		if h.registry.Has(c.roomCode) {
			h.broadcast(c.roomCode, NewEnvelope(EventHostLeft, HostLeftPayload{At: time.Now().UnixMilli()}))
		}
	}

	// An empty room was already destroyed by Remove; no audience remains.
	if h.registry.Has(c.roomCode) {
		h.broadcastSnapshot(c.roomCode)
	} else {
		h.log.Info().Str("room", c.roomCode).Msg("room destroyed")
	}
}

// handleChat stamps and fans out a chat line. Sender name and role come
// from the session, never from the inbound payload, so a participant
// cannot speak as somebody else.
func (h *Hub) handleChat(c *Client, p ChatInPayload) {
	code := h.resolveRoom(c, p.RoomCode)
	if code == "" {
		return
	}

	text := strings.TrimSpace(p.Text)
	if text == "" {
		return
	}
	if t := []rune(text); len(t) > maxChatLen {
		text = string(t[:maxChatLen])
	}

	name, role := c.name, c.role
	if name == "" {
		name = defaultName
	}
	if role == "" {
		role = room.RoleViewer
	}

	h.broadcast(code, NewEnvelope(EventChat, ChatOutPayload{
		ID:   uuid.NewString(),
		Name: name,
		Role: role,
		Text: text,
		At:   time.Now().UnixMilli(),
	}))
}

// handleHostLink fans out the link the host is viewing. The notice is
// stateless: nothing is stored, so a participant joining afterwards never
// sees it.
func (h *Hub) handleHostLink(c *Client, p HostURLInPayload) {
	code := h.resolveRoom(c, p.RoomCode)
	if code == "" {
		return
	}

	url := strings.TrimSpace(p.URL)
	if url == "" {
		return
	}
	if u := []rune(url); len(u) > maxURLLen {
		url = string(u[:maxURLLen])
	}

	h.broadcast(code, NewEnvelope(EventHostURL, HostURLOutPayload{
		URL: url,
		At:  time.Now().UnixMilli(),
	}))
}

// handleRelay forwards a negotiation message to the addressed endpoint,
// restamped with the sender. Content is never inspected. A target that is
// no longer connected means the message is silently dropped: at-most-once,
// no retry, no queue.
func (h *Hub) handleRelay(event string, c *Client, p SignalPayload) {
	if p.To == "" {
		return
	}
	switch event {
	case EventICE:
		if len(p.Candidate) == 0 {
			return
		}
	default:
		if len(p.SDP) == 0 {
			return
		}
	}

	target, ok := h.clients[p.To]
	if !ok {
		h.log.Debug().Str("event", event).Str("to", p.To).Msg("relay target gone, dropping")
		return
	}

	target.deliver(NewEnvelope(event, SignalPayload{
		From:      c.ID,
		SDP:       p.SDP,
		Candidate: p.Candidate,
	}))
}

// resolveRoom picks the room a payload refers to, falling back to the
// sender's own room the way the session remembers it.
func (h *Hub) resolveRoom(c *Client, requested string) string {
	if code, ok := room.NormalizeCode(requested); ok && h.registry.Has(code) {
		return code
	}
	if c.roomCode != "" && h.registry.Has(c.roomCode) {
		return c.roomCode
	}
	return ""
}

func (h *Hub) broadcastSnapshot(code string) {
	snap, ok := h.registry.Snapshot(code)
	if !ok {
		return
	}
	h.broadcast(code, NewEnvelope(EventRoomState, snap))
}

// broadcast fans out env to every member of the room.
func (h *Hub) broadcast(code string, env *Envelope) {
	rm := h.registry.Get(code)
	if rm == nil {
		return
	}
	for id := range rm.Participants {
		h.sendTo(id, env)
	}
}

// sendTo unicasts env to one connection, dropping it when the connection
// is gone.
func (h *Hub) sendTo(id string, env *Envelope) {
	if c, ok := h.clients[id]; ok {
		c.deliver(env)
	}
}

func (h *Hub) joinStamp() int64 {
	now := time.Now().UnixMilli()
	if now <= h.lastJoinAt {
		now = h.lastJoinAt + 1
	}
	h.lastJoinAt = now
	return now
}

// NewClientID mints the opaque connection identifier handed out at
// upgrade time.
func NewClientID() string {
	return uuid.NewString()
}

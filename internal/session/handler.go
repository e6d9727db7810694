package session

import (
	"github.com/skye-hx/watchparty/internal/room"
	"github.com/skye-hx/watchparty/internal/signaling"
)

// Handler routes incoming coordinator events to per-kind channels.
type Handler struct {
	client *Client

	Welcome     chan string
	RoomState   chan *room.Snapshot
	HostStatus  chan string
	ViewerJoins chan string
	HostLeft    chan int64
	Toast       chan *signaling.ToastPayload
	Chat        chan *signaling.ChatOutPayload
	HostURL     chan *signaling.HostURLOutPayload
	Offer       chan *signaling.SignalPayload
	Answer      chan *signaling.SignalPayload
	Candidate   chan *signaling.SignalPayload

	closed bool
}

// NewHandler creates a handler for the client's incoming events.
func NewHandler(client *Client) *Handler {
	return &Handler{
		client:      client,
		Welcome:     make(chan string, 1),
		RoomState:   make(chan *room.Snapshot, 8),
		HostStatus:  make(chan string, 1),
		ViewerJoins: make(chan string, 8),
		HostLeft:    make(chan int64, 1),
		Toast:       make(chan *signaling.ToastPayload, 8),
		Chat:        make(chan *signaling.ChatOutPayload, 32),
		HostURL:     make(chan *signaling.HostURLOutPayload, 4),
		Offer:       make(chan *signaling.SignalPayload, 8),
		Answer:      make(chan *signaling.SignalPayload, 8),
		Candidate:   make(chan *signaling.SignalPayload, 64),
	}
}

// Start consumes incoming envelopes and fans them out until the
// connection closes. Envelopes that do not decode are skipped; a broken
// event from the coordinator must not take the session down.
func (h *Handler) Start() {
	for env := range h.client.Incoming() {
		switch env.Event {

		case signaling.EventWelcome:
			var p signaling.WelcomePayload
			if env.Decode(&p) == nil {
				h.Welcome <- p.ID
			}

		case signaling.EventRoomState:
			var snap room.Snapshot
			if env.Decode(&snap) == nil {
				h.RoomState <- &snap
			}

		case signaling.EventHostStatus:
			var p signaling.HostStatusPayload
			if env.Decode(&p) == nil {
				h.HostStatus <- p.HostID
			}

		case signaling.EventViewerJoin:
			var p signaling.ViewerJoinedPayload
			if env.Decode(&p) == nil {
				h.ViewerJoins <- p.ViewerID
			}

		case signaling.EventHostLeft:
			var p signaling.HostLeftPayload
			if env.Decode(&p) == nil {
				h.HostLeft <- p.At
			}

		case signaling.EventToast:
			var p signaling.ToastPayload
			if env.Decode(&p) == nil {
				h.Toast <- &p
			}

		case signaling.EventChat:
			var p signaling.ChatOutPayload
			if env.Decode(&p) == nil {
				h.Chat <- &p
			}

		case signaling.EventHostURL:
			var p signaling.HostURLOutPayload
			if env.Decode(&p) == nil {
				h.HostURL <- &p
			}

		case signaling.EventOffer:
			h.signal(env, h.Offer)

		case signaling.EventAnswer:
			h.signal(env, h.Answer)

		case signaling.EventICE:
			h.signal(env, h.Candidate)

		default:
		}
	}
	h.Close()
}

func (h *Handler) signal(env *signaling.Envelope, out chan *signaling.SignalPayload) {
	var p signaling.SignalPayload
	if env.Decode(&p) == nil {
		out <- &p
	}
}

// Close closes all handler channels.
func (h *Handler) Close() {
	if h.closed {
		return
	}
	h.closed = true

	close(h.Welcome)
	close(h.RoomState)
	close(h.HostStatus)
	close(h.ViewerJoins)
	close(h.HostLeft)
	close(h.Toast)
	close(h.Chat)
	close(h.HostURL)
	close(h.Offer)
	close(h.Answer)
	close(h.Candidate)
}

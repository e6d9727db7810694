package session

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/skye-hx/watchparty/internal/signaling"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client manages the WebSocket connection to the coordinator.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	incoming  chan *signaling.Envelope
	outgoing  chan *signaling.Envelope
	done      chan struct{}
	closed    bool
}

// NewClient creates a new coordinator client.
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		incoming:  make(chan *signaling.Envelope, 32),
		outgoing:  make(chan *signaling.Envelope, 32),
		done:      make(chan struct{}, 1),
	}
}

// Connect establishes the WebSocket connection to the coordinator.
func (c *Client) Connect() error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads envelopes from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var env signaling.Envelope
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}

		c.incoming <- &env
	}
}

// writePump writes envelopes to the WebSocket connection and sends
// periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case env := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
	}
}

// Send queues an envelope for the coordinator.
func (c *Client) Send(env *signaling.Envelope) {
	select {
	case c.outgoing <- env:
	case <-c.done:
	}
}

// JoinRoom asks to enter a room.
func (c *Client) JoinRoom(roomCode, name, role string) {
	c.Send(signaling.NewEnvelope(signaling.EventJoinRoom, signaling.JoinRoomPayload{
		RoomCode: roomCode,
		Name:     name,
		Role:     role,
	}))
}

// SendChat sends a chat line to the room.
func (c *Client) SendChat(roomCode, text string) {
	c.Send(signaling.NewEnvelope(signaling.EventChat, signaling.ChatInPayload{
		RoomCode: roomCode,
		Text:     text,
	}))
}

// ShareURL announces the link the host is viewing.
func (c *Client) ShareURL(roomCode, link string) {
	c.Send(signaling.NewEnvelope(signaling.EventHostURL, signaling.HostURLInPayload{
		RoomCode: roomCode,
		URL:      link,
	}))
}

// SendOffer relays a session description offer to one endpoint.
func (c *Client) SendOffer(to string, sdp json.RawMessage) {
	c.Send(signaling.NewEnvelope(signaling.EventOffer, signaling.SignalPayload{To: to, SDP: sdp}))
}

// SendAnswer relays a session description answer to one endpoint.
func (c *Client) SendAnswer(to string, sdp json.RawMessage) {
	c.Send(signaling.NewEnvelope(signaling.EventAnswer, signaling.SignalPayload{To: to, SDP: sdp}))
}

// SendCandidate relays a connectivity candidate to one endpoint.
func (c *Client) SendCandidate(to string, candidate json.RawMessage) {
	c.Send(signaling.NewEnvelope(signaling.EventICE, signaling.SignalPayload{To: to, Candidate: candidate}))
}

// Incoming returns the channel of envelopes from the coordinator.
func (c *Client) Incoming() <-chan *signaling.Envelope {
	return c.incoming
}

// Close closes the WebSocket connection and cleans up resources.
func (c *Client) Close() {
	if c.closed {
		return
	}
	c.closed = true

	close(c.done)
}

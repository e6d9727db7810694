package signaling

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/skye-hx/watchparty/internal/room"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 64 * 1024 // 64 KB - enough for SDP payloads
)

// Client wraps a single websocket connection to one participant.
type Client struct {
	// Hub is the hub this client reports to.
	Hub *Hub

	// Conn is the websocket connection.
	Conn *websocket.Conn

	// ID is the connection identifier assigned at upgrade time. Peers use
	// it to address negotiation messages.
	ID string

	// Send is the buffered channel of outbound envelopes. The write pump
	// is the only reader.
	Send chan *Envelope

	// Session state recorded by the gateway on join. Only the hub
	// goroutine reads or writes these.
	roomCode string
	name     string
	role     room.Role
}

// ReadPump pumps envelopes from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var env Envelope
		if err := c.Conn.ReadJSON(&env); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Str("client_id", c.ID).Err(err).Msg("read failed")
			}
			break
		}

		env.client = c
		c.Hub.Inbound <- &env
	}
}

// WritePump pumps envelopes from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Conn.WriteJSON(env); err != nil {
				log.Debug().Str("client_id", c.ID).Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// deliver queues env for the client without ever blocking the hub loop. A
// slow consumer whose buffer is full loses that one copy; the hub must not
// stall the whole room on it.
func (c *Client) deliver(env *Envelope) {
	select {
	case c.Send <- env:
	default:
		log.Debug().Str("client_id", c.ID).Str("event", env.Event).Msg("send buffer full, dropping")
	}
}

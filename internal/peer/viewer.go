package peer

import (
	"encoding/json"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/media"
	"github.com/skye-hx/watchparty/internal/session"
)

// ViewerSession holds the single peer connection a viewer keeps with the
// host. A failed connection is reported, not repaired; recovery is the
// caller re-joining or the host re-offering.
type ViewerSession struct {
	cfg     *config.Client
	client  *session.Client
	sink    media.Sink
	onState StateFunc

	mu     sync.Mutex
	link   *link
	hostID string
}

// NewViewerSession prepares a viewer-side negotiation session around a
// media sink. onState may be nil.
func NewViewerSession(cfg *config.Client, client *session.Client, sink media.Sink, onState StateFunc) *ViewerSession {
	if onState == nil {
		onState = func(string, State) {}
	}
	return &ViewerSession{
		cfg:     cfg,
		client:  client,
		sink:    sink,
		onState: onState,
	}
}

// HandleOffer answers a relayed offer from the host: create the
// connection object if none exists, apply the remote description, produce
// an answer and relay it back to the offer's sender. A replacement offer
// (the host re-initiating) closes the previous connection first.
func (s *ViewerSession) HandleOffer(from string, sdp json.RawMessage) error {
	desc, err := parseDescription(sdp)
	if err != nil {
		return err
	}

	pc, err := NewPeerConnection(s.cfg)
	if err != nil {
		return err
	}
	l := newLink(pc)

	s.mu.Lock()
	if s.link != nil {
		s.link.close()
	}
	s.link = l
	s.hostID = from
	s.mu.Unlock()

	pc.OnTrack(func(track *pion.TrackRemote, receiver *pion.RTPReceiver) {
		s.sink.Consume(track)
	})

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		s.client.SendCandidate(from, raw)
	})

	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		switch state {
		case pion.ICEConnectionStateConnected:
			if l.setState(StateConnected) {
				s.onState(from, StateConnected)
			}
		case pion.ICEConnectionStateFailed, pion.ICEConnectionStateClosed, pion.ICEConnectionStateDisconnected:
			l.setStateClosed()
			s.onState(from, StateClosed)
		}
	})

	if err := l.setRemoteDescription(desc); err != nil {
		l.close()
		return session.NewError("apply offer", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		l.close()
		return session.NewError("create answer", err)
	}
	if err := pc.SetLocalDescription(answer); err != nil {
		l.close()
		return session.NewError("set local description", err)
	}

	raw, err := marshalDescription(pc.LocalDescription())
	if err != nil {
		l.close()
		return err
	}

	if l.setState(StateNegotiating) {
		s.onState(from, StateNegotiating)
	}
	s.client.SendAnswer(from, raw)
	return nil
}

// HandleCandidate feeds a relayed candidate into the host link. A
// candidate without a link yet is dropped; the host's offer always
// precedes its candidates on the same directed channel.
func (s *ViewerSession) HandleCandidate(from string, candidate json.RawMessage) error {
	s.mu.Lock()
	l := s.link
	s.mu.Unlock()

	if l == nil {
		return nil
	}
	return l.addCandidate(candidate)
}

// HostState reports the state of the host link.
func (s *ViewerSession) HostState() State {
	s.mu.Lock()
	l := s.link
	s.mu.Unlock()

	if l == nil {
		return StateIdle
	}
	return l.currentState()
}

// Close tears down the host link, typically on host-left or an explicit
// stop. The caller surfaces a reconnect affordance; there is no automatic
// retry.
func (s *ViewerSession) Close() {
	s.mu.Lock()
	l := s.link
	s.link = nil
	hostID := s.hostID
	s.mu.Unlock()

	if l != nil {
		l.close()
		s.onState(hostID, StateClosed)
	}
}

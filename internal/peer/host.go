package peer

import (
	"encoding/json"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/media"
	"github.com/skye-hx/watchparty/internal/session"
)

// HostSession drives one peer connection per viewer. Negotiations are
// keyed by viewer identifier and proceed independently; a slow answer
// from one viewer never holds up another.
type HostSession struct {
	cfg     *config.Client
	client  *session.Client
	source  media.Source
	onState StateFunc

	mu    sync.Mutex
	links map[string]*link
}

// NewHostSession prepares a host-side negotiation session around a media
// source. onState may be nil.
func NewHostSession(cfg *config.Client, client *session.Client, source media.Source, onState StateFunc) *HostSession {
	if onState == nil {
		onState = func(string, State) {}
	}
	return &HostSession{
		cfg:     cfg,
		client:  client,
		source:  source,
		onState: onState,
		links:   make(map[string]*link),
	}
}

// Offer starts (or restarts) negotiation with one viewer: a connection
// object is created, local media attached, and the offer relayed. A
// pre-existing link for the viewer is replaced and its old connection
// closed; abandonment is implicit in the replacement.
func (s *HostSession) Offer(viewerID string) error {
	pc, err := NewPeerConnection(s.cfg)
	if err != nil {
		return err
	}

	l := newLink(pc)

	s.mu.Lock()
	if old, ok := s.links[viewerID]; ok {
		old.close()
	}
	s.links[viewerID] = l
	s.mu.Unlock()

	for _, track := range s.source.Tracks() {
		if _, err := pc.AddTrack(track); err != nil {
			l.close()
			return session.NewError("attach media", err)
		}
	}

	pc.OnICECandidate(func(c *pion.ICECandidate) {
		if c == nil {
			return
		}
		raw, err := json.Marshal(c.ToJSON())
		if err != nil {
			return
		}
		s.client.SendCandidate(viewerID, raw)
	})

	pc.OnICEConnectionStateChange(func(state pion.ICEConnectionState) {
		switch state {
		case pion.ICEConnectionStateConnected:
			if l.setState(StateConnected) {
				s.onState(viewerID, StateConnected)
			}
		case pion.ICEConnectionStateFailed, pion.ICEConnectionStateClosed:
			l.setStateClosed()
			s.onState(viewerID, StateClosed)
		}
	})

	offer, err := pc.CreateOffer(nil)
	if err != nil {
		l.close()
		return session.NewError("create offer", err)
	}
	if err := pc.SetLocalDescription(offer); err != nil {
		l.close()
		return session.NewError("set local description", err)
	}

	raw, err := marshalDescription(pc.LocalDescription())
	if err != nil {
		l.close()
		return err
	}

	if l.setState(StateNegotiating) {
		s.onState(viewerID, StateNegotiating)
	}
	s.client.SendOffer(viewerID, raw)
	return nil
}

// HandleAnswer applies a viewer's relayed answer and replays any buffered
// candidates. Answers from viewers without a live link are ignored.
func (s *HostSession) HandleAnswer(viewerID string, sdp json.RawMessage) error {
	l := s.lookup(viewerID)
	if l == nil {
		return nil
	}

	desc, err := parseDescription(sdp)
	if err != nil {
		return err
	}
	if err := l.setRemoteDescription(desc); err != nil {
		return session.NewError("apply answer", err)
	}
	return nil
}

// HandleCandidate feeds a relayed candidate into the viewer's link.
func (s *HostSession) HandleCandidate(viewerID string, candidate json.RawMessage) error {
	l := s.lookup(viewerID)
	if l == nil {
		return nil
	}
	return l.addCandidate(candidate)
}

// HandleViewerLeft closes the link for a departed viewer without touching
// the others.
func (s *HostSession) HandleViewerLeft(viewerID string) {
	s.mu.Lock()
	l, ok := s.links[viewerID]
	if ok {
		delete(s.links, viewerID)
	}
	s.mu.Unlock()

	if ok {
		l.close()
		s.onState(viewerID, StateClosed)
	}
}

// ViewerState reports the negotiation state for one viewer.
func (s *HostSession) ViewerState(viewerID string) State {
	l := s.lookup(viewerID)
	if l == nil {
		return StateIdle
	}
	return l.currentState()
}

// Viewers returns the identifiers with a live link.
func (s *HostSession) Viewers() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.links))
	for id := range s.links {
		ids = append(ids, id)
	}
	return ids
}

// Close tears down every peer connection in the session.
func (s *HostSession) Close() {
	s.mu.Lock()
	links := s.links
	s.links = make(map[string]*link)
	s.mu.Unlock()

	for id, l := range links {
		l.close()
		s.onState(id, StateClosed)
	}
}

func (s *HostSession) lookup(viewerID string) *link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.links[viewerID]
}

package peer

import (
	"encoding/json"
	"sync"

	pion "github.com/pion/webrtc/v4"

	"github.com/skye-hx/watchparty/internal/config"
	"github.com/skye-hx/watchparty/internal/session"
)

// State tracks one peer pair through the negotiation lifecycle.
type State int

const (
	StateIdle State = iota
	StateNegotiating
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateNegotiating:
		return "negotiating"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateFunc observes state changes for one peer pair. Observation only: a
// failed or disconnected pair is reported, never repaired automatically.
type StateFunc func(peerID string, state State)

// NewPeerConnection builds a pion connection from the client ICE config.
func NewPeerConnection(cfg *config.Client) (*pion.PeerConnection, error) {
	iceServers := []pion.ICEServer{{URLs: cfg.GetSTUNServers()}}

	if turn := cfg.GetTURNServers(); turn != nil {
		username, password := cfg.GetTURNCredentials()
		iceServers = append(iceServers, pion.ICEServer{
			URLs:       turn,
			Username:   username,
			Credential: password,
		})
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, session.NewError("create peer connection", err)
	}
	return pc, nil
}

// link is one peer connection plus the negotiation bookkeeping around it.
//
// Connectivity candidates may arrive before the remote description has
// been applied; those are buffered and replayed once it is, so no
// legitimate candidate is lost to ordering.
type link struct {
	pc *pion.PeerConnection

	mu        sync.Mutex
	state     State
	remoteSet bool
	pending   []pion.ICECandidateInit
}

func newLink(pc *pion.PeerConnection) *link {
	return &link{pc: pc, state: StateIdle}
}

func (l *link) setState(s State) (changed bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == s || l.state == StateClosed {
		return false
	}
	l.state = s
	return true
}

func (l *link) currentState() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// setRemoteDescription applies the remote description and flushes any
// candidates buffered while it was missing.
func (l *link) setRemoteDescription(desc pion.SessionDescription) error {
	if err := l.pc.SetRemoteDescription(desc); err != nil {
		return err
	}

	l.mu.Lock()
	pending := l.pending
	l.pending = nil
	l.remoteSet = true
	l.mu.Unlock()

	for _, cand := range pending {
		if err := l.pc.AddICECandidate(cand); err != nil {
			return err
		}
	}
	return nil
}

// addCandidate applies a remote candidate, buffering it when the remote
// description has not been applied yet.
func (l *link) addCandidate(raw json.RawMessage) error {
	var cand pion.ICECandidateInit
	if err := json.Unmarshal(raw, &cand); err != nil {
		return session.NewError("parse candidate", err)
	}

	l.mu.Lock()
	if !l.remoteSet {
		l.pending = append(l.pending, cand)
		l.mu.Unlock()
		return nil
	}
	l.mu.Unlock()

	return l.pc.AddICECandidate(cand)
}

func (l *link) close() {
	l.setStateClosed()
	l.pc.Close()
}

func (l *link) setStateClosed() {
	l.mu.Lock()
	l.state = StateClosed
	l.mu.Unlock()
}

// parseDescription decodes a relayed SDP payload.
func parseDescription(raw json.RawMessage) (pion.SessionDescription, error) {
	var desc pion.SessionDescription
	if err := json.Unmarshal(raw, &desc); err != nil {
		return desc, session.NewError("parse description", err)
	}
	return desc, nil
}

// marshalDescription encodes a local description for the relay. The relay
// treats it as opaque bytes.
func marshalDescription(desc *pion.SessionDescription) (json.RawMessage, error) {
	raw, err := json.Marshal(desc)
	if err != nil {
		return nil, session.NewError("encode description", err)
	}
	return raw, nil
}

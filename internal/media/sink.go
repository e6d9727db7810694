package media

import (
	"sync/atomic"

	pion "github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/rs/zerolog/log"
)

// Sink receives the remote track a viewer's peer connection produces.
type Sink interface {
	// Consume drains one remote track. Called from pion's OnTrack
	// goroutine; implementations own the read loop.
	Consume(track *pion.TrackRemote)
}

// FileSink writes a received VP8 track to an IVF file.
type FileSink struct {
	path string
}

// NewFileSink builds a sink writing to path.
func NewFileSink(path string) *FileSink {
	return &FileSink{path: path}
}

func (s *FileSink) Consume(track *pion.TrackRemote) {
	if track.Codec().MimeType != pion.MimeTypeVP8 {
		log.Warn().Str("mime", track.Codec().MimeType).Msg("ignoring non-VP8 track")
		return
	}

	w, err := ivfwriter.New(s.path)
	if err != nil {
		log.Error().Err(err).Str("path", s.path).Msg("failed to open ivf writer")
		return
	}
	defer w.Close()

	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		if err := w.WriteRTP(pkt); err != nil {
			return
		}
	}
}

// CountingSink discards the stream but keeps packet and byte counters the
// session view can poll.
type CountingSink struct {
	packets atomic.Int64
	bytes   atomic.Int64
}

// NewCountingSink builds a discarding sink.
func NewCountingSink() *CountingSink {
	return &CountingSink{}
}

func (s *CountingSink) Consume(track *pion.TrackRemote) {
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			return
		}
		s.packets.Add(1)
		s.bytes.Add(int64(len(pkt.Payload)))
	}
}

// Stats returns packets and payload bytes received so far.
func (s *CountingSink) Stats() (packets, bytes int64) {
	return s.packets.Load(), s.bytes.Load()
}

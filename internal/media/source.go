package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	pion "github.com/pion/webrtc/v4"
	pionmedia "github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfreader"
)

// Source provides the local tracks a host attaches to each peer
// connection. How the samples were produced is not this package's
// business; it only moves them.
type Source interface {
	// Tracks returns the local tracks to attach. The same tracks are
	// attached to every viewer's connection.
	Tracks() []pion.TrackLocal

	// Start begins feeding samples into the tracks. done is closed when
	// the media ends, which triggers session teardown.
	Start() (done <-chan struct{}, err error)

	// Stop ends the feed.
	Stop()
}

// FileSource loops a VP8 IVF file onto a single video track, pacing
// frames by the file's timebase.
type FileSource struct {
	path  string
	loop  bool
	track *pion.TrackLocalStaticSample

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

// NewFileSource builds a source around an IVF file. With loop set the
// file replays from the start instead of ending the stream.
func NewFileSource(path string, loop bool) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	_, header, err := ivfreader.NewWith(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("read ivf header: %w", err)
	}
	if header.FourCC != "VP80" {
		return nil, fmt.Errorf("unsupported ivf codec %q, want VP80", header.FourCC)
	}

	track, err := pion.NewTrackLocalStaticSample(
		pion.RTPCodecCapability{MimeType: pion.MimeTypeVP8},
		"video", "watchparty",
	)
	if err != nil {
		return nil, fmt.Errorf("create track: %w", err)
	}

	return &FileSource{
		path:  path,
		loop:  loop,
		track: track,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}, nil
}

func (s *FileSource) Tracks() []pion.TrackLocal {
	return []pion.TrackLocal{s.track}
}

func (s *FileSource) Start() (<-chan struct{}, error) {
	s.once.Do(func() {
		go s.run()
	})
	return s.done, nil
}

func (s *FileSource) Stop() {
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
}

func (s *FileSource) run() {
	defer close(s.done)

	for {
		if err := s.playOnce(); err != nil {
			return
		}
		if !s.loop {
			return
		}
		select {
		case <-s.stop:
			return
		default:
		}
	}
}

// playOnce streams the file front to back, sleeping one frame duration
// between samples as the IVF timebase dictates.
func (s *FileSource) playOnce() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader, header, err := ivfreader.NewWith(f)
	if err != nil {
		return err
	}

	frameDuration := time.Millisecond *
		time.Duration((float32(header.TimebaseNumerator)/float32(header.TimebaseDenominator))*1000)
	if frameDuration <= 0 {
		frameDuration = 33 * time.Millisecond
	}

	ticker := time.NewTicker(frameDuration)
	defer ticker.Stop()

	for {
		frame, _, err := reader.ParseNextFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if werr := s.track.WriteSample(pionmedia.Sample{Data: frame, Duration: frameDuration}); werr != nil {
			return werr
		}

		select {
		case <-ticker.C:
		case <-s.stop:
			return errStopped
		}
	}
}

var errStopped = errors.New("source stopped")

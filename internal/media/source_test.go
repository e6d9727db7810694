package media

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	pion "github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIVF builds a minimal IVF file: the 32-byte header followed by
// length-prefixed frames.
func writeIVF(t *testing.T, fourCC string, frames [][]byte) string {
	t.Helper()
	require.Len(t, fourCC, 4)

	header := make([]byte, 32)
	copy(header[0:4], "DKIF")
	binary.LittleEndian.PutUint16(header[4:6], 0)  // version
	binary.LittleEndian.PutUint16(header[6:8], 32) // header size
	copy(header[8:12], fourCC)
	binary.LittleEndian.PutUint16(header[12:14], 320) // width
	binary.LittleEndian.PutUint16(header[14:16], 240) // height
	binary.LittleEndian.PutUint32(header[16:20], 30)  // timebase denominator
	binary.LittleEndian.PutUint32(header[20:24], 1)   // timebase numerator
	binary.LittleEndian.PutUint32(header[24:28], uint32(len(frames)))

	buf := header
	for i, frame := range frames {
		fh := make([]byte, 12)
		binary.LittleEndian.PutUint32(fh[0:4], uint32(len(frame)))
		binary.LittleEndian.PutUint64(fh[4:12], uint64(i))
		buf = append(buf, fh...)
		buf = append(buf, frame...)
	}

	path := filepath.Join(t.TempDir(), "clip.ivf")
	require.NoError(t, os.WriteFile(path, buf, 0o600))
	return path
}

func TestNewFileSource_MissingFile(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "nope.ivf"), false)
	require.Error(t, err)
}

func TestNewFileSource_RejectsNonVP8(t *testing.T) {
	path := writeIVF(t, "VP90", [][]byte{{0x01}})

	_, err := NewFileSource(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VP80")
}

func TestFileSource_Tracks(t *testing.T) {
	path := writeIVF(t, "VP80", [][]byte{{0x01}})

	src, err := NewFileSource(path, false)
	require.NoError(t, err)

	tracks := src.Tracks()
	require.Len(t, tracks, 1)

	sample, ok := tracks[0].(*pion.TrackLocalStaticSample)
	require.True(t, ok)
	assert.Equal(t, pion.MimeTypeVP8, sample.Codec().MimeType)
}

func TestFileSource_PlaysToEnd(t *testing.T) {
	path := writeIVF(t, "VP80", [][]byte{{0x01, 0x02}, {0x03, 0x04}, {0x05}})

	src, err := NewFileSource(path, false)
	require.NoError(t, err)
	defer src.Stop()

	done, err := src.Start()
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("source did not finish a three-frame file")
	}
}

func TestFileSource_StopEndsLoop(t *testing.T) {
	path := writeIVF(t, "VP80", [][]byte{{0x01}, {0x02}})

	src, err := NewFileSource(path, true)
	require.NoError(t, err)

	done, err := src.Start()
	require.NoError(t, err)

	// Looping playback only ends when told to.
	select {
	case <-done:
		t.Fatal("looping source ended on its own")
	case <-time.After(150 * time.Millisecond):
	}

	src.Stop()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop")
	}
}

func TestCountingSink_StartsAtZero(t *testing.T) {
	sink := NewCountingSink()
	packets, bytes := sink.Stats()
	assert.Zero(t, packets)
	assert.Zero(t, bytes)
}

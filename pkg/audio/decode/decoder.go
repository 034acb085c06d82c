// ABOUTME: Decoder interface and file-extension dispatch
// ABOUTME: Common streaming interface for all audio decoders
package decode

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ringsink/ringsink-go/pkg/audio"
)

// Decoder streams 16-bit little-endian PCM decoded from an encoded
// audio source.
type Decoder interface {
	// Read fills p with decoded PCM. Returns io.EOF when the stream is
	// exhausted.
	Read(p []byte) (int, error)

	// Format describes the decoded PCM stream.
	Format() audio.Format

	// Close releases decoder resources, including the underlying source
	// if it was opened by this package.
	Close() error
}

// Open creates a decoder for the file based on its extension.
// Supported: .mp3, .flac.
func Open(path string) (Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		d, err := NewMP3(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return d, nil
	case ".flac":
		d, err := NewFLAC(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		return d, nil
	default:
		f.Close()
		return nil, fmt.Errorf("unsupported audio format: %s", filepath.Ext(path))
	}
}

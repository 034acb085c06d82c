// ABOUTME: Raw PCM pass-through decoder
// ABOUTME: Wraps an already-decoded PCM stream with its format
package decode

import (
	"fmt"
	"io"

	"github.com/ringsink/ringsink-go/pkg/audio"
)

// PCMDecoder passes raw 16-bit little-endian PCM through unchanged. Use
// it for sources that are already decoded, like test tone generators.
type PCMDecoder struct {
	source io.Reader
	format audio.Format
}

// NewPCM creates a pass-through decoder for raw PCM in the given format.
func NewPCM(r io.Reader, format audio.Format) (*PCMDecoder, error) {
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pcm format: %w", err)
	}
	return &PCMDecoder{source: r, format: format}, nil
}

// Read implements Decoder.
func (d *PCMDecoder) Read(p []byte) (int, error) {
	return d.source.Read(p)
}

// Format implements Decoder.
func (d *PCMDecoder) Format() audio.Format {
	return d.format
}

// Close implements Decoder.
func (d *PCMDecoder) Close() error {
	if c, ok := d.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ABOUTME: MP3 audio decoder
// ABOUTME: Streams MP3 as 16-bit PCM via go-mp3
package decode

import (
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
	"github.com/ringsink/ringsink-go/pkg/audio"
)

// MP3Decoder streams an MP3 source as PCM. go-mp3 always emits 16-bit
// stereo at the source sample rate.
type MP3Decoder struct {
	decoder *mp3.Decoder
	source  io.Reader
	format  audio.Format
}

// NewMP3 creates a decoder reading the MP3 stream from r.
func NewMP3(r io.Reader) (*MP3Decoder, error) {
	d, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create mp3 decoder: %w", err)
	}

	return &MP3Decoder{
		decoder: d,
		source:  r,
		format: audio.Format{
			SampleRate: d.SampleRate(),
			Channels:   2,
			BitDepth:   16,
		},
	}, nil
}

// Read implements Decoder.
func (d *MP3Decoder) Read(p []byte) (int, error) {
	return d.decoder.Read(p)
}

// Format implements Decoder.
func (d *MP3Decoder) Format() audio.Format {
	return d.format
}

// Close implements Decoder.
func (d *MP3Decoder) Close() error {
	if c, ok := d.source.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

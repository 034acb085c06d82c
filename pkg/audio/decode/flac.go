// ABOUTME: FLAC audio decoder
// ABOUTME: Streams FLAC frames as interleaved 16-bit PCM via mewkiz/flac
package decode

import (
	"fmt"
	"io"

	"github.com/mewkiz/flac"
	"github.com/ringsink/ringsink-go/pkg/audio"
)

// FLACDecoder streams a FLAC source as 16-bit PCM, downscaling hi-res
// sources to 16 bits.
type FLACDecoder struct {
	stream  *flac.Stream
	format  audio.Format
	pending []byte
	shift   int // bits to shift source samples down to 16-bit range
	done    bool
}

// NewFLAC creates a decoder reading the FLAC stream from r.
func NewFLAC(r io.Reader) (*FLACDecoder, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create flac decoder: %w", err)
	}

	info := stream.Info
	if info.NChannels < 1 || info.NChannels > 2 {
		stream.Close()
		return nil, fmt.Errorf("unsupported flac channel count: %d", info.NChannels)
	}

	return &FLACDecoder{
		stream: stream,
		format: audio.Format{
			SampleRate: int(info.SampleRate),
			Channels:   int(info.NChannels),
			BitDepth:   16,
		},
		shift: int(info.BitsPerSample) - 16,
	}, nil
}

// Read implements Decoder, interleaving subframe samples channel by
// channel in frame order.
func (d *FLACDecoder) Read(p []byte) (int, error) {
	for len(d.pending) < len(p) && !d.done {
		frame, err := d.stream.ParseNext()
		if err == io.EOF {
			d.done = true
			break
		}
		if err != nil {
			return 0, fmt.Errorf("flac decode error: %w", err)
		}

		channels := len(frame.Subframes)
		samplesPerChannel := len(frame.Subframes[0].Samples)
		buf := make([]byte, 2)
		for i := 0; i < samplesPerChannel; i++ {
			for ch := 0; ch < channels; ch++ {
				sample := frame.Subframes[ch].Samples[i]
				if d.shift > 0 {
					sample >>= d.shift
				} else if d.shift < 0 {
					sample <<= -d.shift
				}
				audio.SampleToBytes(int16(sample), buf)
				d.pending = append(d.pending, buf[0], buf[1])
			}
		}
	}

	if len(d.pending) == 0 {
		return 0, io.EOF
	}

	n := copy(p, d.pending)
	d.pending = d.pending[n:]
	return n, nil
}

// Format implements Decoder.
func (d *FLACDecoder) Format() audio.Format {
	return d.format
}

// Close implements Decoder.
func (d *FLACDecoder) Close() error {
	return d.stream.Close()
}

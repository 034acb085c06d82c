//go:build portaudio

// ABOUTME: PortAudio-backed playback device
// ABOUTME: Drains the software ring from the PortAudio stream callback
package device

import (
	"fmt"
	"log"

	"github.com/gordonklaus/portaudio"
	"github.com/ringsink/ringsink-go/pkg/audio"
)

// PortAudio is a Driver backed by the PortAudio library. Build with the
// portaudio tag and the portaudio19 development headers installed.
type PortAudio struct{}

// Open implements Driver.
func (PortAudio) Open() (Device, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("%w: failed to initialize portaudio: %v", ErrUnavailable, err)
	}
	return &portAudioDevice{}, nil
}

type portAudioDevice struct{}

// SetCooperativeMode implements Device.
func (d *portAudioDevice) SetCooperativeMode() error { return nil }

// MinBufferSize implements Device.
func (d *portAudioDevice) MinBufferSize() int { return 4096 }

// CreateBuffer implements Device.
func (d *portAudioDevice) CreateBuffer(format audio.Format, sizeBytes int) (Buffer, error) {
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("%w: portaudio backend requires 16-bit PCM, got %s", ErrUnavailable, format)
	}

	soft := NewSoftBuffer(format, sizeBytes)
	scratch := []byte{}

	stream, err := portaudio.OpenDefaultStream(0, format.Channels, float64(format.SampleRate), 0,
		func(out []int16) {
			if len(scratch) != len(out)*2 {
				scratch = make([]byte, len(out)*2)
			}
			soft.Drain(scratch)
			for i := range out {
				out[i] = audio.SampleFromBytes(scratch[i*2:])
			}
		})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open stream: %v", ErrUnavailable, err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("%w: failed to start stream: %v", ErrUnavailable, err)
	}

	log.Printf("Audio output initialized: %s (portaudio)", format)
	return &portAudioBuffer{SoftBuffer: soft, stream: stream}, nil
}

// Release implements Device.
func (d *portAudioDevice) Release() {
	if err := portaudio.Terminate(); err != nil {
		log.Printf("portaudio terminate: %v", err)
	}
}

type portAudioBuffer struct {
	*SoftBuffer
	stream *portaudio.Stream
}

func (b *portAudioBuffer) Release() {
	if err := b.stream.Stop(); err != nil {
		log.Printf("portaudio stream stop: %v", err)
	}
	if err := b.stream.Close(); err != nil {
		log.Printf("portaudio stream close: %v", err)
	}
}

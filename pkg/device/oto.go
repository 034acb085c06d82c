// ABOUTME: Oto-backed playback device
// ABOUTME: Drains the software ring through a persistent oto player
package device

import (
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/ringsink/ringsink-go/pkg/audio"
)

// Oto is the default Driver. It renders the software ring through the
// oto library, which is pure Go and needs no system audio headers.
type Oto struct{}

// Open implements Driver.
func (Oto) Open() (Device, error) {
	return &otoDevice{}, nil
}

type otoDevice struct{}

// SetCooperativeMode implements Device. Oto shares the output device at
// the OS mixer level, so there is nothing to claim.
func (d *otoDevice) SetCooperativeMode() error { return nil }

// MinBufferSize implements Device.
func (d *otoDevice) MinBufferSize() int { return 4096 }

// CreateBuffer implements Device.
func (d *otoDevice) CreateBuffer(format audio.Format, sizeBytes int) (Buffer, error) {
	if format.BitDepth != 16 {
		return nil, fmt.Errorf("%w: oto backend requires 16-bit PCM, got %s", ErrUnavailable, format)
	}

	ctx, err := sharedOtoContext(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	soft := NewSoftBuffer(format, sizeBytes)
	player := ctx.NewPlayer(&drainReader{buf: soft})
	player.Play()

	return &otoBuffer{SoftBuffer: soft, player: player}, nil
}

// Release implements Device. The oto context is process-wide and kept
// alive for reuse.
func (d *otoDevice) Release() {}

type otoBuffer struct {
	*SoftBuffer
	player *oto.Player
}

func (b *otoBuffer) Release() {
	if err := b.player.Close(); err != nil {
		log.Printf("oto player close: %v", err)
	}
}

// drainReader adapts SoftBuffer.Drain to the io.Reader oto pulls from.
// It always satisfies the full read; a stopped ring yields silence.
type drainReader struct {
	buf *SoftBuffer
}

func (r *drainReader) Read(p []byte) (int, error) {
	r.buf.Drain(p)
	return len(p), nil
}

// oto allows a single context per process, so it is created once and
// reused. A later format mismatch is logged, matching how the playback
// path degrades rather than fails mid-stream.
var (
	otoMu     sync.Mutex
	otoCtx    *oto.Context
	otoFormat audio.Format
)

func sharedOtoContext(format audio.Format) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoFormat.SampleRate != format.SampleRate || otoFormat.Channels != format.Channels {
			log.Printf("Warning: oto context is %s but %s requested; oto cannot be reinitialized, continuing with existing context",
				otoFormat, format)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoFormat = format
	log.Printf("Audio output initialized: %s (oto)", format)
	return ctx, nil
}

// ABOUTME: Software circular playback buffer
// ABOUTME: Emulates the hardware buffer contract for backend drivers
package device

import (
	"fmt"
	"math"
	"sync"

	"github.com/ringsink/ringsink-go/pkg/audio"
)

// SoftBuffer is an in-memory implementation of the Buffer contract. The
// backend drivers (oto, malgo, portaudio) wrap one and pump its Drain
// method from their output path; draining is what advances the play
// cursor, so the cursor moves at the real-time rate of the device.
//
// Lock hands out scratch regions; the ring itself is only touched under
// the internal mutex, in Unlock and Drain.
type SoftBuffer struct {
	mu      sync.Mutex
	format  audio.Format
	data    []byte
	cursor  int
	playing bool
	looping bool
	lost    bool
	gain    float64

	// pending lock bookkeeping; at most one lock is outstanding
	lockOffset int
	lockLength int
	locked     bool
}

// NewSoftBuffer creates a software buffer of sizeBytes for the format.
func NewSoftBuffer(format audio.Format, sizeBytes int) *SoftBuffer {
	return &SoftBuffer{
		format: format,
		data:   make([]byte, sizeBytes),
		gain:   1.0,
	}
}

// Size returns the buffer capacity in bytes.
func (b *SoftBuffer) Size() int {
	return len(b.data)
}

// Format returns the PCM format the buffer was created with.
func (b *SoftBuffer) Format() audio.Format {
	return b.format
}

// Status implements Buffer.
func (b *SoftBuffer) Status() (Status, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Status{Playing: b.playing, Lost: b.lost}, nil
}

// PlayCursor implements Buffer.
func (b *SoftBuffer) PlayCursor() (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cursor, nil
}

// Lock implements Buffer. The returned regions are scratch memory; the
// data is committed to the ring by Unlock.
func (b *SoftBuffer) Lock(offset, length int) ([]Region, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.lost {
		return nil, fmt.Errorf("lock %d+%d: buffer lost", offset, length)
	}
	if offset < 0 || offset >= len(b.data) || length < 0 || length > len(b.data) {
		return nil, fmt.Errorf("lock %d+%d: out of range for %d byte buffer", offset, length, len(b.data))
	}
	if b.locked {
		return nil, fmt.Errorf("lock %d+%d: lock already held", offset, length)
	}

	b.lockOffset = offset
	b.lockLength = length
	b.locked = true

	first := length
	if offset+length > len(b.data) {
		first = len(b.data) - offset
	}
	regions := []Region{{Data: make([]byte, first)}}
	if rest := length - first; rest > 0 {
		regions = append(regions, Region{Data: make([]byte, rest)})
	}
	return regions, nil
}

// Unlock implements Buffer, committing the locked regions to the ring.
func (b *SoftBuffer) Unlock(regions []Region) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.locked {
		return fmt.Errorf("unlock: no lock held")
	}
	b.locked = false

	total := 0
	for _, r := range regions {
		total += len(r.Data)
	}
	if total != b.lockLength {
		return fmt.Errorf("unlock: region sizes %d do not match locked length %d", total, b.lockLength)
	}

	pos := b.lockOffset
	for _, r := range regions {
		n := copy(b.data[pos:], r.Data)
		if n < len(r.Data) {
			copy(b.data, r.Data[n:])
		}
		pos = (pos + len(r.Data)) % len(b.data)
	}
	return nil
}

// Play implements Buffer.
func (b *SoftBuffer) Play(looping bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = true
	b.looping = looping
	return nil
}

// Stop implements Buffer. The cursor freezes in place.
func (b *SoftBuffer) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playing = false
	return nil
}

// SetPosition implements Buffer.
func (b *SoftBuffer) SetPosition(offset int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if offset < 0 || offset >= len(b.data) {
		return fmt.Errorf("set position %d: out of range for %d byte buffer", offset, len(b.data))
	}
	b.cursor = offset
	return nil
}

// SetVolume implements Buffer. The level is hundredths of a decibel,
// converted to a linear gain applied at drain time.
func (b *SoftBuffer) SetVolume(level int) error {
	if level < MinAttenuation {
		level = MinAttenuation
	}
	if level > MaxAttenuation {
		level = MaxAttenuation
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.gain = math.Pow(10, float64(level)/2000.0)
	return nil
}

// Restore implements Buffer. The previous contents are gone; the ring is
// zeroed so stale audio is not replayed.
func (b *SoftBuffer) Restore() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lost = false
	for i := range b.data {
		b.data[i] = 0
	}
	return nil
}

// Release implements Buffer.
func (b *SoftBuffer) Release() {}

// ForceLost marks the buffer memory as invalidated, as the OS would when
// reclaiming the device. Locks fail until Restore is called.
func (b *SoftBuffer) ForceLost() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lost = true
}

// Drain fills dst from the ring at the play cursor, applying the
// attenuation gain, and advances the cursor. While stopped (or lost) it
// fills dst with silence and the cursor does not move. Returns the
// number of ring bytes consumed.
func (b *SoftBuffer) Drain(dst []byte) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.playing || b.lost || len(b.data) == 0 {
		b.fillSilence(dst)
		return 0
	}

	n := len(dst)
	if !b.looping && n > len(b.data)-b.cursor {
		n = len(b.data) - b.cursor
	}

	copied := copy(dst[:n], b.data[b.cursor:])
	if copied < n {
		copy(dst[copied:n], b.data)
	}
	b.applyGain(dst[:n])
	b.fillSilence(dst[n:])

	b.cursor = (b.cursor + n) % len(b.data)
	if !b.looping && n < len(dst) {
		b.playing = false
	}
	return n
}

func (b *SoftBuffer) fillSilence(dst []byte) {
	// 8-bit PCM is unsigned, silence is 0x80; 16-bit silence is zero.
	var silence byte
	if b.format.BitDepth == 8 {
		silence = 0x80
	}
	for i := range dst {
		dst[i] = silence
	}
}

func (b *SoftBuffer) applyGain(dst []byte) {
	if b.gain >= 1.0 {
		return
	}
	switch b.format.BitDepth {
	case 8:
		for i, v := range dst {
			dst[i] = byte(128 + int(float64(int(v)-128)*b.gain))
		}
	default:
		for i := 0; i+1 < len(dst); i += 2 {
			sample := audio.SampleFromBytes(dst[i:])
			audio.SampleToBytes(int16(float64(sample)*b.gain), dst[i:])
		}
	}
}

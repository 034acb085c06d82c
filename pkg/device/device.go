// ABOUTME: Playback device abstraction
// ABOUTME: Interfaces for drivers, devices and circular hardware buffers
package device

import (
	"errors"

	"github.com/ringsink/ringsink-go/pkg/audio"
)

// ErrUnavailable is returned when a device cannot be opened or a buffer
// cannot be created. It is the only device error the playback engine
// surfaces to its caller; everything mid-stream is absorbed.
var ErrUnavailable = errors.New("audio device unavailable")

// Attenuation range accepted by SetVolume, in hundredths of a decibel.
// 0 is unattenuated, MinAttenuation is effectively silence.
const (
	MinAttenuation = -10000
	MaxAttenuation = 0
)

// Status reports the observable state of a playback buffer.
type Status struct {
	Playing bool
	Lost    bool // buffer memory was invalidated and must be restored
}

// Region is one contiguous span of locked buffer memory. A lock that
// wraps past the end of the circular buffer yields two regions: one from
// the requested offset to the end, one from the start of the buffer.
type Region struct {
	Data []byte
}

// Buffer is a fixed-size circular playback buffer with a hardware-driven
// play cursor. Status and PlayCursor are safe to call concurrently with
// the mutating operations; everything else is serialized by the engine.
type Buffer interface {
	// Status returns the current playing/lost state.
	Status() (Status, error)

	// PlayCursor returns the byte offset of the next byte the device
	// will render. It advances autonomously while playing.
	PlayCursor() (int, error)

	// Lock grants write access to length bytes starting at offset,
	// wrapping at the end of the buffer. It returns one or two regions
	// whose lengths sum to length.
	Lock(offset, length int) ([]Region, error)

	// Unlock commits regions previously returned by Lock.
	Unlock(regions []Region) error

	// Play starts rendering from the current position. With looping set
	// the cursor wraps at the end of the buffer back to the start.
	Play(looping bool) error

	// Stop halts rendering; the play cursor freezes in place.
	Stop() error

	// SetPosition moves the play cursor to the given byte offset.
	SetPosition(offset int) error

	// SetVolume applies an attenuation level in hundredths of a decibel
	// (MinAttenuation..MaxAttenuation).
	SetVolume(level int) error

	// Restore reclaims the buffer memory after a lost condition.
	Restore() error

	// Release frees the buffer.
	Release()
}

// Device is an opened audio device capable of creating playback buffers.
type Device interface {
	// SetCooperativeMode claims the device for streaming playback.
	SetCooperativeMode() error

	// MinBufferSize returns the smallest circular buffer, in bytes, the
	// device will accept.
	MinBufferSize() int

	// CreateBuffer allocates a circular playback buffer of sizeBytes for
	// the given format.
	CreateBuffer(format audio.Format, sizeBytes int) (Buffer, error)

	// Release closes the device. Buffers created from it must be
	// released first.
	Release()
}

// Driver opens devices. Implementations: Oto (default), Malgo, PortAudio
// (build-tagged), and the manually clocked fake in devicetest.
type Driver interface {
	Open() (Device, error)
}

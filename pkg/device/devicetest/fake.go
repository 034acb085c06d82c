// ABOUTME: Manually clocked fake playback device
// ABOUTME: Lets tests script the play cursor, buffer loss and stop events
package devicetest

import (
	"fmt"
	"sync"

	"github.com/ringsink/ringsink-go/pkg/audio"
	"github.com/ringsink/ringsink-go/pkg/device"
)

// Driver is a device.Driver whose device and buffer are fully under test
// control: the play cursor only moves when the test advances it.
type Driver struct {
	OpenErr   error // returned by Open
	CoopErr   error // returned by SetCooperativeMode
	CreateErr error // returned by CreateBuffer
	MinSize   int   // MinBufferSize; 0 means 1

	mu  sync.Mutex
	dev *Device
}

// Open implements device.Driver.
func (d *Driver) Open() (device.Device, error) {
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dev = &Device{drv: d}
	return d.dev, nil
}

// Device returns the last opened device, or nil.
func (d *Driver) Device() *Device {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dev
}

// Device is the fake device.Device.
type Device struct {
	drv *Driver

	mu       sync.Mutex
	buf      *Buffer
	released bool
}

// SetCooperativeMode implements device.Device.
func (d *Device) SetCooperativeMode() error { return d.drv.CoopErr }

// MinBufferSize implements device.Device.
func (d *Device) MinBufferSize() int {
	if d.drv.MinSize > 0 {
		return d.drv.MinSize
	}
	return 1
}

// CreateBuffer implements device.Device.
func (d *Device) CreateBuffer(format audio.Format, sizeBytes int) (device.Buffer, error) {
	if d.drv.CreateErr != nil {
		return nil, d.drv.CreateErr
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.buf = &Buffer{
		Data:   make([]byte, sizeBytes),
		Volume: volumeUnset,
		format: format,
	}
	return d.buf, nil
}

// Release implements device.Device.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.released = true
}

// Released reports whether Release was called.
func (d *Device) Released() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.released
}

// Buffer returns the last created buffer, or nil.
func (d *Device) Buffer() *Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf
}

const volumeUnset = 1 // outside the -10000..0 range

// Buffer is the fake device.Buffer. Fields may be mutated directly from
// the test (under Mu when the engine is running concurrently).
type Buffer struct {
	Mu      sync.Mutex
	Data    []byte
	Cursor  int
	Playing bool
	Lost    bool
	Volume  int

	StatusErr error // forced Status failure
	CursorErr error // forced PlayCursor failure
	LockErr   error // forced Lock failure

	PlayCalls    int
	StopCalls    int
	RestoreCalls int
	SetPosCalls  int
	Releases     int

	format audio.Format
	locked struct {
		offset, length int
		held           bool
	}
}

// Status implements device.Buffer.
func (b *Buffer) Status() (device.Status, error) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.StatusErr != nil {
		return device.Status{}, b.StatusErr
	}
	return device.Status{Playing: b.Playing, Lost: b.Lost}, nil
}

// PlayCursor implements device.Buffer.
func (b *Buffer) PlayCursor() (int, error) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.CursorErr != nil {
		return 0, b.CursorErr
	}
	return b.Cursor, nil
}

// Lock implements device.Buffer, splitting wrapped ranges in two.
func (b *Buffer) Lock(offset, length int) ([]device.Region, error) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if b.LockErr != nil {
		return nil, b.LockErr
	}
	if b.Lost {
		return nil, fmt.Errorf("lock: buffer lost")
	}
	if offset < 0 || offset >= len(b.Data) || length > len(b.Data) {
		return nil, fmt.Errorf("lock %d+%d: out of range", offset, length)
	}
	b.locked.offset = offset
	b.locked.length = length
	b.locked.held = true

	first := length
	if offset+length > len(b.Data) {
		first = len(b.Data) - offset
	}
	regions := []device.Region{{Data: b.Data[offset : offset+first]}}
	if rest := length - first; rest > 0 {
		regions = append(regions, device.Region{Data: b.Data[:rest]})
	}
	return regions, nil
}

// Unlock implements device.Buffer.
func (b *Buffer) Unlock(regions []device.Region) error {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	if !b.locked.held {
		return fmt.Errorf("unlock: no lock held")
	}
	b.locked.held = false
	return nil
}

// Play implements device.Buffer.
func (b *Buffer) Play(looping bool) error {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.PlayCalls++
	b.Playing = true
	return nil
}

// Stop implements device.Buffer.
func (b *Buffer) Stop() error {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.StopCalls++
	b.Playing = false
	return nil
}

// SetPosition implements device.Buffer.
func (b *Buffer) SetPosition(offset int) error {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.SetPosCalls++
	b.Cursor = offset
	return nil
}

// SetVolume implements device.Buffer.
func (b *Buffer) SetVolume(level int) error {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.Volume = level
	return nil
}

// Restore implements device.Buffer.
func (b *Buffer) Restore() error {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.RestoreCalls++
	b.Lost = false
	return nil
}

// Release implements device.Buffer.
func (b *Buffer) Release() {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.Releases++
}

// Advance moves the play cursor forward n bytes, wrapping at the end of
// the buffer, as real hardware would while playing.
func (b *Buffer) Advance(n int) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.Cursor = (b.Cursor + n) % len(b.Data)
}

// SetPlaying flips the playing flag without counting a Play/Stop call,
// simulating an out-of-band state change.
func (b *Buffer) SetPlaying(playing bool) {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.Playing = playing
}

// SetLost marks the buffer memory as invalidated.
func (b *Buffer) SetLost() {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	b.Lost = true
}

// AllZero reports whether the whole buffer contains zero bytes.
func (b *Buffer) AllZero() bool {
	b.Mu.Lock()
	defer b.Mu.Unlock()
	for _, v := range b.Data {
		if v != 0 {
			return false
		}
	}
	return true
}

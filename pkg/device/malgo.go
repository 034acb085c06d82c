// ABOUTME: Malgo-backed playback device
// ABOUTME: Uses miniaudio via malgo, draining the ring from the data callback
package device

import (
	"fmt"
	"log"

	"github.com/gen2brain/malgo"
	"github.com/ringsink/ringsink-go/pkg/audio"
)

// Malgo is a Driver backed by the miniaudio library. Unlike oto it can
// be reinitialized per format, at the cost of cgo.
type Malgo struct{}

// Open implements Driver.
func (Malgo) Open() (Device, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize malgo context: %v", ErrUnavailable, err)
	}
	return &malgoDevice{ctx: ctx}, nil
}

type malgoDevice struct {
	ctx *malgo.AllocatedContext
}

// SetCooperativeMode implements Device. Miniaudio negotiates shared mode
// with the OS mixer itself.
func (d *malgoDevice) SetCooperativeMode() error { return nil }

// MinBufferSize implements Device.
func (d *malgoDevice) MinBufferSize() int { return 4096 }

// CreateBuffer implements Device.
func (d *malgoDevice) CreateBuffer(format audio.Format, sizeBytes int) (Buffer, error) {
	var sampleFormat malgo.FormatType
	switch format.BitDepth {
	case 8:
		sampleFormat = malgo.FormatU8
	case 16:
		sampleFormat = malgo.FormatS16
	default:
		return nil, fmt.Errorf("%w: malgo backend supports 8/16-bit PCM, got %s", ErrUnavailable, format)
	}

	soft := NewSoftBuffer(format, sizeBytes)

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = sampleFormat
	deviceConfig.Playback.Channels = uint32(format.Channels)
	deviceConfig.SampleRate = uint32(format.SampleRate)
	deviceConfig.Alsa.NoMMap = 1

	onSamples := func(pOutput, pInput []byte, frameCount uint32) {
		soft.Drain(pOutput)
	}

	dev, err := malgo.InitDevice(d.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSamples})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to initialize playback device: %v", ErrUnavailable, err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("%w: failed to start playback device: %v", ErrUnavailable, err)
	}

	log.Printf("Audio output initialized: %s (malgo)", format)
	return &malgoBuffer{SoftBuffer: soft, device: dev}, nil
}

// Release implements Device.
func (d *malgoDevice) Release() {
	if err := d.ctx.Uninit(); err != nil {
		log.Printf("malgo context uninit: %v", err)
	}
	d.ctx.Free()
}

type malgoBuffer struct {
	*SoftBuffer
	device *malgo.Device
}

func (b *malgoBuffer) Release() {
	b.device.Uninit()
}

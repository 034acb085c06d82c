// ABOUTME: Audio type definitions
// ABOUTME: Defines the PCM stream format and sample conversion helpers
package audio

import (
	"encoding/binary"
	"fmt"
)

// Format describes a negotiated PCM playback format.
type Format struct {
	SampleRate int // frames per second
	Channels   int // 1 or 2
	BitDepth   int // 8 or 16
}

// BytesPerFrame returns the size of one sample frame in bytes
// (all channels of one sampling instant).
func (f Format) BytesPerFrame() int {
	return f.Channels * f.BitDepth / 8
}

// BytesPerSecond returns the raw PCM data rate in bytes.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.BytesPerFrame()
}

// Validate checks the format against the ranges the playback engine accepts:
// 8 or 16 bit samples, mono or stereo, any positive rate.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", f.SampleRate)
	}
	if f.Channels < 1 || f.Channels > 2 {
		return fmt.Errorf("invalid channel count: %d (supported: 1, 2)", f.Channels)
	}
	if f.BitDepth != 8 && f.BitDepth != 16 {
		return fmt.Errorf("invalid bit depth: %d (supported: 8, 16)", f.BitDepth)
	}
	return nil
}

func (f Format) String() string {
	return fmt.Sprintf("%dHz/%dch/%dbit", f.SampleRate, f.Channels, f.BitDepth)
}

// SampleToBytes writes an int16 sample as little-endian PCM.
func SampleToBytes(sample int16, dst []byte) {
	binary.LittleEndian.PutUint16(dst, uint16(sample))
}

// SampleFromBytes reads an int16 sample from little-endian PCM.
func SampleFromBytes(src []byte) int16 {
	return int16(binary.LittleEndian.Uint16(src))
}

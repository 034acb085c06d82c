// ABOUTME: Tests for audio format types
// ABOUTME: Tests frame size math, validation and sample byte conversion
package audio

import (
	"testing"
)

func TestBytesPerFrame(t *testing.T) {
	tests := []struct {
		format   Format
		expected int
	}{
		{Format{SampleRate: 44100, Channels: 2, BitDepth: 16}, 4},
		{Format{SampleRate: 44100, Channels: 1, BitDepth: 16}, 2},
		{Format{SampleRate: 8000, Channels: 2, BitDepth: 8}, 2},
		{Format{SampleRate: 8000, Channels: 1, BitDepth: 8}, 1},
	}

	for _, tt := range tests {
		if got := tt.format.BytesPerFrame(); got != tt.expected {
			t.Errorf("%s: expected %d bytes per frame, got %d", tt.format, tt.expected, got)
		}
	}
}

func TestBytesPerSecond(t *testing.T) {
	f := Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
	if got := f.BytesPerSecond(); got != 176400 {
		t.Errorf("expected 176400 bytes/sec, got %d", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		format Format
		ok     bool
	}{
		{Format{SampleRate: 44100, Channels: 2, BitDepth: 16}, true},
		{Format{SampleRate: 22050, Channels: 1, BitDepth: 8}, true},
		{Format{SampleRate: 0, Channels: 2, BitDepth: 16}, false},
		{Format{SampleRate: 44100, Channels: 3, BitDepth: 16}, false},
		{Format{SampleRate: 44100, Channels: 2, BitDepth: 24}, false},
	}

	for _, tt := range tests {
		err := tt.format.Validate()
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error: %v", tt.format, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected validation error", tt.format)
		}
	}
}

func TestSampleRoundTrip(t *testing.T) {
	buf := make([]byte, 2)
	for _, sample := range []int16{0, 1, -1, 32767, -32768, 12345} {
		SampleToBytes(sample, buf)
		if got := SampleFromBytes(buf); got != sample {
			t.Errorf("expected %d, got %d", sample, got)
		}
	}
}

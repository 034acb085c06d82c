// ABOUTME: Tests for the software circular playback buffer
// ABOUTME: Covers lock/unlock commits, wrap, drain, silence and attenuation
package device

import (
	"bytes"
	"testing"

	"github.com/ringsink/ringsink-go/pkg/audio"
)

var testFormat = audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}

func writeAt(t *testing.T, b *SoftBuffer, offset int, data []byte) {
	t.Helper()

	regions, err := b.Lock(offset, len(data))
	if err != nil {
		t.Fatalf("lock %d+%d failed: %v", offset, len(data), err)
	}
	n := 0
	for i := range regions {
		n += copy(regions[i].Data, data[n:])
	}
	if err := b.Unlock(regions); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
}

func TestSoftLockCommitsOnUnlock(t *testing.T) {
	b := NewSoftBuffer(testFormat, 16)
	writeAt(t, b, 0, []byte{1, 2, 3, 4})

	if err := b.Play(true); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	dst := make([]byte, 4)
	if n := b.Drain(dst); n != 4 {
		t.Fatalf("expected 4 bytes drained, got %d", n)
	}
	if !bytes.Equal(dst, []byte{1, 2, 3, 4}) {
		t.Errorf("expected committed data, got %v", dst)
	}

	cursor, _ := b.PlayCursor()
	if cursor != 4 {
		t.Errorf("expected cursor 4 after drain, got %d", cursor)
	}
}

func TestSoftLockWrapSplit(t *testing.T) {
	b := NewSoftBuffer(testFormat, 16)

	regions, err := b.Lock(12, 8)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if len(regions) != 2 {
		t.Fatalf("expected 2 regions for wrapped lock, got %d", len(regions))
	}
	if len(regions[0].Data) != 4 || len(regions[1].Data) != 4 {
		t.Fatalf("expected 4+4 byte regions, got %d+%d", len(regions[0].Data), len(regions[1].Data))
	}

	copy(regions[0].Data, []byte{10, 11, 12, 13})
	copy(regions[1].Data, []byte{14, 15, 16, 17})
	if err := b.Unlock(regions); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}

	if err := b.SetPosition(12); err != nil {
		t.Fatalf("set position failed: %v", err)
	}
	if err := b.Play(true); err != nil {
		t.Fatalf("play failed: %v", err)
	}

	dst := make([]byte, 8)
	b.Drain(dst)
	if !bytes.Equal(dst, []byte{10, 11, 12, 13, 14, 15, 16, 17}) {
		t.Errorf("wrapped write out of order: %v", dst)
	}
}

func TestSoftDrainWrapsWhileLooping(t *testing.T) {
	b := NewSoftBuffer(testFormat, 8)
	writeAt(t, b, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	b.Play(true)

	dst := make([]byte, 12)
	if n := b.Drain(dst); n != 12 {
		t.Fatalf("expected 12 bytes drained, got %d", n)
	}
	if !bytes.Equal(dst[8:], []byte{1, 2, 3, 4}) {
		t.Errorf("expected wrap back to start, got %v", dst[8:])
	}

	cursor, _ := b.PlayCursor()
	if cursor != 4 {
		t.Errorf("expected cursor 4 after wrap, got %d", cursor)
	}
}

func TestSoftDrainSilenceWhenStopped(t *testing.T) {
	b := NewSoftBuffer(testFormat, 16)
	writeAt(t, b, 0, []byte{9, 9, 9, 9})

	dst := []byte{255, 255, 255, 255}
	if n := b.Drain(dst); n != 0 {
		t.Errorf("expected 0 bytes consumed while stopped, got %d", n)
	}
	if !bytes.Equal(dst, []byte{0, 0, 0, 0}) {
		t.Errorf("expected 16-bit silence, got %v", dst)
	}

	cursor, _ := b.PlayCursor()
	if cursor != 0 {
		t.Errorf("expected frozen cursor, got %d", cursor)
	}
}

func TestSoftDrainSilenceIsUnsignedFor8Bit(t *testing.T) {
	b := NewSoftBuffer(audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 8}, 16)

	dst := make([]byte, 4)
	b.Drain(dst)
	if !bytes.Equal(dst, []byte{0x80, 0x80, 0x80, 0x80}) {
		t.Errorf("expected 8-bit silence 0x80, got %v", dst)
	}
}

func TestSoftStopFreezesCursor(t *testing.T) {
	b := NewSoftBuffer(testFormat, 16)
	writeAt(t, b, 0, make([]byte, 16))
	b.Play(true)
	b.Drain(make([]byte, 6))
	b.Stop()

	b.Drain(make([]byte, 6))
	cursor, _ := b.PlayCursor()
	if cursor != 6 {
		t.Errorf("expected cursor frozen at 6, got %d", cursor)
	}

	status, _ := b.Status()
	if status.Playing {
		t.Error("expected not playing after stop")
	}
}

func TestSoftVolumeAttenuatesSamples(t *testing.T) {
	b := NewSoftBuffer(testFormat, 8)

	data := make([]byte, 8)
	for i := 0; i < 4; i++ {
		audio.SampleToBytes(1000, data[i*2:])
	}
	writeAt(t, b, 0, data)

	// -2000 hundredths of a dB is a gain of 0.1.
	if err := b.SetVolume(-2000); err != nil {
		t.Fatalf("set volume failed: %v", err)
	}
	b.Play(true)

	dst := make([]byte, 8)
	b.Drain(dst)
	if got := audio.SampleFromBytes(dst); got != 100 {
		t.Errorf("expected sample attenuated to 100, got %d", got)
	}
}

func TestSoftVolumeFloorIsSilence(t *testing.T) {
	b := NewSoftBuffer(testFormat, 8)

	data := make([]byte, 8)
	for i := 0; i < 4; i++ {
		audio.SampleToBytes(32000, data[i*2:])
	}
	writeAt(t, b, 0, data)

	b.SetVolume(MinAttenuation)
	b.Play(true)

	dst := make([]byte, 8)
	b.Drain(dst)
	if got := audio.SampleFromBytes(dst); got != 0 {
		t.Errorf("expected silence at minimum attenuation, got %d", got)
	}
}

func TestSoftLostAndRestore(t *testing.T) {
	b := NewSoftBuffer(testFormat, 16)
	writeAt(t, b, 0, []byte{5, 5, 5, 5})

	b.ForceLost()

	status, _ := b.Status()
	if !status.Lost {
		t.Error("expected lost status")
	}
	if _, err := b.Lock(0, 4); err == nil {
		t.Error("expected lock to fail while lost")
	}

	if err := b.Restore(); err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	status, _ = b.Status()
	if status.Lost {
		t.Error("expected lost cleared after restore")
	}
	b.Play(true)
	dst := []byte{1, 1, 1, 1}
	b.Drain(dst)
	if !bytes.Equal(dst, []byte{0, 0, 0, 0}) {
		t.Errorf("expected restored buffer zeroed, got %v", dst)
	}
}

func TestSoftUnlockLengthMismatch(t *testing.T) {
	b := NewSoftBuffer(testFormat, 16)

	regions, err := b.Lock(0, 4)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	regions[0].Data = regions[0].Data[:2]
	if err := b.Unlock(regions); err == nil {
		t.Error("expected unlock to reject mismatched region sizes")
	}
}

func TestSoftNonLoopingStopsAtEnd(t *testing.T) {
	b := NewSoftBuffer(testFormat, 8)
	writeAt(t, b, 0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	b.Play(false)

	dst := make([]byte, 12)
	if n := b.Drain(dst); n != 8 {
		t.Fatalf("expected 8 bytes before end of buffer, got %d", n)
	}
	if !bytes.Equal(dst[8:], []byte{0, 0, 0, 0}) {
		t.Errorf("expected silence after end, got %v", dst[8:])
	}

	status, _ := b.Status()
	if status.Playing {
		t.Error("expected playback stopped at end of non-looping buffer")
	}
}

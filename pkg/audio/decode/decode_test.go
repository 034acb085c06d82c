// ABOUTME: Tests for the audio decoders
// ABOUTME: Tests extension dispatch, PCM pass-through and invalid input
package decode

import (
	"bytes"
	"io"
	"testing"

	"github.com/ringsink/ringsink-go/pkg/audio"
)

func TestOpenUnsupportedExtension(t *testing.T) {
	if _, err := Open("song.ogg"); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open("does-not-exist.mp3"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNewMP3InvalidData(t *testing.T) {
	if _, err := NewMP3(bytes.NewReader([]byte("not an mp3 stream"))); err == nil {
		t.Error("expected error for invalid mp3 data")
	}
}

func TestNewFLACInvalidData(t *testing.T) {
	if _, err := NewFLAC(bytes.NewReader([]byte("not a flac stream"))); err == nil {
		t.Error("expected error for invalid flac data")
	}
}

func TestPCMPassThrough(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
	raw := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	d, err := NewPCM(bytes.NewReader(raw), format)
	if err != nil {
		t.Fatalf("NewPCM failed: %v", err)
	}
	defer d.Close()

	if d.Format() != format {
		t.Errorf("expected format %s, got %s", format, d.Format())
	}

	out, err := io.ReadAll(d)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !bytes.Equal(out, raw) {
		t.Errorf("expected pass-through %v, got %v", raw, out)
	}
}

func TestPCMRejectsInvalidFormat(t *testing.T) {
	format := audio.Format{SampleRate: 0, Channels: 2, BitDepth: 16}
	if _, err := NewPCM(bytes.NewReader(nil), format); err == nil {
		t.Error("expected error for invalid format")
	}
}

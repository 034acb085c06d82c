// ABOUTME: Tests for the streaming loop
// ABOUTME: Covers playing-state tracking and end-of-stream shutdown
package main

import (
	"bytes"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ringsink/ringsink-go/pkg/audio"
	"github.com/ringsink/ringsink-go/pkg/audio/decode"
	"github.com/ringsink/ringsink-go/pkg/device/devicetest"
	"github.com/ringsink/ringsink-go/pkg/sink"
)

// statsReader records the reported playing state at the moment the
// stream pulls data from the source.
type statsReader struct {
	r             io.Reader
	stats         *playStats
	playingOnRead atomic.Bool
}

func (r *statsReader) Read(p []byte) (int, error) {
	if r.stats.playing.Load() {
		r.playingOnRead.Store(true)
	}
	return r.r.Read(p)
}

func TestStreamTracksPlayingState(t *testing.T) {
	format := audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16}
	drv := &devicetest.Driver{}
	s := sink.New(sink.Config{Driver: drv, PollInterval: time.Millisecond})
	if err := s.Open(); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer s.Close()
	if _, err := s.Prepare(format); err != nil {
		t.Fatalf("prepare failed: %v", err)
	}

	stats := &playStats{}
	src := &statsReader{r: bytes.NewReader(make([]byte, 4096)), stats: stats}
	dec, err := decode.NewPCM(src, format)
	if err != nil {
		t.Fatalf("pcm decoder failed: %v", err)
	}

	stream(s, dec, 1024, stats)

	if !src.playingOnRead.Load() {
		t.Error("expected playing state reported while the source was being read")
	}
	if stats.playing.Load() {
		t.Error("expected playing state cleared after the stream finished")
	}
	if got := stats.written.Load(); got != 4096 {
		t.Errorf("expected 4096 bytes written, got %d", got)
	}
	if buf := drv.Device().Buffer(); buf.StopCalls == 0 {
		t.Error("expected the ring stopped after the stream finished")
	}
}

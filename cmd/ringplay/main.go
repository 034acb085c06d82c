// ABOUTME: Command-line audio file player
// ABOUTME: Streams a decoded file through the circular-buffer sink
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/ringsink/ringsink-go/internal/ui"
	"github.com/ringsink/ringsink-go/pkg/audio/decode"
	"github.com/ringsink/ringsink-go/pkg/device"
	"github.com/ringsink/ringsink-go/pkg/sink"
)

type playStats struct {
	written atomic.Int64
	starved atomic.Int64
	playing atomic.Bool
}

func main() {
	file := flag.String("file", "", "audio file to play (.mp3 or .flac)")
	backend := flag.String("backend", "oto", "playback backend: oto, malgo, portaudio")
	attenuation := flag.Int("attenuation", 0, "attenuation in hundredths of a dB (-10000..0)")
	writeTimeout := flag.Duration("write-timeout", 0, "abort a stalled write after this long (0 = never)")
	useTUI := flag.Bool("tui", false, "show the interactive status display")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	drv, err := driverFor(*backend)
	if err != nil {
		log.Fatalf("Failed to select backend: %v", err)
	}

	dec, err := decode.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer dec.Close()

	s := sink.New(sink.Config{
		Driver:       drv,
		Attenuation:  *attenuation,
		WriteTimeout: *writeTimeout,
	})
	if err := s.Open(); err != nil {
		log.Fatalf("Failed to open device: %v", err)
	}
	defer s.Close()

	format := dec.Format()
	capacity, err := s.Prepare(format)
	if err != nil {
		log.Fatalf("Failed to prepare sink: %v", err)
	}
	defer s.Unprepare()

	log.Printf("Session %s: %s via %s backend", s.ID(), *file, *backend)

	// Chunk at roughly an eighth of the ring, aligned to whole frames.
	chunkSize := capacity / 8
	chunkSize -= chunkSize % format.BytesPerFrame()

	stats := &playStats{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		stream(s, dec, chunkSize, stats)
	}()

	if *useTUI {
		runTUI(s, *file, format.String(), format.SampleRate, capacity, stats, done)
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			log.Printf("Playback finished: %d bytes written", stats.written.Load())
			return
		case <-sig:
			log.Printf("Interrupted")
			return
		case <-ticker.C:
			delay := s.Delay()
			log.Printf("queued: %d frames (%.0fms)", delay,
				float64(delay)/float64(format.SampleRate)*1000.0)
		}
	}
}

func driverFor(name string) (device.Driver, error) {
	switch name {
	case "oto":
		return device.Oto{}, nil
	case "malgo":
		return device.Malgo{}, nil
	case "portaudio":
		return device.PortAudio{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (supported: oto, malgo, portaudio)", name)
	}
}

// stream pushes decoded PCM through the sink until the source is
// exhausted, then waits for the queue to drain. A write that reports no
// progress is retried with the same chunk.
func stream(s *sink.Sink, dec decode.Decoder, chunkSize int, stats *playStats) {
	stats.playing.Store(true)
	defer stats.playing.Store(false)

	format := dec.Format()
	bytesPerFrame := format.BytesPerFrame()
	chunk := make([]byte, chunkSize)

	for {
		n, err := io.ReadFull(dec, chunk)
		if n > 0 {
			pending := chunk[:n-n%bytesPerFrame]
			for len(pending) > 0 {
				written := s.Write(pending)
				if written == 0 {
					stats.starved.Add(1)
					time.Sleep(10 * time.Millisecond)
					continue
				}
				stats.written.Add(int64(written))
				pending = pending[written:]
			}
		}
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF {
				log.Printf("decode error: %v", err)
			}
			break
		}
	}

	// Let the tail play out, then stop. Waiting by time, not by polling
	// the queue to zero: a looping ring reports content queued for as
	// long as it runs, and once the source is done that content is
	// stale audio anyway.
	if delay := s.Delay(); delay > 0 {
		time.Sleep(time.Duration(delay) * time.Second / time.Duration(format.SampleRate))
	}
	s.Reset()
}

func runTUI(s *sink.Sink, file, format string, sampleRate, capacity int, stats *playStats, done <-chan struct{}) {
	p := tea.NewProgram(ui.NewModel(s))

	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				p.Send(tea.Quit())
				return
			case <-ticker.C:
				delay := s.Delay()
				p.Send(ui.StatusMsg{
					File:          file,
					Format:        format,
					CapacityBytes: capacity,
					SampleRate:    sampleRate,
					DelayFrames:   delay,
					Playing:       stats.playing.Load(),
					WrittenBytes:  stats.written.Load(),
					Starved:       stats.starved.Load(),
				})
			}
		}
	}()

	if _, err := p.Run(); err != nil {
		log.Fatalf("TUI error: %v", err)
	}
}

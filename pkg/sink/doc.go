// ABOUTME: Sink package documentation
// ABOUTME: Circular-buffer PCM playback engine
// Package sink implements a playback engine over a fixed-size circular
// device buffer: a producer pushes PCM chunks while the device drains
// the ring through a play cursor advancing in real time.
//
// The engine computes free space against the live cursor, polls until a
// chunk fits, handles buffer-loss restoration, tracks queued-but-unplayed
// audio for latency reporting, and survives reset/stop events without
// failing the stream.
//
// Example:
//
//	s := sink.New(sink.Config{Driver: device.Oto{}})
//	if err := s.Open(); err != nil { ... }
//	capacity, err := s.Prepare(audio.Format{SampleRate: 44100, Channels: 2, BitDepth: 16})
//	for chunk := range chunks {
//		for s.Write(chunk) == 0 { ... } // 0 = no progress, retry
//	}
package sink

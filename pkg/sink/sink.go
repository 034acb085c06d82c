// ABOUTME: Circular-buffer playback engine
// ABOUTME: Streams PCM chunks into a device ring against a live play cursor
package sink

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/ringsink/ringsink-go/pkg/audio"
	"github.com/ringsink/ringsink-go/pkg/device"
)

// DefaultPollInterval is how long Write sleeps between free-space checks.
// The device has no wake notification, so the wait is a poll.
const DefaultPollInterval = 100 * time.Millisecond

// Config configures a Sink.
type Config struct {
	// Driver opens the playback device. Required.
	Driver device.Driver

	// PollInterval overrides DefaultPollInterval for the free-space wait.
	PollInterval time.Duration

	// WriteTimeout bounds the free-space wait. Zero means wait until the
	// device makes progress, the device stops, or the sink is closed.
	WriteTimeout time.Duration

	// Attenuation is the initial attenuation level in hundredths of a
	// decibel (-10000..0, 0 = unattenuated).
	Attenuation int
}

// Sink feeds one PCM stream into a fixed-size circular playback buffer
// that an opaque audio engine drains in real time.
//
// Lifecycle: Open, Prepare, any number of Write/Delay/Reset calls,
// Unprepare, Close. Write and Reset are serialized against each other;
// Delay and the attenuation accessors never wait on them.
type Sink struct {
	id  string
	drv device.Driver

	pollInterval time.Duration
	writeTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	// mu serializes the mutating operations (Write, Reset, Prepare,
	// Unprepare, Close). The free-space poll sleeps while holding it, so
	// a Reset waits for an in-flight Write to finish or abort.
	mu  sync.Mutex
	dev device.Device

	// sessMu guards the session fields read by the non-mutating fast
	// paths (Delay, SetAttenuation) against Prepare/Unprepare.
	sessMu        sync.RWMutex
	buf           device.Buffer
	capacity      int
	bytesPerFrame int

	writeOffset atomic.Int64 // next byte to lock, in [0, capacity)

	firstWriteAfterReset bool
	warnedOversize       bool

	attMu       sync.RWMutex
	attenuation int
}

// New creates a Sink. The device is not touched until Open.
func New(cfg Config) *Sink {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Sink{
		id:           uuid.New().String(),
		drv:          cfg.Driver,
		pollInterval: cfg.PollInterval,
		writeTimeout: cfg.WriteTimeout,
		attenuation:  clampAttenuation(cfg.Attenuation),
		ctx:          ctx,
		cancel:       cancel,
	}
	if s.pollInterval <= 0 {
		s.pollInterval = DefaultPollInterval
	}
	return s
}

// ID returns the session identifier used in log lines.
func (s *Sink) ID() string {
	return s.id
}

// Open opens the playback device and claims it for streaming. This is
// the first boundary where device failure is fatal.
func (s *Sink) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev != nil {
		return fmt.Errorf("open: device already open")
	}

	dev, err := s.drv.Open()
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	if err := dev.SetCooperativeMode(); err != nil {
		dev.Release()
		return fmt.Errorf("set cooperative mode: %w", err)
	}

	// Fresh context per open: Close cancels the current one to unwedge
	// a stalled write, and a sink reopened afterwards must still be
	// able to wait for free space.
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.dev = dev
	log.Printf("sink %s: device open", s.id)
	return nil
}

// Prepare creates the circular buffer for the negotiated format and
// returns its size in bytes so the caller can size its chunking. The
// buffer holds half a second of the stream, clamped up to the device
// minimum.
func (s *Sink) Prepare(format audio.Format) (int, error) {
	if err := format.Validate(); err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return 0, fmt.Errorf("prepare: device not open")
	}
	if s.buf != nil {
		return 0, fmt.Errorf("prepare: already prepared")
	}

	capacity := format.BytesPerSecond() / 2
	if min := s.dev.MinBufferSize(); capacity < min {
		capacity = min
	}

	buf, err := s.dev.CreateBuffer(format, capacity)
	if err != nil {
		return 0, fmt.Errorf("create buffer: %w", err)
	}

	s.attMu.RLock()
	att := s.attenuation
	s.attMu.RUnlock()
	if att != 0 {
		if err := buf.SetVolume(att); err != nil {
			log.Printf("sink %s: set volume %d: %v", s.id, att, err)
		}
	}

	s.sessMu.Lock()
	s.buf = buf
	s.capacity = capacity
	s.bytesPerFrame = format.BytesPerFrame()
	s.sessMu.Unlock()

	s.writeOffset.Store(0)
	s.firstWriteAfterReset = false
	s.warnedOversize = false

	log.Printf("sink %s: prepared %s, %d byte circular buffer", s.id, format, capacity)
	return capacity, nil
}

// Write queues chunk into the circular buffer, waiting for free space in
// front of the play cursor when the device is playing. It returns
// len(chunk) on success, or 0 when no progress was possible: the device
// stopped during the wait, the wait timed out, or the sink was closed.
// Zero is not an error; the caller retries with the same or next chunk.
// Mid-stream device failures are absorbed, never surfaced.
//
// Playback starts lazily on the first write, except for the priming
// write that immediately follows a Reset.
func (s *Sink) Write(chunk []byte) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf == nil || len(chunk) == 0 {
		return 0
	}
	if len(chunk) >= s.capacity {
		// A chunk this large can never fit in front of the cursor and
		// would wedge the free-space wait forever.
		if !s.warnedOversize {
			log.Printf("sink %s: dropping %d byte chunk, circular buffer is only %d bytes", s.id, len(chunk), s.capacity)
			s.warnedOversize = true
		}
		return 0
	}

	st, statusErr := s.buf.Status()
	cursor, cursorErr := s.buf.PlayCursor()

	if statusErr == nil && cursorErr == nil && st.Playing {
		var timeout <-chan time.Time
		if s.writeTimeout > 0 {
			timer := time.NewTimer(s.writeTimeout)
			defer timer.Stop()
			timeout = timer.C
		}

		for len(chunk) >= freeBytes(int(s.writeOffset.Load()), cursor, s.capacity) {
			select {
			case <-s.ctx.Done():
				s.firstWriteAfterReset = false
				return 0
			case <-timeout:
				log.Printf("sink %s: write timed out waiting for free space", s.id)
				s.firstWriteAfterReset = false
				return 0
			case <-time.After(s.pollInterval):
			}

			cursor, cursorErr = s.buf.PlayCursor()
			st, statusErr = s.buf.Status()
			if statusErr != nil || cursorErr != nil || !st.Playing {
				// Stopped out-of-band mid-wait: report no progress and
				// let the caller decide what to do with the chunk.
				s.firstWriteAfterReset = false
				return 0
			}
		}
	}

	if st.Lost {
		// The buffer contents are gone, so the tracked offset is
		// meaningless; restore and start writing from the top.
		if err := s.buf.Restore(); err != nil {
			log.Printf("sink %s: restore failed: %v", s.id, err)
		}
		s.writeOffset.Store(0)
	}

	offset := int(s.writeOffset.Load())
	regions, err := s.buf.Lock(offset, len(chunk))
	if err != nil {
		log.Printf("sink %s: lock %d+%d failed: %v", s.id, offset, len(chunk), err)
	} else {
		n := 0
		for i := range regions {
			n += copy(regions[i].Data, chunk[n:])
		}
		s.writeOffset.Store(int64((offset + n) % s.capacity))

		if err := s.buf.Unlock(regions); err != nil {
			log.Printf("sink %s: unlock failed: %v", s.id, err)
		}
	}

	if !st.Playing && !s.firstWriteAfterReset {
		if err := s.buf.Play(true); err != nil {
			log.Printf("sink %s: play failed: %v", s.id, err)
		}
	}

	s.firstWriteAfterReset = false
	return len(chunk)
}

// Delay reports the number of sample frames queued in the buffer but not
// yet played. It never waits on an in-flight Write or Reset.
func (s *Sink) Delay() int {
	s.sessMu.RLock()
	buf, capacity, bytesPerFrame := s.buf, s.capacity, s.bytesPerFrame
	s.sessMu.RUnlock()

	if buf == nil {
		return 0
	}

	st, err := buf.Status()
	if err != nil || !st.Playing {
		return 0
	}
	cursor, err := buf.PlayCursor()
	if err != nil {
		return 0
	}

	return queuedBytes(int(s.writeOffset.Load()), cursor, capacity) / bytesPerFrame
}

// Reset stops playback, rewinds both the hardware cursor and the write
// offset to zero and silences the whole buffer. It never fails: the
// surrounding pipeline calls it on state changes and a device hiccup
// must not tear the pipeline down.
//
// The very next Write does not auto-start playback; the pipeline primes
// the buffer with silence right after a reset while still paused, and
// that priming write must not resume audio.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.buf != nil {
		if err := s.buf.Stop(); err != nil {
			log.Printf("sink %s: stop failed: %v", s.id, err)
		}
		if err := s.buf.SetPosition(0); err != nil {
			log.Printf("sink %s: set position failed: %v", s.id, err)
		}
		s.writeOffset.Store(0)

		regions, err := s.buf.Lock(0, s.capacity)
		if err != nil {
			log.Printf("sink %s: reset lock failed: %v", s.id, err)
		} else {
			for _, r := range regions {
				for i := range r.Data {
					r.Data[i] = 0
				}
			}
			if err := s.buf.Unlock(regions); err != nil {
				log.Printf("sink %s: reset unlock failed: %v", s.id, err)
			}
		}
	}

	s.firstWriteAfterReset = true
}

// SetAttenuation sets the playback attenuation in hundredths of a
// decibel (-10000..0, 0 = unattenuated), clamping out-of-range values.
// It takes effect immediately on a live buffer and is re-applied to
// buffers created by a later Prepare.
func (s *Sink) SetAttenuation(level int) {
	level = clampAttenuation(level)

	s.attMu.Lock()
	changed := level != s.attenuation
	s.attenuation = level
	s.attMu.Unlock()

	if !changed {
		return
	}

	s.sessMu.RLock()
	buf := s.buf
	s.sessMu.RUnlock()

	if buf != nil {
		if err := buf.SetVolume(level); err != nil {
			log.Printf("sink %s: set volume %d: %v", s.id, level, err)
		}
	}
}

// Attenuation returns the current attenuation level.
func (s *Sink) Attenuation() int {
	s.attMu.RLock()
	defer s.attMu.RUnlock()
	return s.attenuation
}

// Unprepare releases the circular buffer. The device stays open for a
// later Prepare with a new format.
func (s *Sink) Unprepare() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessMu.Lock()
	buf := s.buf
	s.buf = nil
	s.sessMu.Unlock()

	if buf != nil {
		buf.Release()
		log.Printf("sink %s: unprepared", s.id)
	}
}

// Close releases the buffer and the device. It also unblocks a Write
// stalled in the free-space wait, which then reports 0 bytes written.
func (s *Sink) Close() error {
	s.cancel()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessMu.Lock()
	buf := s.buf
	s.buf = nil
	s.sessMu.Unlock()
	if buf != nil {
		buf.Release()
	}

	if s.dev == nil {
		return fmt.Errorf("close: device not open")
	}
	s.dev.Release()
	s.dev = nil
	log.Printf("sink %s: device closed", s.id)
	return nil
}

// freeBytes is the circular distance from the write offset forward to
// the play cursor: bytes already consumed by playback and safe to
// overwrite. Free space and queued space are complementary arcs of the
// same ring.
func freeBytes(writeOffset, playCursor, capacity int) int {
	if playCursor < writeOffset {
		return capacity - (writeOffset - playCursor)
	}
	return playCursor - writeOffset
}

// queuedBytes is the opposite traversal: content from the play cursor
// forward to the write offset, written but not yet played.
func queuedBytes(writeOffset, playCursor, capacity int) int {
	if playCursor < writeOffset {
		return writeOffset - playCursor
	}
	return writeOffset + (capacity - playCursor)
}

func clampAttenuation(level int) int {
	if level < device.MinAttenuation {
		return device.MinAttenuation
	}
	if level > device.MaxAttenuation {
		return device.MaxAttenuation
	}
	return level
}

// ABOUTME: Bubbletea model for the playback status TUI
// ABOUTME: Shows ring buffer fill, latency and attenuation with volume keys
package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

// attenuation step per keypress, hundredths of a dB
const volumeStep = 500

// VolumeControl is the part of the sink the TUI drives.
type VolumeControl interface {
	SetAttenuation(level int)
	Attenuation() int
}

// StatusMsg updates the playback state shown in the TUI.
type StatusMsg struct {
	File          string
	Format        string
	CapacityBytes int
	DelayFrames   int
	SampleRate    int
	Playing       bool
	WrittenBytes  int64
	Starved       int64
}

// Model represents the TUI state
type Model struct {
	volume VolumeControl

	// Stream
	file       string
	format     string
	capacity   int
	sampleRate int

	// Playback
	playing     bool
	delayFrames int
	written     int64
	starved     int64

	// Dimensions
	width  int
	height int
}

// NewModel creates the TUI model. The volume control may be nil in tests.
func NewModel(volume VolumeControl) Model {
	return Model{volume: volume}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "+", "=":
		if m.volume != nil {
			m.volume.SetAttenuation(m.volume.Attenuation() + volumeStep)
		}
	case "-", "_":
		if m.volume != nil {
			m.volume.SetAttenuation(m.volume.Attenuation() - volumeStep)
		}
	}
	return m, nil
}

func (m *Model) applyStatus(msg StatusMsg) {
	if msg.File != "" {
		m.file = msg.File
	}
	if msg.Format != "" {
		m.format = msg.Format
	}
	if msg.CapacityBytes > 0 {
		m.capacity = msg.CapacityBytes
	}
	if msg.SampleRate > 0 {
		m.sampleRate = msg.SampleRate
	}
	m.playing = msg.Playing
	m.delayFrames = msg.DelayFrames
	m.written = msg.WrittenBytes
	m.starved = msg.Starved
}

// View renders the TUI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	state := "stopped"
	if m.playing {
		state = "playing"
	}

	attenuation := 0
	if m.volume != nil {
		attenuation = m.volume.Attenuation()
	}

	return fmt.Sprintf(`┌─ ringsink ───────────────────────────────────────────┐
│ File:    %-44s│
│ Format:  %-44s│
│ State:   %-44s│
│ Latency: %-44s│
│ Buffer:  %-44s│
│ Volume:  %-44s│
│ Written: %-44s│
└──────────────────────────────────────────────────────┘
  +/- volume · q quit
`,
		truncate(m.file, 44),
		m.format,
		state,
		m.renderLatency(),
		fmt.Sprintf("%d bytes", m.capacity),
		fmt.Sprintf("%d (hundredths of dB)", attenuation),
		fmt.Sprintf("%d bytes, %d starved writes", m.written, m.starved))
}

func (m Model) renderLatency() string {
	if m.sampleRate == 0 {
		return fmt.Sprintf("%d frames", m.delayFrames)
	}
	ms := float64(m.delayFrames) / float64(m.sampleRate) * 1000.0
	return fmt.Sprintf("%d frames (%.1fms)", m.delayFrames, ms)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

//go:build !portaudio

// ABOUTME: PortAudio stub for builds without the portaudio tag
// ABOUTME: Keeps the PortAudio driver name available but non-functional
package device

import "fmt"

// PortAudio is only functional when built with the portaudio tag.
type PortAudio struct{}

// Open implements Driver.
func (PortAudio) Open() (Device, error) {
	return nil, fmt.Errorf("%w: portaudio support not compiled in (build with -tags portaudio)", ErrUnavailable)
}

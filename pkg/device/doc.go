// ABOUTME: Device package documentation
// ABOUTME: Circular playback buffer abstraction and backend drivers
// Package device abstracts a hardware-style circular playback buffer:
// an opaque engine drains it through an autonomously advancing play
// cursor while the caller locks byte ranges and writes PCM into them.
//
// Three real drivers are provided (Oto, Malgo, PortAudio), all built on
// SoftBuffer, plus a manually clocked fake in the devicetest subpackage
// for deterministic engine tests.
package device

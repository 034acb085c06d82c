// ABOUTME: Audio package documentation
// ABOUTME: Shared PCM format and sample types
// Package audio holds the PCM format description shared by the playback
// engine, the device backends and the decoders.
package audio

// ABOUTME: Audio decoder package for file playback
// ABOUTME: Provides streaming Decoder implementations for MP3, FLAC, raw PCM
// Package decode provides streaming audio decoders.
//
// All decoders output interleaved 16-bit little-endian PCM through the
// Decoder interface, ready to be chunked into a playback sink.
//
// Example:
//
//	d, err := decode.Open("track.flac")
//	chunk := make([]byte, 8192)
//	n, err := d.Read(chunk)
package decode

// Package audio handles audio format conversion and loudness metering.
// It implements PCM WAV encoding/decoding, linear-interpolation resampling,
// and the best-effort canonical-format transcoder used before transmission.
package audio

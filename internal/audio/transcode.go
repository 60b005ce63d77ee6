package audio

import (
	"log/slog"
)

// DefaultTargetSampleRate is the rate the remote speech recognizer expects.
const DefaultTargetSampleRate = 16000

// Transcoder normalizes captured audio to fixed-rate linear PCM before
// transmission. Conversion is strictly best-effort: any input the
// transcoder cannot decode is passed through untouched, because the
// backend accepts the original container as well.
type Transcoder struct {
	targetRate int
	logger     *slog.Logger
}

// NewTranscoder creates a transcoder targeting the given sample rate.
// A non-positive rate falls back to DefaultTargetSampleRate.
func NewTranscoder(targetRate int, logger *slog.Logger) *Transcoder {
	if targetRate <= 0 {
		targetRate = DefaultTargetSampleRate
	}
	return &Transcoder{
		targetRate: targetRate,
		logger:     logger,
	}
}

// TargetSampleRate returns the configured canonical sample rate.
func (t *Transcoder) TargetSampleRate() int {
	return t.targetRate
}

// ToCanonicalFormat converts a captured blob to fixed-rate 16-bit PCM
// WAV, preserving the channel count. On any failure (empty input,
// unsupported container, malformed payload) it returns the original
// blob unchanged. The operation is side-effect-free and idempotent.
func (t *Transcoder) ToCanonicalFormat(blob []byte) []byte {
	if len(blob) == 0 {
		t.logger.Warn("Empty audio blob, sending original")
		return blob
	}

	samples, info, err := DecodeWAV(blob)
	if err != nil {
		// Opus/WebM captures land here; the backend decodes those itself.
		t.logger.Debug("Audio not decodable as WAV, sending original",
			slog.Int("size", len(blob)),
			slog.String("reason", err.Error()),
		)
		return blob
	}

	if info.SampleRate == t.targetRate {
		return blob
	}

	resampled := Resample(samples, info.Channels, info.SampleRate, t.targetRate)

	out, err := EncodeWAV(resampled, t.targetRate, info.Channels)
	if err != nil {
		t.logger.Warn("Failed to re-encode resampled audio, sending original",
			slog.String("error", err.Error()),
		)
		return blob
	}

	t.logger.Debug("Audio transcoded to canonical format",
		slog.Int("from_rate", info.SampleRate),
		slog.Int("to_rate", t.targetRate),
		slog.Int("channels", info.Channels),
		slog.Int("in_bytes", len(blob)),
		slog.Int("out_bytes", len(out)),
	)

	return out
}

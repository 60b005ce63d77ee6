package audio

import "math"

// Level computes a normalized 0..1 loudness value for a window of
// PCM-16 samples, based on RMS energy. Used to drive the visualization
// while recording and during response playback.
func Level(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}

	var energy float64
	for _, sample := range samples {
		energy += float64(sample) * float64(sample)
	}
	rms := math.Sqrt(energy / float64(len(samples)))

	level := rms / 32768.0
	if level > 1 {
		level = 1
	}
	return level
}

// GatedLevel applies a noise-gate threshold to a raw level and rescales
// the remainder to the full 0..1 range, so ambient noise reads as
// silence.
func GatedLevel(level, threshold float64) float64 {
	if threshold <= 0 {
		return level
	}
	if threshold >= 1 || level <= threshold {
		return 0
	}
	return (level - threshold) / (1 - threshold)
}

// LevelOfBytes interprets a byte fragment as little-endian PCM-16 and
// computes its Level. Odd trailing bytes are ignored.
func LevelOfBytes(fragment []byte) float64 {
	n := len(fragment) / 2
	if n == 0 {
		return 0
	}
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(uint16(fragment[2*i]) | uint16(fragment[2*i+1])<<8)
	}
	return Level(samples)
}

package audio

// Resample converts interleaved PCM-16 samples from one sample rate to
// another using per-channel linear interpolation. Channel count is
// preserved. When the rates match (or the input is too small to
// interpolate) the input slice is returned as is.
func Resample(samples []int16, channels, fromRate, toRate int) []int16 {
	if fromRate == toRate || fromRate <= 0 || toRate <= 0 || channels <= 0 {
		return samples
	}

	inFrames := len(samples) / channels
	if inFrames < 2 {
		return samples
	}

	ratio := float64(fromRate) / float64(toRate)
	outFrames := int(float64(inFrames) / ratio)
	if outFrames == 0 {
		return samples
	}

	out := make([]int16, outFrames*channels)
	for frame := 0; frame < outFrames; frame++ {
		pos := float64(frame) * ratio
		idx := int(pos)
		frac := pos - float64(idx)

		next := idx + 1
		if next >= inFrames {
			next = inFrames - 1
		}

		for ch := 0; ch < channels; ch++ {
			a := float64(samples[idx*channels+ch])
			b := float64(samples[next*channels+ch])
			out[frame*channels+ch] = int16(a + (b-a)*frac)
		}
	}

	return out
}

// ClampSample quantizes a normalized [-1, 1] float sample to the
// 16-bit PCM range, clamping out-of-range values first.
func ClampSample(v float64) int16 {
	if v > 1 {
		v = 1
	}
	if v < -1 {
		v = -1
	}
	if v < 0 {
		return int16(v * 32768)
	}
	return int16(v * 32767)
}

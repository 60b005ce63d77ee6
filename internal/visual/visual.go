// Package visual defines the boundary to the ambient visualization.
// The actual orb rendering lives outside this client; the pipeline only
// feeds it normalized amplitude levels.
package visual

// Driver consumes real-time amplitude signals from the voice pipeline.
// Levels are normalized to 0..1. Implementations must be cheap and
// non-blocking; they are called from capture and playback loops.
type Driver interface {
	// SetInputLevel reports the microphone level while recording.
	SetInputLevel(level float64)

	// SetOutputLevel reports the synthesized-response level while playing.
	SetOutputLevel(level float64)

	// SetSpeaking flags whether the assistant is currently speaking.
	SetSpeaking(speaking bool)
}

// Nop is a Driver that discards all signals.
type Nop struct{}

func (Nop) SetInputLevel(float64)  {}
func (Nop) SetOutputLevel(float64) {}
func (Nop) SetSpeaking(bool)       {}

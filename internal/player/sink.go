package player

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
)

// Sink consumes one audio blob and blocks until it has been played.
type Sink interface {
	Play(ctx context.Context, data []byte) error
}

// ExecSink plays audio by piping it into an external player process
// (aplay, paplay, ffplay).
type ExecSink struct {
	Command []string
	Logger  *slog.Logger
}

// Play runs the configured command with the audio on stdin. Cancelling
// the context kills the player.
func (s *ExecSink) Play(ctx context.Context, data []byte) error {
	if len(s.Command) == 0 {
		return fmt.Errorf("no playback command configured")
	}

	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Stdin = bytes.NewReader(data)

	if s.Logger != nil {
		s.Logger.Debug("Playback process starting",
			slog.String("command", s.Command[0]),
			slog.Int("bytes", len(data)),
		)
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("player command %q failed: %w", s.Command[0], err)
	}

	return nil
}

package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
)

// FormatPCM marks a source producing raw signed 16-bit little-endian
// PCM without a container. The controller wraps it in WAV on finalize.
const FormatPCM = "audio/l16"

// preferredFormats is the capture encoding preference order. Compressed
// opus containers are tried first; raw PCM is the universal fallback.
var preferredFormats = []string{
	"audio/webm;codecs=opus",
	"audio/webm",
	"audio/ogg;codecs=opus",
	FormatPCM,
}

// selectFormat picks the first preferred format the source can produce,
// falling back to the source's own first format.
func selectFormat(available []string) string {
	for _, want := range preferredFormats {
		for _, have := range available {
			if want == have {
				return want
			}
		}
	}
	if len(available) > 0 {
		return available[0]
	}
	return FormatPCM
}

// Source provides a continuous audio stream from a capture device.
type Source interface {
	// Formats lists the encodings this source can produce.
	Formats() []string

	// Open starts the device stream in the given format. The stream
	// stays live until closed.
	Open(ctx context.Context, format string) (io.ReadCloser, error)
}

// ExecSource captures audio by spawning an external recorder process
// (arecord, sox, ffmpeg) and reading its stdout.
type ExecSource struct {
	Command []string
	Format  string
	Logger  *slog.Logger
}

// Formats returns the single format the configured command produces.
func (s *ExecSource) Formats() []string {
	if s.Format == "" {
		return []string{FormatPCM}
	}
	return []string{s.Format}
}

// Open spawns the recorder process. A missing binary or a failed start
// is reported as a PermissionError, matching a runtime with no usable
// capture device.
func (s *ExecSource) Open(ctx context.Context, format string) (io.ReadCloser, error) {
	if len(s.Command) == 0 {
		return nil, &PermissionError{Err: fmt.Errorf("no capture command configured")}
	}

	path, err := exec.LookPath(s.Command[0])
	if err != nil {
		return nil, &PermissionError{Err: fmt.Errorf("capture command %q not found: %w", s.Command[0], err)}
	}

	cmd := exec.Command(path, s.Command[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open capture pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, &PermissionError{Err: fmt.Errorf("failed to start %q: %w", s.Command[0], err)}
	}

	if s.Logger != nil {
		s.Logger.Info("Capture process started",
			slog.String("command", s.Command[0]),
			slog.Int("pid", cmd.Process.Pid),
			slog.String("format", format),
		)
	}

	return &execStream{cmd: cmd, rc: stdout}, nil
}

// execStream wraps the recorder's stdout and kills the process on Close.
type execStream struct {
	cmd  *exec.Cmd
	rc   io.ReadCloser
	once sync.Once
	err  error
}

func (s *execStream) Read(p []byte) (int, error) {
	return s.rc.Read(p)
}

func (s *execStream) Close() error {
	s.once.Do(func() {
		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
		_ = s.rc.Close()
		s.err = s.cmd.Wait()
	})
	return s.err
}

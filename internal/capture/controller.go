package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/arcavoice/orbe/internal/audio"
	"github.com/arcavoice/orbe/internal/visual"
)

// State represents the capture controller lifecycle
type State int

const (
	StateIdle State = iota
	StateRequesting
	StateRecording
	StateFinalizing
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequesting:
		return "requesting"
	case StateRecording:
		return "recording"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Capture outcome errors surfaced to the session controller.
var (
	// ErrRecordingTooShort marks a recording below the minimum duration;
	// it is discarded without transmission.
	ErrRecordingTooShort = errors.New("recording too short")

	// ErrNoAudioCaptured marks a recording that produced zero fragments.
	ErrNoAudioCaptured = errors.New("no audio captured")

	// ErrAlreadyActive is returned when Begin is called outside Idle.
	ErrAlreadyActive = errors.New("capture already active")

	// ErrNotRecording is returned when End is called outside Recording.
	ErrNotRecording = errors.New("no recording in progress")
)

// PermissionError indicates microphone access was denied or no capture
// backend exists in this runtime.
type PermissionError struct {
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("microphone unavailable: %v", e.Err)
}

func (e *PermissionError) Unwrap() error {
	return e.Err
}

// Recording is one finalized capture, ready for the pipeline.
type Recording struct {
	Data     []byte
	Format   string
	Duration time.Duration
}

// Config contains capture controller parameters
type Config struct {
	MinDuration  time.Duration
	MaxDuration  time.Duration
	SampleRate   int
	Channels     int
	NoiseGate    float64
	FragmentSize int
}

// Controller owns the microphone stream and recorder lifecycle. The
// underlying stream is opened on the first Begin and reused across
// turns; it is only released on explicit teardown.
type Controller struct {
	source Source
	config Config
	logger *slog.Logger
	vis    visual.Driver

	mu         sync.Mutex
	state      State
	format     string
	stream     io.ReadCloser
	chunks     [][]byte
	startedAt  time.Time
	maxWarned  bool
	readerDone chan struct{}
}

// NewController creates a capture controller over the given source.
func NewController(source Source, config Config, vis visual.Driver, logger *slog.Logger) *Controller {
	if config.FragmentSize <= 0 {
		config.FragmentSize = 4096
	}
	if config.MinDuration <= 0 {
		config.MinDuration = 500 * time.Millisecond
	}
	if config.MaxDuration <= 0 {
		config.MaxDuration = 30 * time.Second
	}
	if config.SampleRate <= 0 {
		config.SampleRate = 16000
	}
	if config.Channels <= 0 {
		config.Channels = 1
	}
	if vis == nil {
		vis = visual.Nop{}
	}

	return &Controller{
		source: source,
		config: config,
		logger: logger,
		vis:    vis,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Begin requests the microphone (on first use) and starts recording.
// Any permission or hardware error returns the controller to Idle.
func (c *Controller) Begin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrAlreadyActive
	}
	c.state = StateRequesting

	if c.stream == nil {
		format := selectFormat(c.source.Formats())
		c.logger.Info("Requesting microphone access", slog.String("format", format))

		stream, err := c.source.Open(ctx, format)
		if err != nil {
			c.state = StateIdle
			c.logger.Error("Microphone access failed", slog.String("error", err.Error()))
			return err
		}

		done := make(chan struct{})
		c.stream = stream
		c.format = format
		c.readerDone = done
		go c.readLoop(stream, done)

		c.logger.Info("Microphone stream opened", slog.String("format", format))
	}

	c.chunks = nil
	c.startedAt = time.Now()
	c.maxWarned = false
	c.state = StateRecording

	return nil
}

// End stops the recorder and finalizes the captured fragments into one
// blob. Recordings shorter than the minimum duration are discarded with
// ErrRecordingTooShort; captures with zero fragments with
// ErrNoAudioCaptured. Either way the controller returns to Idle and the
// stream stays open for the next turn.
func (c *Controller) End() (*Recording, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return nil, ErrNotRecording
	}
	c.state = StateFinalizing
	c.vis.SetInputLevel(0)

	duration := time.Since(c.startedAt)
	chunks := c.chunks
	c.chunks = nil
	c.startedAt = time.Time{}
	c.state = StateIdle

	if duration < c.config.MinDuration {
		c.logger.Warn("Recording too short, discarding",
			slog.Duration("duration", duration),
			slog.Duration("minimum", c.config.MinDuration),
		)
		return nil, ErrRecordingTooShort
	}

	if len(chunks) == 0 {
		c.logger.Error("No audio fragments captured")
		return nil, ErrNoAudioCaptured
	}

	var total int
	for _, chunk := range chunks {
		total += len(chunk)
	}

	data := make([]byte, 0, total)
	for _, chunk := range chunks {
		data = append(data, chunk...)
	}

	format := c.format
	if format == FormatPCM {
		// Raw PCM sources get wrapped in a WAV container so the blob is
		// self-describing downstream.
		if wav, err := c.wrapPCM(data); err == nil {
			data = wav
			format = "audio/wav"
		} else {
			c.logger.Warn("Failed to wrap PCM capture, sending raw", slog.String("error", err.Error()))
		}
	}

	c.logger.Info("Recording finalized",
		slog.Duration("duration", duration),
		slog.Int("fragments", len(chunks)),
		slog.Int("bytes", len(data)),
		slog.String("format", format),
	)

	return &Recording{Data: data, Format: format, Duration: duration}, nil
}

// Release tears down the microphone stream. After Release the next
// Begin reopens the source.
func (c *Controller) Release() {
	c.mu.Lock()
	stream := c.stream
	done := c.readerDone
	c.stream = nil
	c.readerDone = nil
	c.chunks = nil
	c.state = StateIdle
	c.mu.Unlock()

	if stream == nil {
		return
	}

	if err := stream.Close(); err != nil {
		c.logger.Warn("Error closing capture stream", slog.String("error", err.Error()))
	}

	if done != nil {
		<-done
	}

	c.vis.SetInputLevel(0)
	c.logger.Info("Microphone stream released")
}

// wrapPCM puts a WAV header around raw little-endian PCM-16 bytes.
func (c *Controller) wrapPCM(data []byte) ([]byte, error) {
	n := len(data) / 2
	if n == 0 {
		return nil, fmt.Errorf("no complete samples in %d bytes", len(data))
	}

	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(uint16(data[2*i]) | uint16(data[2*i+1])<<8)
	}

	return audio.EncodeWAV(samples, c.config.SampleRate, c.config.Channels)
}

// readLoop continuously drains the stream. Fragments are retained only
// while a recording is in progress; outside a turn the stream data is
// discarded so the device can stay open. The done channel is passed in
// rather than read from the controller because Release clears the
// field before the loop exits.
func (c *Controller) readLoop(stream io.ReadCloser, done chan struct{}) {
	defer close(done)

	buf := make([]byte, c.config.FragmentSize)
	for {
		n, err := stream.Read(buf)

		if n > 0 {
			fragment := make([]byte, n)
			copy(fragment, buf[:n])
			c.ingest(fragment)
		} else if err == nil {
			c.logger.Warn("Empty fragment received, ignoring")
		}

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrClosedPipe) {
				c.logger.Warn("Capture stream read ended", slog.String("error", err.Error()))
			}
			return
		}
	}
}

// ingest appends one fragment to the in-progress recording.
func (c *Controller) ingest(fragment []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRecording {
		return
	}

	if time.Since(c.startedAt) > c.config.MaxDuration {
		if !c.maxWarned {
			c.maxWarned = true
			c.logger.Warn("Maximum recording time reached, dropping further audio",
				slog.Duration("maximum", c.config.MaxDuration),
			)
		}
		return
	}

	c.chunks = append(c.chunks, fragment)

	level := audio.GatedLevel(audio.LevelOfBytes(fragment), c.config.NoiseGate)
	c.vis.SetInputLevel(level)
}

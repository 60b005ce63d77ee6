package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arcavoice/orbe/internal/audio"
	"github.com/arcavoice/orbe/internal/visual"
)

// ErrBusy is returned when Play is called while playback is already in
// progress.
var ErrBusy = errors.New("playback already in progress")

// Config contains playback parameters
type Config struct {
	// AnalysisTick is how often the output level is recomputed during
	// playback.
	AnalysisTick time.Duration
}

// Player plays response audio through a sink while feeding amplitude
// levels to the visual driver. One playback at a time.
type Player struct {
	sink   Sink
	config Config
	vis    visual.Driver
	logger *slog.Logger

	mu      sync.Mutex
	playing bool
}

// NewPlayer creates a player over the given sink.
func NewPlayer(sink Sink, config Config, vis visual.Driver, logger *slog.Logger) *Player {
	if config.AnalysisTick <= 0 {
		config.AnalysisTick = 16 * time.Millisecond
	}
	if vis == nil {
		vis = visual.Nop{}
	}

	return &Player{
		sink:   sink,
		config: config,
		vis:    vis,
		logger: logger,
	}
}

// Playing reports whether a playback is in progress.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Play blocks until the audio has finished playing. The speaking state
// and output level are driven for the duration and always cleared on
// return, including on error.
func (p *Player) Play(ctx context.Context, data []byte) error {
	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return ErrBusy
	}
	p.playing = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.playing = false
		p.mu.Unlock()
		p.vis.SetOutputLevel(0)
		p.vis.SetSpeaking(false)
	}()

	p.vis.SetSpeaking(true)

	samples, info, err := audio.DecodeWAV(data)
	if err != nil {
		// Not analyzable; play it anyway without amplitude metering.
		p.logger.Warn("Response audio is not PCM WAV, skipping level analysis",
			slog.String("error", err.Error()),
		)
		samples, info = nil, nil
	} else {
		p.logger.Info("Starting playback",
			slog.Float64("duration_seconds", info.Duration),
			slog.Int("sample_rate", info.SampleRate),
		)
	}

	analysisCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var analysisDone chan struct{}
	if samples != nil {
		analysisDone = make(chan struct{})
		go p.analyze(analysisCtx, samples, info, analysisDone)
	}

	err = p.sink.Play(ctx, data)

	cancel()
	if analysisDone != nil {
		<-analysisDone
	}

	if err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}

	p.logger.Info("Playback finished")
	return nil
}

// analyze computes the output level over the window of samples at the
// current playback position on every tick.
func (p *Player) analyze(ctx context.Context, samples []int16, info *audio.WAVInfo, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.AnalysisTick)
	defer ticker.Stop()

	start := time.Now()
	window := int(float64(info.SampleRate*info.Channels) * p.config.AnalysisTick.Seconds())
	if window < 1 {
		window = 1
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := time.Since(start)
			if elapsed.Seconds() >= info.Duration {
				p.vis.SetOutputLevel(0)
				return
			}

			pos := int(elapsed.Seconds() * float64(info.SampleRate*info.Channels))
			end := pos + window
			if end > len(samples) {
				end = len(samples)
			}
			if pos >= end {
				p.vis.SetOutputLevel(0)
				return
			}

			p.vis.SetOutputLevel(audio.Level(samples[pos:end]))
		}
	}
}

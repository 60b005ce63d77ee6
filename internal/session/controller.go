package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/arcavoice/orbe/internal/backend"
	"github.com/arcavoice/orbe/internal/capture"
	"github.com/arcavoice/orbe/internal/conversation"
	"github.com/arcavoice/orbe/internal/metrics"
	"github.com/arcavoice/orbe/internal/presentation"
)

// State represents the session controller lifecycle
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateTranscoding
	StateTransmitting
	StateAwaitingPlayback
	StateRecovering
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateTranscoding:
		return "transcoding"
	case StateTransmitting:
		return "transmitting"
	case StateAwaitingPlayback:
		return "awaiting_playback"
	case StateRecovering:
		return "recovering"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Capturer produces one finalized recording per turn.
type Capturer interface {
	Begin(ctx context.Context) error
	End() (*capture.Recording, error)
}

// Transcoder normalizes captured audio before transmission.
type Transcoder interface {
	ToCanonicalFormat(blob []byte) []byte
}

// Backend is the remote voice-processing endpoint.
type Backend interface {
	ProcessVoice(ctx context.Context, audioBlob []byte, conversationID, language string) (*backend.VoiceResult, error)
	ClearConversation(ctx context.Context, conversationID string)
}

// AudioPlayer plays a response audio blob to completion.
type AudioPlayer interface {
	Play(ctx context.Context, data []byte) error
}

// Presenter receives conversational turns and notices for display.
type Presenter interface {
	Enqueue(t presentation.Type, text string) presentation.Message
}

// StatusFunc receives status indicator updates.
type StatusFunc func(status string)

// Config contains session parameters
type Config struct {
	// Language is the conversation language sent with every request.
	Language string
}

// Controller orchestrates one voice turn end to end: capture,
// transcode, transmit, present, play. It owns the conversation id and
// the error recovery policy. Only one turn may be in flight at a time;
// activations while busy are ignored.
type Controller struct {
	config     Config
	capturer   Capturer
	transcoder Transcoder
	backend    Backend
	player     AudioPlayer
	presenter  Presenter
	history    *conversation.History
	status     StatusFunc
	metrics    *metrics.Metrics
	logger     *slog.Logger

	mu             sync.Mutex
	state          State
	conversationID string
	active         bool
	startedAt      time.Time
}

// NewController creates a session controller.
func NewController(
	config Config,
	capturer Capturer,
	transcoder Transcoder,
	be Backend,
	player AudioPlayer,
	presenter Presenter,
	status StatusFunc,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Controller {
	if config.Language == "" {
		config.Language = "es"
	}
	if status == nil {
		status = func(string) {}
	}

	return &Controller{
		config:     config,
		capturer:   capturer,
		transcoder: transcoder,
		backend:    be,
		player:     player,
		presenter:  presenter,
		history:    &conversation.History{},
		status:     status,
		metrics:    m,
		logger:     logger,
		state:      StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ConversationID returns the current conversation id, empty when none
// has been assigned.
func (c *Controller) ConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversationID
}

// Active reports whether a turn is in flight.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// History returns the retained conversation turns, oldest first.
func (c *Controller) History() []*conversation.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.history.Turns()
}

// Activate starts capturing a new turn. While any turn is in flight
// the call is a no-op; there is no queueing and no cancellation.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateIdle {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("Activation ignored, turn in flight", slog.String("state", state.String()))
		return nil
	}
	c.state = StateCapturing
	c.active = true
	c.startedAt = time.Now()
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordTurnStarted()
	}

	if err := c.capturer.Begin(ctx); err != nil {
		c.finish()
		c.status(StatusMicError)
		c.logger.Error("Capture activation failed", slog.String("error", err.Error()))
		if c.metrics != nil {
			c.metrics.RecordTurnFailed("microphone")
		}
		return err
	}

	c.status(StatusListening)
	return nil
}

// Complete stops capturing and runs the rest of the turn: transcode,
// transmit, present the exchanged texts, play the response. It blocks
// until the turn reaches a terminal outcome and always returns the
// controller to Idle.
func (c *Controller) Complete(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateCapturing {
		state := c.state
		c.mu.Unlock()
		c.logger.Debug("Completion ignored, not capturing", slog.String("state", state.String()))
		return nil
	}
	c.mu.Unlock()

	defer c.finish()

	rec, err := c.capturer.End()
	if err != nil {
		return c.handleCaptureError(err)
	}

	if c.metrics != nil {
		c.metrics.RecordRecording(rec.Duration.Seconds())
	}

	c.setState(StateTranscoding)
	c.status(StatusProcessing)
	blob := c.transcoder.ToCanonicalFormat(rec.Data)

	c.setState(StateTransmitting)
	requestStart := time.Now()
	result, err := c.backend.ProcessVoice(ctx, blob, c.ConversationID(), c.config.Language)
	if c.metrics != nil {
		c.metrics.RecordRequest(time.Since(requestStart).Seconds())
	}

	var emptyErr *backend.EmptyResponseError
	if errors.As(err, &emptyErr) {
		// The texts still arrived; show them before surfacing the
		// missing audio as a backend error.
		c.storeResult(result)
		c.presentTexts(result)
		c.presenter.Enqueue(presentation.TypeError, kindMessages[KindSynthesis])
		c.status(StatusAudioError)
		c.logger.Error("Backend returned empty audio payload")
		if c.metrics != nil {
			c.metrics.RecordBackendError("empty_audio")
			c.metrics.RecordTurnFailed("empty_audio")
		}
		return err
	}
	if err != nil {
		return c.handleExchangeError(ctx, err)
	}

	c.storeResult(result)
	c.presentTexts(result)
	c.recordLatency(result)

	c.setState(StateAwaitingPlayback)
	if playErr := c.player.Play(ctx, result.Audio); playErr != nil {
		// Playback failures never undo the already-presented turn.
		c.logger.Error("Response playback failed", slog.String("error", playErr.Error()))
		c.status(StatusAudioError)
		if c.metrics != nil {
			c.metrics.RecordPlaybackFailure()
		}
	} else {
		c.status(StatusReady)
	}

	if c.metrics != nil {
		c.mu.Lock()
		startedAt := c.startedAt
		c.mu.Unlock()
		c.metrics.RecordTurnCompleted(time.Since(startedAt).Seconds())
	}

	return nil
}

// ResetConversation clears the conversation server-side and locally.
func (c *Controller) ResetConversation(ctx context.Context) {
	id := c.ConversationID()
	if id != "" {
		c.backend.ClearConversation(ctx, id)
	}
	c.resetConversationID()
	c.logger.Info("Conversation reset", slog.String("previous_id", id))
}

// handleCaptureError maps a finalization failure to its status and
// returns without any transmission attempt.
func (c *Controller) handleCaptureError(err error) error {
	switch {
	case errors.Is(err, capture.ErrRecordingTooShort):
		c.status(StatusTooShort)
		if c.metrics != nil {
			c.metrics.RecordRecordingDiscarded("too_short")
		}
	case errors.Is(err, capture.ErrNoAudioCaptured):
		c.status(StatusNoAudio)
		if c.metrics != nil {
			c.metrics.RecordRecordingDiscarded("no_audio")
		}
	default:
		c.status(StatusMicError)
		if c.metrics != nil {
			c.metrics.RecordTurnFailed("capture")
		}
	}
	return err
}

// handleExchangeError classifies a transmission failure and applies
// the matching recovery policy.
func (c *Controller) handleExchangeError(ctx context.Context, err error) error {
	var backendErr *backend.BackendError
	if errors.As(err, &backendErr) {
		c.handleBackendError(ctx, backendErr)
		return err
	}

	// Transport-level failure: choose a status from the message, do
	// not touch the conversation.
	status := ClassifyNetworkStatus(err.Error())
	c.status(status)
	c.logger.Error("Voice exchange failed",
		slog.String("error", err.Error()),
		slog.String("status", status),
	)
	if c.metrics != nil {
		c.metrics.RecordTurnFailed("network")
	}
	return err
}

// handleBackendError applies the per-kind recovery policy for a
// non-2xx backend response.
func (c *Controller) handleBackendError(ctx context.Context, e *backend.BackendError) {
	kind := ClassifyDetail(e.Detail)

	c.logger.Error("Backend error",
		slog.Int("status", e.Status),
		slog.String("kind", kind.String()),
		slog.String("detail", e.Detail),
	)
	if c.metrics != nil {
		c.metrics.RecordBackendError(kind.String())
		c.metrics.RecordTurnFailed(kind.String())
	}

	switch kind {
	case KindResolved:
		// The backend already cleared the history; resetting again
		// would throw away a valid id.

	case KindVocabulary:
		c.setState(StateRecovering)
		if id := c.ConversationID(); id != "" {
			c.backend.ClearConversation(ctx, id)
		}
		// The local id is nulled even when the remote clear failed, so
		// the next request starts a fresh conversation.
		c.resetConversationID()

	case KindTranscription:
		if id := c.ConversationID(); id != "" {
			c.backend.ClearConversation(ctx, id)
		}
		c.resetConversationID()
	}

	c.presenter.Enqueue(presentation.TypeError, kindMessages[kind])
	c.status(kindStatuses[kind])
}

// storeResult adopts the backend-assigned conversation id.
func (c *Controller) storeResult(result *backend.VoiceResult) {
	if result == nil || result.ConversationID == "" {
		return
	}
	c.mu.Lock()
	c.conversationID = result.ConversationID
	c.mu.Unlock()
}

// presentTexts enqueues the user transcription and the assistant
// reply, in that order, and retains both in history.
func (c *Controller) presentTexts(result *backend.VoiceResult) {
	if result == nil {
		return
	}

	if result.TranscribedText != "" {
		c.presenter.Enqueue(presentation.TypeUser, result.TranscribedText)
		c.appendTurn(conversation.RoleUser, result.TranscribedText)
	}
	if result.AssistantText != "" {
		c.presenter.Enqueue(presentation.TypeAssistant, result.AssistantText)
		c.appendTurn(conversation.RoleAssistant, result.AssistantText)
	}
}

func (c *Controller) appendTurn(role conversation.Role, text string) {
	c.mu.Lock()
	c.history.Append(conversation.NewTurn(role, text))
	c.mu.Unlock()
}

func (c *Controller) recordLatency(result *backend.VoiceResult) {
	if result == nil || result.Latency == nil {
		return
	}

	l := result.Latency
	c.logger.Info("Exchange latency",
		slog.Duration("stt", l.SpeechToText),
		slog.Duration("llm", l.LanguageModel),
		slog.Duration("tts", l.TextToSpeech),
		slog.Duration("total", l.Total),
	)

	if c.metrics != nil {
		c.metrics.RecordStageLatency("stt", l.SpeechToText.Seconds())
		c.metrics.RecordStageLatency("llm", l.LanguageModel.Seconds())
		c.metrics.RecordStageLatency("tts", l.TextToSpeech.Seconds())
		c.metrics.RecordStageLatency("total", l.Total.Seconds())
	}
}

func (c *Controller) resetConversationID() {
	c.mu.Lock()
	c.conversationID = ""
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordConversationReset()
	}
}

func (c *Controller) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// finish returns the controller to Idle and clears the activity flag.
func (c *Controller) finish() {
	c.mu.Lock()
	c.state = StateIdle
	c.active = false
	c.startedAt = time.Time{}
	c.mu.Unlock()
}

package presentation

import (
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Config contains presentation timing parameters
type Config struct {
	// CharInterval is the delay between revealed characters.
	CharInterval time.Duration
	// Fade is how long a retiring message stays in its faded state.
	Fade time.Duration
	// MessagePause is the gap between retiring one message and
	// revealing the next.
	MessagePause time.Duration
}

// DefaultConfig returns the standard presentation timings.
func DefaultConfig() Config {
	return Config{
		CharInterval: 30 * time.Millisecond,
		Fade:         2 * time.Second,
		MessagePause: 2 * time.Second,
	}
}

// Queue serializes message display: messages are revealed one at a
// time in arrival order, character by character, and the previous
// message fades into history before the next one appears. Enqueue
// never blocks; a single goroutine drives the renderer.
type Queue struct {
	config   Config
	renderer Renderer
	logger   *slog.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	pending []Message
	current *Message
	busy    bool
	history []Message
	closed  bool

	stop chan struct{}
	done chan struct{}
}

// NewQueue creates a presentation queue and starts its display loop.
func NewQueue(config Config, renderer Renderer, logger *slog.Logger) *Queue {
	if config.CharInterval <= 0 {
		config.CharInterval = 30 * time.Millisecond
	}
	if renderer == nil {
		renderer = NopRenderer{}
	}

	q := &Queue{
		config:   config,
		renderer: renderer,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	q.cond = sync.NewCond(&q.mu)

	go q.run()
	return q
}

// Enqueue appends a message for display. Messages are always shown in
// the order they were enqueued, regardless of how fast they arrive.
func (q *Queue) Enqueue(t Type, text string) Message {
	msg := NewMessage(t, text)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return msg
	}

	q.pending = append(q.pending, msg)
	q.cond.Signal()

	q.logger.Debug("Message enqueued",
		slog.String("type", t.String()),
		slog.Int("pending", len(q.pending)),
	)

	return msg
}

// History returns retired messages, oldest first.
func (q *Queue) History() []Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Message, len(q.history))
	copy(out, q.history)
	return out
}

// Quiescent reports whether the queue has nothing pending and no
// reveal in progress.
func (q *Queue) Quiescent() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending) == 0 && !q.busy
}

// Close stops the display loop. Pending messages are dropped.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	close(q.stop)
	<-q.done
}

func (q *Queue) run() {
	defer close(q.done)

	for {
		q.mu.Lock()
		for len(q.pending) == 0 && !q.closed {
			q.cond.Wait()
		}
		if q.closed {
			q.mu.Unlock()
			return
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		prev := q.current
		q.busy = true
		q.mu.Unlock()

		if prev != nil {
			if !q.retire(*prev) {
				return
			}
		}

		ok := q.reveal(next)

		q.mu.Lock()
		q.busy = false
		q.mu.Unlock()

		if !ok {
			return
		}
	}
}

// retire fades the current message out and moves it into history.
func (q *Queue) retire(msg Message) bool {
	q.renderer.FadeCurrent(msg)
	if !q.sleep(q.config.Fade) {
		return false
	}

	q.mu.Lock()
	q.history = append(q.history, msg)
	q.current = nil
	history := make([]Message, len(q.history))
	copy(history, q.history)
	q.mu.Unlock()

	q.renderer.Retire(msg, history)

	return q.sleep(q.config.MessagePause)
}

// reveal types the message out one rune at a time.
func (q *Queue) reveal(msg Message) bool {
	q.mu.Lock()
	q.current = &msg
	q.mu.Unlock()

	runes := []rune(msg.Text)
	for i := 1; i <= len(runes); i++ {
		visible := string(runes[:i])
		if i < len(runes) {
			// Hard spaces keep the partial line's width stable while
			// the tail is still being typed.
			visible = strings.ReplaceAll(visible, " ", " ")
		}
		q.renderer.ShowCurrent(msg, visible)

		if i < len(runes) && !q.sleep(q.config.CharInterval) {
			return false
		}
	}

	if len(runes) == 0 {
		q.renderer.ShowCurrent(msg, "")
	}

	return true
}

func (q *Queue) sleep(d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-q.stop:
		return false
	case <-timer.C:
		return true
	}
}

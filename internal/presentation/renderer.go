package presentation

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Renderer receives display updates from the queue. Implementations
// must tolerate rapid ShowCurrent calls during a reveal.
type Renderer interface {
	// ShowCurrent draws the live message with the given visible prefix.
	ShowCurrent(msg Message, visible string)

	// FadeCurrent marks the live message as fading out.
	FadeCurrent(msg Message)

	// Retire is called once the faded message has moved into history.
	Retire(msg Message, history []Message)
}

// NopRenderer discards all updates.
type NopRenderer struct{}

func (NopRenderer) ShowCurrent(Message, string) {}
func (NopRenderer) FadeCurrent(Message)         {}
func (NopRenderer) Retire(Message, []Message)   {}

// ANSIRenderer draws messages on a terminal, redrawing the live line
// in place and scrolling retired messages into the terminal's own
// history.
type ANSIRenderer struct {
	mu  sync.Mutex
	out io.Writer

	userStyle      lipgloss.Style
	assistantStyle lipgloss.Style
	statusStyle    lipgloss.Style
	errorStyle     lipgloss.Style
	fadedStyle     lipgloss.Style
}

// NewANSIRenderer creates a terminal renderer writing to out.
func NewANSIRenderer(out io.Writer) *ANSIRenderer {
	return &ANSIRenderer{
		out:            out,
		userStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		assistantStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
		statusStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Italic(true),
		errorStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		fadedStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Faint(true),
	}
}

func (r *ANSIRenderer) styleFor(t Type) lipgloss.Style {
	switch t {
	case TypeUser:
		return r.userStyle
	case TypeAssistant:
		return r.assistantStyle
	case TypeStatus:
		return r.statusStyle
	case TypeError:
		return r.errorStyle
	default:
		return r.assistantStyle
	}
}

func prefixFor(t Type) string {
	switch t {
	case TypeUser:
		return "tú"
	case TypeAssistant:
		return "asistente"
	case TypeStatus:
		return "estado"
	case TypeError:
		return "error"
	default:
		return "?"
	}
}

// ShowCurrent redraws the live line in place.
func (r *ANSIRenderer) ShowCurrent(msg Message, visible string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	style := r.styleFor(msg.Type)
	fmt.Fprintf(r.out, "\r\x1b[2K%s %s",
		style.Render(prefixFor(msg.Type)+":"),
		style.Render(visible),
	)
}

// FadeCurrent redraws the live line in the faded style.
func (r *ANSIRenderer) FadeCurrent(msg Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\r\x1b[2K%s %s",
		r.fadedStyle.Render(prefixFor(msg.Type)+":"),
		r.fadedStyle.Render(msg.Text),
	)
}

// Retire finishes the faded line so it scrolls into terminal history.
func (r *ANSIRenderer) Retire(msg Message, history []Message) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fmt.Fprintf(r.out, "\r\x1b[2K%s %s\n",
		r.fadedStyle.Render(prefixFor(msg.Type)+":"),
		r.fadedStyle.Render(msg.Text),
	)
}

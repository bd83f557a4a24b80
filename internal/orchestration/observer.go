package orchestration

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Observer receives structured events as a cycle progresses. Implementations
// must be safe for concurrent use; workers emit events in parallel.
type Observer interface {
	// Printf emits a free-form progress line.
	Printf(format string, v ...interface{})

	// Event emits a structured event.
	Event(event Event)
}

// Event represents a structured scheduling event.
type Event struct {
	Type      EventType
	Resource  string
	Message   string
	Timestamp time.Time
}

// EventType represents the type of scheduling event.
type EventType string

const (
	// EventResourceApplying indicates a resource operation has been dispatched.
	EventResourceApplying EventType = "resource.applying"
	// EventResourceApplied indicates a resource operation completed successfully.
	EventResourceApplied EventType = "resource.applied"
	// EventResourceUnchanged indicates a resource already matches its declaration.
	EventResourceUnchanged EventType = "resource.unchanged"
	// EventResourceFailed indicates a resource operation failed permanently.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceSkipped indicates a resource was not attempted because a
	// dependency did not reach applied.
	EventResourceSkipped EventType = "resource.skipped"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted successfully.
	EventResourceDeleted EventType = "resource.deleted"
	// EventResourceRecovered indicates an interrupted operation was
	// reconciled against the remote system.
	EventResourceRecovered EventType = "resource.recovered"
)

var (
	markApplied   = lipgloss.NewStyle().Foreground(lipgloss.Color("#22c55e")).Render("[OK]")
	markFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")).Render("[!!]")
	markSkipped   = lipgloss.NewStyle().Foreground(lipgloss.Color("#eab308")).Render("[--]")
	markUnchanged = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")).Render("[==]")
	markWorking   = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6")).Render("[..]")
)

// ConsoleObserver writes events as human-readable lines. Status markers are
// colored when the destination is a terminal.
type ConsoleObserver struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

// NewConsoleObserver creates an observer writing to stderr.
func NewConsoleObserver() *ConsoleObserver {
	return NewConsoleObserverTo(os.Stderr)
}

// NewConsoleObserverTo creates an observer writing to w. Color is enabled
// only when w is a terminal.
func NewConsoleObserverTo(w io.Writer) *ConsoleObserver {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &ConsoleObserver{out: w, color: color}
}

// Printf implements Observer.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintf(o.out, format+"\n", v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	fmt.Fprintln(o.out, o.formatEvent(event))
}

func (o *ConsoleObserver) formatEvent(event Event) string {
	var parts []string
	parts = append(parts, o.marker(event.Type), event.Resource)
	if event.Message != "" {
		parts = append(parts, event.Message)
	}
	return strings.Join(parts, " ")
}

func (o *ConsoleObserver) marker(t EventType) string {
	if !o.color {
		switch t {
		case EventResourceApplied, EventResourceDeleted, EventResourceRecovered:
			return "[OK]"
		case EventResourceFailed:
			return "[!!]"
		case EventResourceSkipped:
			return "[--]"
		case EventResourceUnchanged:
			return "[==]"
		default:
			return "[..]"
		}
	}
	switch t {
	case EventResourceApplied, EventResourceDeleted, EventResourceRecovered:
		return markApplied
	case EventResourceFailed:
		return markFailed
	case EventResourceSkipped:
		return markSkipped
	case EventResourceUnchanged:
		return markUnchanged
	default:
		return markWorking
	}
}

// NopObserver discards all events.
type NopObserver struct{}

func (NopObserver) Printf(string, ...interface{}) {}
func (NopObserver) Event(Event)                   {}

// RecordingObserver captures events for inspection in tests.
type RecordingObserver struct {
	mu     sync.Mutex
	Events []Event
	Lines  []string
}

func (o *RecordingObserver) Printf(format string, v ...interface{}) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Lines = append(o.Lines, fmt.Sprintf(format, v...))
}

func (o *RecordingObserver) Event(event Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.Events = append(o.Events, event)
}

// ByType returns captured events of one type, preserving order.
func (o *RecordingObserver) ByType(t EventType) []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []Event
	for _, e := range o.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

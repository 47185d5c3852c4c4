package progress

import (
	"fmt"
	"sync"
)

// Coalescer folds a stream of events into display lines. Consecutive status
// events (understanding, thinking) replace the previous status line so the
// user sees a live cursor; file mutations and terminal events always append
// so the audit trail of changes is permanent.
type Coalescer struct {
	mu         sync.Mutex
	lines      []string
	lastStatus int // index of the replaceable status line, -1 when none
}

// NewCoalescer creates an empty coalescer.
func NewCoalescer() *Coalescer {
	return &Coalescer{lastStatus: -1}
}

// Apply folds one event into the display and returns the rendered line.
func (c *Coalescer) Apply(event Event) string {
	line := Render(event)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Stage {
	case StageUnderstanding, StageThinking:
		if c.lastStatus >= 0 {
			c.lines[c.lastStatus] = line
		} else {
			c.lines = append(c.lines, line)
			c.lastStatus = len(c.lines) - 1
		}
	default:
		c.lines = append(c.lines, line)
		c.lastStatus = -1
	}
	return line
}

// Lines returns the current display lines.
func (c *Coalescer) Lines() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.lines))
	copy(out, c.lines)
	return out
}

// Render formats one event as a display line.
func Render(event Event) string {
	if event.Delta != nil {
		return fmt.Sprintf("%s %s", event.Delta.Action, event.Delta.Path)
	}
	if event.Message != "" {
		return fmt.Sprintf("%s: %s", event.Stage, event.Message)
	}
	return string(event.Stage)
}

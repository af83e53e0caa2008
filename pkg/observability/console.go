package observability

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aretw0/dispatch/pkg/domain"
	"github.com/muesli/termenv"
)

var kindColors = map[domain.EventKind]string{
	domain.FieldGet:    "#38bdf8",
	domain.FieldSet:    "#a78bfa",
	domain.FieldChange: "#f472b6",
	domain.OnCall:      "#34d399",
}

// Console prints one line per event, colored by kind when the terminal
// supports it.
type Console struct {
	mu      sync.Mutex
	w       io.Writer
	profile termenv.Profile
	color   bool
}

// NewConsole creates a console printer on w. With color false the output is
// plain text.
func NewConsole(w io.Writer, color bool) *Console {
	return &Console{w: w, profile: termenv.ColorProfile(), color: color}
}

// Handler returns the printing handler.
func (c *Console) Handler() domain.Handler {
	return func(_ context.Context, ev domain.Event) error {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err := fmt.Fprintln(c.w, c.format(ev))
		return err
	}
}

func (c *Console) format(ev domain.Event) string {
	kind := fmt.Sprintf("%-12s", ev.Kind())
	if c.color {
		if hex, ok := kindColors[ev.Kind()]; ok {
			kind = termenv.String(kind).Foreground(c.profile.Color(hex)).Bold().String()
		}
	}

	args := make([]string, 0, len(ev.Args()))
	for _, a := range ev.Args() {
		args = append(args, fmt.Sprint(plain(a)))
	}
	line := fmt.Sprintf("%s %s.%s(%s) by %s", kind, ev.TargetName(), ev.Operation(), strings.Join(args, ", "), ev.Trigger().Name)
	if prev, ok := ev.Kwargs()["previous"]; ok {
		line += fmt.Sprintf(" (was %v)", plain(prev))
	}
	return line
}

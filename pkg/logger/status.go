package logger

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// StatusPrinter writes single-line status messages that overwrite each other
// on the terminal, keeping the screen quiet during a run. Each message is
// padded to the length of the longest message printed so far so stale text
// from a previous update never shows through.
type StatusPrinter struct {
	out     io.Writer
	enabled bool
	longest int
	mutex   sync.Mutex
}

// NewStatusPrinter creates a status printer writing to out. When enabled is
// false every call is a no-op, which keeps captured output clean in tests
// and when stdout is not a terminal.
func NewStatusPrinter(out io.Writer, enabled bool) *StatusPrinter {
	return &StatusPrinter{
		out:     out,
		enabled: enabled,
		longest: 1,
	}
}

// Update replaces the current status line with message.
func (sp *StatusPrinter) Update(message string) {
	if !sp.enabled {
		return
	}

	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	// clear whatever was last written
	fmt.Fprintf(sp.out, "%s\r", strings.Repeat(" ", sp.longest))
	if len(message) > sp.longest {
		sp.longest = len(message)
	}
	fmt.Fprintf(sp.out, "%s\r", message)
}

// Clear removes the status line entirely.
func (sp *StatusPrinter) Clear() {
	if !sp.enabled {
		return
	}

	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	fmt.Fprintf(sp.out, "%s\r", strings.Repeat(" ", sp.longest))
}

// Println clears the status line and prints a permanent message.
func (sp *StatusPrinter) Println(message string) {
	if !sp.enabled {
		return
	}

	sp.mutex.Lock()
	defer sp.mutex.Unlock()

	fmt.Fprintf(sp.out, "%s\r", strings.Repeat(" ", sp.longest))
	fmt.Fprintln(sp.out, message)
}

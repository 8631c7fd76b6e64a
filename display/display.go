package display

import (
	"fmt"
	"io"
)

// Sink renders the most recent telemetry line. Implementations keep no
// history: each Render supersedes the previous one.
type Sink interface {
	Render(text string) error
}

// Console writes each rendered line to an io.Writer, typically stdout.
type Console struct {
	Out io.Writer
}

func (c *Console) Render(text string) error {
	_, err := fmt.Fprintln(c.Out, text)
	return err
}

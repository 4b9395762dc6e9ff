package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/mitchellh/colorstring"
	"github.com/rotisserie/eris"
)

// fields rendered by the console writer itself rather than as key=value pairs
var consoleFields = map[string]bool{
	"level":   true,
	"message": true,
	"shader":  true,
	"error":   true,
	"log":     true,
	"time":    true,
}

// ConsoleWriter renders zerolog JSON events as coloured human-readable lines
type ConsoleWriter struct {
	out      io.Writer
	colorize colorstring.Colorize
	buffer   strings.Builder
	lock     sync.Mutex
}

// NewConsoleWriter creates a console writer. Colour codes are stripped when color is false.
func NewConsoleWriter(out io.Writer, color bool) *ConsoleWriter {
	return &ConsoleWriter{
		out: out,
		colorize: colorstring.Colorize{
			Colors:  colorstring.DefaultColors,
			Disable: !color,
			Reset:   false,
		},
	}
}

func (w *ConsoleWriter) Write(p []byte) (n int, err error) {
	w.lock.Lock()
	defer w.lock.Unlock()

	var evt map[string]interface{}
	d := json.NewDecoder(bytes.NewReader(p))
	d.UseNumber()
	err = d.Decode(&evt)
	if err != nil {
		return n, eris.Wrapf(err, "cannot decode event: %s", p)
	}

	w.buffer.Reset()
	switch evt["level"] {
	case "fatal", "error":
		w.buffer.WriteString(w.colorize.Color("[red]"))
	case "warn":
		w.buffer.WriteString(w.colorize.Color("[yellow]"))
	case "debug", "trace":
		w.buffer.WriteString(w.colorize.Color("[blue]"))
	default:
		w.buffer.WriteString(w.colorize.Color("[green]"))
	}

	if shader, ok := evt["shader"].(string); ok {
		w.buffer.WriteString(shader + ": ")
	}

	if evt["level"] == "error" {
		w.buffer.WriteString("Error: ")
	}

	if msg, ok := evt["message"].(string); ok {
		w.buffer.WriteString(msg)
	}

	// Remaining fields in a stable order
	extra := make([]string, 0, len(evt))
	for name := range evt {
		if !consoleFields[name] {
			extra = append(extra, name)
		}
	}

	sort.Strings(extra)
	for _, name := range extra {
		w.buffer.WriteString(fmt.Sprintf(" %s=%v", name, evt[name]))
	}

	if errorDetails, ok := evt["error"].(string); ok {
		w.buffer.WriteString("\n")
		w.buffer.WriteString(errorDetails)
	}

	w.buffer.WriteString(w.colorize.Color("[reset]"))
	w.buffer.WriteString("\n")

	if toolLog, ok := evt["log"].(string); ok && toolLog != "" {
		for _, line := range strings.Split(strings.TrimRight(toolLog, "\n"), "\n") {
			w.buffer.WriteString("    ")
			w.buffer.WriteString(line)
			w.buffer.WriteString("\n")
		}
	}

	if _, err := io.WriteString(w.out, w.buffer.String()); err != nil {
		return 0, err
	}

	return len(p), nil
}

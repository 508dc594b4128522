package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes colored CLI output. Color is disabled when NO_COLOR is set
// or the output is not a terminal.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a printer writing to out and err.
func New(out, err io.Writer) *Printer {
	return &Printer{out: out, err: err}
}

// Stdout creates a printer for the process's standard streams.
func Stdout() *Printer {
	return New(os.Stdout, os.Stderr)
}

// Success prints a success message in green with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(p.out, msg)
}

// Info prints an informational message in the default color.
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Warning prints a warning message in yellow with a warning prefix.
func (p *Printer) Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(p.out, msg)
}

// User prints what the simulated user said.
func (p *Printer) User(format string, a ...any) {
	cyan.Fprintf(p.out, "> "+format, a...)
}

// System prints what the system answered.
func (p *Printer) System(format string, a ...any) {
	green.Fprintf(p.out, "< "+format, a...)
}

// Detail prints secondary information dimmed.
func (p *Printer) Detail(format string, a ...any) {
	faint.Fprintf(p.out, format, a...)
}

// Error prints a formatted error with title, explanation and suggestions to the
// error stream and returns a simple error for Cobra.
func (p *Printer) Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(p.err, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(p.err, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(p.err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	// Return simple error for Cobra (won't be printed due to SilenceErrors)
	return fmt.Errorf("%s", title)
}

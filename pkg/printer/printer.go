// Package printer writes command output. Results go to Out; notices and
// errors go to Err so that piped output stays machine readable.
package printer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"techdocs/pkg/apiclient"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

type Printer struct {
	Out io.Writer
	Err io.Writer
}

func New(out, errOut io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	mu := &sync.Mutex{}
	return &Printer{Out: &syncWriter{mu: mu, w: out}, Err: &syncWriter{mu: mu, w: errOut}}
}

// syncWriter serializes writes; background listeners print alongside
// commands.
type syncWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}

// Success prints a green message with a checkmark prefix.
func (p *Printer) Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprintln(p.Err, msg)
}

func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Err, format+"\n", a...)
}

func (p *Printer) Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprintln(p.Err, msg)
}

func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Err, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions, and returns an error that
// carries only the title. Commands return it to cobra with SilenceErrors set.
func (p *Printer) Error(title, explanation string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n", title)
	if explanation != "" {
		fmt.Fprintf(p.Err, "\n%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintln(p.Err)
		if len(suggestions) == 1 {
			fmt.Fprintf(p.Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.Err, "Either:\n")
			for i, s := range suggestions {
				fmt.Fprintf(p.Err, "  %d. %s\n", i+1, s)
			}
		}
	}
	return &reportedError{title: title}
}

// reportedError has already been shown to the user.
type reportedError struct {
	title string
}

func (e *reportedError) Error() string { return e.title }

// Reported tells whether err was produced by Error or Fail and so needs no
// further output.
func Reported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// Fail reports err under title. The explanation is the server's message when
// there is one.
func (p *Printer) Fail(title string, err error, suggestions ...string) error {
	msg := apiclient.Message(err)
	if msg == "" {
		msg = err.Error()
	}
	if errors.Is(err, apiclient.ErrUnauthorized) && len(suggestions) == 0 {
		suggestions = []string{"Run: techdocs login"}
	}
	return p.Error(title, msg, suggestions)
}

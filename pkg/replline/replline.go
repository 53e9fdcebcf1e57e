// Package replline is the default line editor for the debugger REPL: a
// bufio.Scanner reader paired with an in-memory ring-buffer history. No
// readline-style library with line editing and history turned up among
// the project's example dependencies, so this is a plain stdlib
// implementation behind the same interface a richer editor would satisfy.
package replline

import (
	"bufio"
	"fmt"
	"io"
)

// Editor reads one line at a time from an underlying reader, echoing the
// given prompt, and remembers up to a configurable number of past lines.
type Editor struct {
	scanner *bufio.Scanner
	out     io.Writer

	history     []string
	historyCap  int
	historyNext int
}

// New returns an Editor reading from in and writing prompts to out. The
// default history limit is 1024 entries, matching the interactive
// debugger's documented history size.
func New(in io.Reader, out io.Writer) *Editor {
	e := &Editor{
		scanner: bufio.NewScanner(in),
		out:     out,
	}
	_ = e.SetHistoryLimit(1024)
	return e
}

// SetHistoryLimit changes how many lines of history the editor retains.
// It returns an error if n is not positive, standing in for the resource
// failure a real line-editing library's history allocation could report.
func (e *Editor) SetHistoryLimit(n int) error {
	if n <= 0 {
		return fmt.Errorf("replline: history limit must be positive, have %d", n)
	}
	e.historyCap = n
	e.history = make([]string, 0, n)
	e.historyNext = 0
	return nil
}

// AddHistory appends a line to the ring buffer, evicting the oldest entry
// once the buffer is full.
func (e *Editor) AddHistory(line string) {
	if e.historyCap == 0 {
		return
	}
	if len(e.history) < e.historyCap {
		e.history = append(e.history, line)
		return
	}
	e.history[e.historyNext] = line
	e.historyNext = (e.historyNext + 1) % e.historyCap
}

// History returns the retained lines, oldest first.
func (e *Editor) History() []string {
	if len(e.history) < e.historyCap {
		out := make([]string, len(e.history))
		copy(out, e.history)
		return out
	}
	out := make([]string, 0, len(e.history))
	out = append(out, e.history[e.historyNext:]...)
	out = append(out, e.history[:e.historyNext]...)
	return out
}

// ReadLine prints prompt, then reads and returns the next line. ok is
// false on end of input (the operator's quit signal, per the REPL's
// contract), in which case line is empty.
func (e *Editor) ReadLine(prompt string) (line string, ok bool) {
	if e.out != nil {
		fmt.Fprint(e.out, prompt)
	}

	if !e.scanner.Scan() {
		return "", false
	}

	line = e.scanner.Text()
	e.AddHistory(line)
	return line, true
}

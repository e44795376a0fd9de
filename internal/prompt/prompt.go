// File: internal/prompt/prompt.go
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"
)

// RetryMessage is printed after an answer fails validation.
const RetryMessage = "  -> Please try again."

// Validator reports whether a trimmed answer is acceptable.
type Validator func(answer string) bool

// Prompter reads operator answers one line at a time.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer

	// pending holds the result of a read that outlived a cancelled Ask. The
	// next Ask takes its line instead of starting a second read.
	pending chan readResult
}

type readResult struct {
	line string
	err  error
}

// New returns a Prompter reading from in and writing prompts to out. A
// Prompter is not safe for concurrent use.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Ask prints prompt and returns the next line with surrounding whitespace
// removed. A final line without a newline is returned as is; io.EOF is only
// returned when nothing was read. Cancelling ctx returns ctx.Err() at once,
// even while the read is blocked.
func (p *Prompter) Ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := fmt.Fprint(p.out, prompt); err != nil {
		return "", fmt.Errorf("failed to write prompt: %w", err)
	}
	if p.pending == nil {
		p.pending = make(chan readResult, 1)
		go p.readLine(p.pending)
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-p.pending:
		p.pending = nil
		if res.err != nil {
			if errors.Is(res.err, io.EOF) && res.line != "" {
				return strings.TrimSpace(res.line), nil
			}
			return "", res.err
		}
		return strings.TrimSpace(res.line), nil
	}
}

// readLine performs one read and exits.
func (p *Prompter) readLine(ch chan<- readResult) {
	line, err := p.in.ReadString('\n')
	ch <- readResult{line: line, err: err}
}

// AskValid repeats prompt until valid accepts the answer.
func (p *Prompter) AskValid(ctx context.Context, prompt string, valid Validator) (string, error) {
	for {
		answer, err := p.Ask(ctx, prompt)
		if err != nil {
			return "", err
		}
		if valid(answer) {
			return answer, nil
		}
		fmt.Fprintln(p.out, RetryMessage)
	}
}

// Week accepts A or B in either case.
func Week(s string) bool {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s == "A" || s == "B"
}

// Mode accepts 1 (confirm before save) or 2 (unattended).
func Mode(s string) bool {
	return s == "1" || s == "2"
}

// Name accepts anything longer than one character.
func Name(s string) bool {
	return len(s) > 1
}

// Email accepts anything containing both an at sign and a dot.
func Email(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}

// Phone accepts answers with at least six digits, ignoring any formatting.
func Phone(s string) bool {
	digits := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	return digits >= 6
}

// NotEmpty accepts any non-empty answer.
func NotEmpty(s string) bool {
	return s != ""
}

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

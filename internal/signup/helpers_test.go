// File: internal/signup/helpers_test.go
package signup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/config"
	"github.com/xkilldash9x/autosign/internal/locator"
)

// fakePage is an in-memory stand-in for a browser tab. Waits never block:
// a selector either satisfies its condition now or the wait times out.
type fakePage struct {
	mu sync.Mutex

	url        string
	present    map[string]bool
	clickable  map[string]bool
	checked    map[string]bool
	onClick    map[string]func()
	clickErr   map[string]error
	navTargets map[string]string
	onReload   func(n int)
	evalResult []byte
	evalErr    error

	navigations []string
	clicks      []string
	typed       map[string]string
	scrolled    []string
	reloads     int
	scripts     []string
}

var _ Page = (*fakePage)(nil)

func newFakePage() *fakePage {
	return &fakePage{
		present:    map[string]bool{},
		clickable:  map[string]bool{},
		checked:    map[string]bool{},
		onClick:    map[string]func(){},
		clickErr:   map[string]error{},
		navTargets: map[string]string{},
		typed:      map[string]string{},
	}
}

func (f *fakePage) Wait(ctx context.Context, xpath string, cond locator.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	switch cond {
	case locator.Present:
		if f.present[xpath] || f.clickable[xpath] {
			return nil
		}
	case locator.Clickable:
		if f.clickable[xpath] {
			return nil
		}
	}
	return context.DeadlineExceeded
}

func (f *fakePage) WaitGone(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.present[xpath] || f.clickable[xpath] {
		return context.DeadlineExceeded
	}
	return nil
}

func (f *fakePage) ScrollIntoView(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scrolled = append(f.scrolled, xpath)
	return nil
}

func (f *fakePage) Click(ctx context.Context, xpath string) error {
	f.mu.Lock()
	if err := f.clickErr[xpath]; err != nil {
		f.mu.Unlock()
		return err
	}
	f.clicks = append(f.clicks, xpath)
	fn := f.onClick[xpath]
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (f *fakePage) Type(ctx context.Context, xpath string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.present[xpath] && !f.clickable[xpath] {
		return fmt.Errorf("no node for %s", xpath)
	}
	f.typed[xpath] = text
	return nil
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigations = append(f.navigations, url)
	if target, ok := f.navTargets[url]; ok {
		f.url = target
	} else {
		f.url = url
	}
	return nil
}

func (f *fakePage) Reload(ctx context.Context) error {
	f.mu.Lock()
	f.reloads++
	n := f.reloads
	fn := f.onReload
	f.mu.Unlock()
	if fn != nil {
		fn(n)
	}
	return nil
}

func (f *fakePage) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakePage) WaitURLContains(ctx context.Context, fragment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(f.url, fragment) {
		return nil
	}
	return context.DeadlineExceeded
}

func (f *fakePage) Checked(ctx context.Context, xpath string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.checked[xpath]
	if !ok {
		return false, locator.ErrNotFound
	}
	return v, nil
}

func (f *fakePage) Evaluate(ctx context.Context, script string, out *[]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts = append(f.scripts, script)
	if f.evalErr != nil {
		return f.evalErr
	}
	*out = append([]byte(nil), f.evalResult...)
	return nil
}

// fakeShots records screenshot labels in order.
type fakeShots struct {
	mu     sync.Mutex
	labels []string
}

func (s *fakeShots) Shot(ctx context.Context, label string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels = append(s.labels, label)
	return label
}

func (s *fakeShots) Labels() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.labels...)
}

// fakePrompter answers prompts from a queue and then reports EOF.
type fakePrompter struct {
	answers []string
	asked   []string
}

func (p *fakePrompter) Ask(ctx context.Context, prompt string) (string, error) {
	p.asked = append(p.asked, prompt)
	if len(p.answers) == 0 {
		return "", io.EOF
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a, nil
}

// testHarness wires a fake page into an Env whose sleeps are recorded, not slept.
type testHarness struct {
	page   *fakePage
	shots  *fakeShots
	out    *bytes.Buffer
	env    *Env
	sleeps []time.Duration
}

func newHarness(logger *zap.Logger) *testHarness {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &testHarness{page: newFakePage(), shots: &fakeShots{}, out: &bytes.Buffer{}}
	h.env = NewEnv(h.page, h.shots, config.NewDefaultConfig().Timing, h.out, logger)
	h.env.Sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

// makeRows builds n rows titled "Row N"; available lists the indices that
// offer Sign Up, every other row is FULL.
func makeRows(n int, available ...int) []Row {
	open := map[int]bool{}
	for _, i := range available {
		open[i] = true
	}
	rows := make([]Row, n)
	for i := range rows {
		idx := i + 1
		ctl := Control{Text: "FULL", Class: "btn btn-full", Enabled: true}
		if open[idx] {
			ctl = Control{Text: "SIGN UP", Class: "btn btn-signup", Enabled: true}
		}
		rows[i] = Row{Index: idx, Title: fmt.Sprintf("Row %d", idx), Control: ctl}
	}
	return rows
}

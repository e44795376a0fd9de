// File: internal/orchestrator/helpers_test.go
package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/config"
	"github.com/xkilldash9x/autosign/internal/locator"
	"github.com/xkilldash9x/autosign/internal/prompt"
)

const groupURL = "https://signup.com/group/581591834043"

var runStart = time.Date(2026, 10, 19, 10, 15, 0, 0, time.UTC)

// fakeBrowser is a permissive page: every selector resolves at once unless it
// contains one of the absent fragments. Clicking the entry link lands on the
// invitation page.
type fakeBrowser struct {
	mu sync.Mutex

	url    string
	absent []string
	rows   []byte
	// stuck keeps the tab on the group page whatever is clicked or opened.
	stuck      bool
	evalErr    error
	onNavigate func()
	onEvaluate func()

	clicks []string
	typed  map[string]string
	closed bool
}

var _ Browser = (*fakeBrowser)(nil)

func newFakeBrowser(rows []byte, absent ...string) *fakeBrowser {
	return &fakeBrowser{
		rows:   rows,
		typed:  map[string]string{},
		absent: append([]string{"OverflowMoreJobs", "dayRow", "'expand'"}, absent...),
	}
}

func (f *fakeBrowser) isAbsent(xpath string) bool {
	for _, frag := range f.absent {
		if strings.Contains(xpath, frag) {
			return true
		}
	}
	return false
}

func (f *fakeBrowser) Wait(ctx context.Context, xpath string, cond locator.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isAbsent(xpath) {
		return context.DeadlineExceeded
	}
	return nil
}

func (f *fakeBrowser) WaitGone(ctx context.Context, xpath string) error { return nil }

func (f *fakeBrowser) ScrollIntoView(ctx context.Context, xpath string) error { return nil }

func (f *fakeBrowser) Click(ctx context.Context, xpath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, xpath)
	if !f.stuck && strings.Contains(xpath, "/login/entry/") {
		f.url = "https://signup.com/client/invitation2/secure/9140767160102/true"
	}
	return nil
}

func (f *fakeBrowser) Type(ctx context.Context, xpath string, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed[xpath] = text
	return nil
}

func (f *fakeBrowser) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	if f.stuck {
		f.url = groupURL
	} else {
		f.url = url
	}
	fn := f.onNavigate
	f.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (f *fakeBrowser) Reload(ctx context.Context) error { return nil }

func (f *fakeBrowser) CurrentURL(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.url, nil
}

func (f *fakeBrowser) WaitURLContains(ctx context.Context, fragment string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.Contains(f.url, fragment) {
		return nil
	}
	return context.DeadlineExceeded
}

func (f *fakeBrowser) Checked(ctx context.Context, xpath string) (bool, error) {
	return false, nil
}

func (f *fakeBrowser) Evaluate(ctx context.Context, script string, out *[]byte) error {
	if f.onEvaluate != nil {
		f.onEvaluate()
	}
	if f.evalErr != nil {
		return f.evalErr
	}
	*out = append([]byte(nil), f.rows...)
	return nil
}

func (f *fakeBrowser) Screenshot(ctx context.Context) ([]byte, error) {
	return []byte("\x89PNG"), nil
}

func (f *fakeBrowser) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeBrowser) Clicked(fragment string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.clicks {
		if strings.Contains(c, fragment) {
			return true
		}
	}
	return false
}

// rowsJSON renders what the row script returns for n rows titled "Event N";
// the listed indices offer SIGN UP and every other row is FULL.
func rowsJSON(t *testing.T, n int, available ...int) []byte {
	t.Helper()
	open := map[int]bool{}
	for _, i := range available {
		open[i] = true
	}
	type snapshot struct {
		Index       int    `json:"index"`
		HTML        string `json:"html"`
		Text        string `json:"text"`
		ControlText string `json:"control_text"`
	}
	snaps := make([]snapshot, 0, n)
	for i := 1; i <= n; i++ {
		text := "FULL"
		if open[i] {
			text = "SIGN UP"
		}
		html := fmt.Sprintf(`<div class="assignment-widget" data-autosign-row="%d"><a class="spot-title">Event %d</a><button class="btn" data-autosign-ctl="%d">%s</button></div>`, i, i, i, text)
		snaps = append(snaps, snapshot{Index: i, HTML: html, Text: fmt.Sprintf("Event %d\n%s", i, text), ControlText: text})
	}
	b, err := jsoniter.Marshal(snaps)
	require.NoError(t, err)
	return b
}

// harness runs an Orchestrator against a fakeBrowser, an in-memory
// filesystem and scripted stdin.
type harness struct {
	cfg     *config.Config
	browser *fakeBrowser
	fs      afero.Fs
	out     *bytes.Buffer

	mu     sync.Mutex
	sleeps []time.Duration

	launchErr error
}

func newHarness(b *fakeBrowser) *harness {
	cfg := config.NewDefaultConfig()
	cfg.Screenshots.BaseDir = "shots"
	return &harness{cfg: cfg, browser: b, fs: afero.NewMemMapFs(), out: &bytes.Buffer{}}
}

func (h *harness) orchestrator(t *testing.T, stdin string) *Orchestrator {
	t.Helper()
	o, err := New(h.cfg, zap.NewNop(), prompt.New(strings.NewReader(stdin), h.out), h.out,
		WithFs(h.fs),
		WithClock(func() time.Time { return runStart }),
		WithSleep(func(ctx context.Context, d time.Duration) error {
			h.mu.Lock()
			h.sleeps = append(h.sleeps, d)
			h.mu.Unlock()
			return ctx.Err()
		}),
		WithLauncher(func(ctx context.Context, cfg config.BrowserConfig, logger *zap.Logger) (Browser, error) {
			if h.launchErr != nil {
				return nil, h.launchErr
			}
			return h.browser, nil
		}),
	)
	require.NoError(t, err)
	return o
}

// shotLabels lists the screenshots written so far, in sequence order.
func (h *harness) shotLabels(t *testing.T) []string {
	t.Helper()
	dir := path.Join("shots", h.cfg.Run.ShotsSubdir, runStart.Format("20060102_150405"))
	infos, err := afero.ReadDir(h.fs, dir)
	require.NoError(t, err)
	labels := make([]string, 0, len(infos))
	for _, info := range infos {
		name := strings.TrimSuffix(info.Name(), ".png")
		labels = append(labels, name[strings.Index(name, "_")+1:])
	}
	return labels
}

func (h *harness) slept(d time.Duration) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, s := range h.sleeps {
		if s == d {
			return true
		}
	}
	return false
}

// answers builds operator input for week, mode, the participant and prefs.
func answers(week, mode, prefs string, extra ...string) string {
	lines := append([]string{week, mode, "Jane Citizen", "jane@example.com", "0400 123 456", "1234", prefs}, extra...)
	return strings.Join(lines, "\n") + "\n"
}

// File: internal/audit/recorder.go
package audit

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// DirLayout is the timestamp layout of a session directory name.
const DirLayout = "20060102_150405"

// Capturer produces a PNG of the current viewport.
type Capturer interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Recorder writes numbered, labeled screenshots into one session directory.
// Writes are best-effort: failures are logged and never returned.
type Recorder struct {
	fs       afero.Fs
	capturer Capturer
	logger   *zap.Logger
	out      io.Writer
	dir      string

	mu  sync.Mutex
	seq int
}

// Options configures a Recorder.
type Options struct {
	BaseDir string
	// Subdir optionally namespaces sessions under BaseDir.
	Subdir string
	// Start names the session directory, at seconds resolution.
	Start time.Time
	// Out receives one "[snap] path" line per successful shot. May be nil.
	Out io.Writer
}

// NewRecorder creates the session directory and returns a Recorder bound to it.
func NewRecorder(fs afero.Fs, capturer Capturer, logger *zap.Logger, opts Options) (*Recorder, error) {
	base := opts.BaseDir
	if opts.Subdir != "" {
		base = filepath.Join(base, opts.Subdir)
	}
	dir := filepath.Join(base, opts.Start.Format(DirLayout))
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create screenshot directory %s: %w", dir, err)
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	return &Recorder{
		fs:       fs,
		capturer: capturer,
		logger:   logger.Named("audit"),
		out:      out,
		dir:      dir,
	}, nil
}

// Dir returns the session directory.
func (r *Recorder) Dir() string { return r.dir }

// Count returns how many shots have been attempted.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq
}

// Shot captures the viewport as "NN_label.png" and returns the written path,
// or "" if the capture or the write failed. The sequence number advances
// either way.
func (r *Recorder) Shot(ctx context.Context, label string) string {
	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	path := filepath.Join(r.dir, fmt.Sprintf("%02d_%s.png", seq, label))

	buf, err := r.capturer.Screenshot(ctx)
	if err != nil {
		r.logger.Warn("Screenshot capture failed", zap.String("label", label), zap.Error(err))
		fmt.Fprintf(r.out, "[snap] failed: %v\n", err)
		return ""
	}
	if err := afero.WriteFile(r.fs, path, buf, 0o644); err != nil {
		r.logger.Warn("Screenshot write failed", zap.String("path", path), zap.Error(err))
		fmt.Fprintf(r.out, "[snap] failed: %v\n", err)
		return ""
	}

	r.logger.Debug("Screenshot saved", zap.String("path", path), zap.Int("bytes", len(buf)))
	fmt.Fprintf(r.out, "[snap] %s\n", path)
	return path
}

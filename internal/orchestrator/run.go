// File: internal/orchestrator/run.go
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/audit"
	"github.com/xkilldash9x/autosign/internal/observability"
	"github.com/xkilldash9x/autosign/internal/signup"
)

// session is the browser and recorder of one run.
type session struct {
	browser Browser
	shots   *audit.Recorder
	env     *signup.Env
	logger  *zap.Logger
}

// Run executes one run. The returned error is non-nil only when the run could
// not start (bad input, no browser, no screenshot directory) or was
// interrupted; every outcome of the flow itself is reported, not returned.
func (o *Orchestrator) Run(ctx context.Context) (Outcome, error) {
	logger, _ := observability.ForRun(o.logger)
	logger.Info("Run started", zap.Bool("start_only", o.cfg.Run.StartOnly), zap.Bool("dry_run", o.cfg.Run.DryRun))
	fmt.Fprintln(o.out, Banner)

	if o.cfg.Run.StartOnly {
		return o.runStartOnly(ctx, logger)
	}

	req, err := o.CollectRequest(ctx)
	if err != nil {
		return OutcomeFailed, fmt.Errorf("failed to collect operator input: %w", err)
	}
	return o.runFull(ctx, logger, req)
}

func (o *Orchestrator) open(ctx context.Context, logger *zap.Logger) (*session, error) {
	b, err := o.launch(ctx, o.cfg.Browser, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	shots, err := audit.NewRecorder(o.fs, b, logger, audit.Options{
		BaseDir: o.cfg.Screenshots.BaseDir,
		Subdir:  o.cfg.Run.ShotsSubdir,
		Start:   o.now(),
		Out:     o.out,
	})
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	env := signup.NewEnv(b, shots, o.cfg.Timing, o.out, logger)
	env.Sleep = o.sleep
	logger.Info("Run started", zap.String("screenshots", shots.Dir()))
	return &session{browser: b, shots: shots, env: env, logger: logger}, nil
}

// finish waits out the exit grace so the last page stays visible, then
// closes the browser.
func (o *Orchestrator) finish(ctx context.Context, s *session, grace time.Duration, outcome *Outcome) {
	s.logger.Info("Run finished",
		zap.String("outcome", string(*outcome)),
		zap.Int("screenshots", s.shots.Count()))
	_ = o.sleep(ctx, grace)
	if err := s.browser.Close(); err != nil {
		s.logger.Warn("Failed to close browser", zap.Error(err))
	}
}

func (o *Orchestrator) runFull(ctx context.Context, logger *zap.Logger, req *Request) (outcome Outcome, err error) {
	s, err := o.open(ctx, logger)
	if err != nil {
		return OutcomeFailed, err
	}
	defer o.finish(ctx, s, o.cfg.Timing.ExitGrace, &outcome)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Run panicked", zap.Any("panic", r), zap.Stack("stack"))
			outcome, err = o.conclude(ctx, s, "exception", fmt.Errorf("panic: %v", r))
		}
	}()

	outcome, err = o.signUp(ctx, s, req)
	if err != nil {
		return o.conclude(ctx, s, "exception", err)
	}
	return outcome, nil
}

// signUp is the full flow. Expected endings come back as an Outcome with a nil
// error; anything else is an error for the catch-all.
func (o *Orchestrator) signUp(ctx context.Context, s *session, req *Request) (Outcome, error) {
	if err := signup.NewPoller(s.env, o.cfg.Site).Run(ctx); err != nil {
		if errors.Is(err, signup.ErrPollTimeout) {
			fmt.Fprintln(o.out, "[error] Timed out waiting for the orange 'View' button.")
			return OutcomePollTimeout, nil
		}
		return "", err
	}

	norm := signup.NewNormalizer(s.env)
	norm.ContinueAs(ctx)
	norm.CheckInvitationURL(ctx, o.cfg.Site.InvitationURLHint)
	norm.Normalize(ctx)

	s.shots.Shot(ctx, "preference_index_mode_list")
	rows, err := signup.NewCollector(s.env).Collect(ctx)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		fmt.Fprintln(o.out, "[result] No assignment rows found. (Filters? Day collapsed?)")
		s.shots.Shot(ctx, "no_assignment_rows")
		s.logger.Warn("Invitation page had no rows", zap.Error(signup.ErrNoRows))
		return OutcomeNoRows, nil
	}
	fmt.Fprintf(o.out, "[info] Detected %d assignment rows.\n", len(rows))

	sel, err := signup.NewResolver(s.env, req.Catalog, o.prompter).Resolve(ctx, req.Prefs, rows)
	switch {
	case errors.Is(err, signup.ErrNothingAvailable):
		return OutcomeNothingAvailable, nil
	case errors.Is(err, signup.ErrCancelled):
		return OutcomeCancelled, nil
	case err != nil:
		return "", err
	}
	s.logger.Info("Row selected",
		zap.Int("number", sel.Number), zap.String("title", sel.Title), zap.Bool("manual", sel.Manual))

	if o.cfg.Run.DryRun {
		fmt.Fprintln(o.out, "[dry-run] stopping with sign-up modal open.")
		s.shots.Shot(ctx, "dry_run_modal_open")
		return OutcomeDryRun, nil
	}

	form := signup.NewFormFiller(s.env, o.prompter)
	if err := form.IdentifyAndConfirm(ctx, req.Participant.Email); err != nil {
		return "", err
	}
	if err := form.Fill(ctx, req.Participant, req.ConfirmBeforeSave, Summary(req, sel)); err != nil {
		if errors.Is(err, signup.ErrAborted) {
			return OutcomeAborted, nil
		}
		return "", err
	}

	if err := o.sleep(ctx, o.cfg.Timing.PostSaveSettle); err != nil {
		return "", err
	}
	s.shots.Shot(ctx, "final_state")
	fmt.Fprintln(o.out, "✓ Completed sign-up.")
	return OutcomeCompleted, nil
}

// runStartOnly walks the group page into the invitation and stops there.
func (o *Orchestrator) runStartOnly(ctx context.Context, logger *zap.Logger) (outcome Outcome, err error) {
	s, err := o.open(ctx, logger)
	if err != nil {
		return OutcomeFailed, err
	}
	defer o.finish(ctx, s, o.cfg.Timing.StartOnlyGrace, &outcome)
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Start-only run panicked", zap.Any("panic", r), zap.Stack("stack"))
			outcome, err = o.conclude(ctx, s, "start_only_exception", fmt.Errorf("panic: %v", r))
		}
	}()

	if err := signup.NewPoller(s.env, o.cfg.Site).Run(ctx); err != nil {
		if errors.Is(err, signup.ErrPollTimeout) {
			fmt.Fprintln(o.out, "[error] Timed out waiting for the orange 'View' button.")
			return OutcomePollTimeout, nil
		}
		return o.conclude(ctx, s, "start_only_exception", err)
	}
	signup.NewNormalizer(s.env).ContinueAs(ctx)
	s.shots.Shot(ctx, "start_only_invitation_page")
	fmt.Fprintln(o.out, "[start-only] Reached invitation page. Exiting.")
	return OutcomeReachedInvitation, nil
}

// conclude is the catch-all for a failed run. A *signup.StepError already took
// its own screenshot; anything else gets one under label. Interruption is
// passed through so the caller can exit quietly.
func (o *Orchestrator) conclude(ctx context.Context, s *session, label string, err error) (Outcome, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		s.logger.Warn("Run interrupted", zap.Error(err))
		return OutcomeInterrupted, ctxErr
	}
	fmt.Fprintf(o.out, "[exception] %v\n", err)
	s.logger.Error("Run failed", zap.Error(err))

	// A StepError with a label has already recorded its own failure shot.
	var stepErr *signup.StepError
	if !errors.As(err, &stepErr) || stepErr.Label == "" {
		s.shots.Shot(ctx, label)
	}
	return OutcomeFailed, nil
}

// File: internal/signup/form.go
package signup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/locator"
)

// Participant is the operator's identity, entered once per run.
type Participant struct {
	Name  string
	Email string
	Phone string
	Bib   string
}

// FormFiller completes the identify, confirm and participant modals that
// follow a Sign Up click.
type FormFiller struct {
	env      *Env
	prompter Prompter
	logger   *zap.Logger
}

// NewFormFiller returns a FormFiller.
func NewFormFiller(env *Env, prompter Prompter) *FormFiller {
	return &FormFiller{env: env, prompter: prompter, logger: env.Logger.Named("form")}
}

// IdentifyAndConfirm enters email in the identify modal, continues and then
// confirms. A missing control is a *StepError.
func (f *FormFiller) IdentifyAndConfirm(ctx context.Context, email string) error {
	f.env.Shots.Shot(ctx, "identify_modal_open")
	if _, err := f.env.Locator.Type(ctx, identifyEmailInputs, email, f.env.Timing.Wait); err != nil {
		return f.fail(ctx, "identify", "identify_email_not_found", "Email input not found on Identify modal.", err)
	}
	f.env.Shots.Shot(ctx, "identify_email_filled")

	if !f.env.Locator.ClickAny(ctx, continueButtons, f.env.Timing.Wait) {
		return f.fail(ctx, "identify", "identify_continue_missing", "Continue button not found on Identify modal.", missing(ctx))
	}

	f.env.Shots.Shot(ctx, "confirm_modal_open")
	if !f.env.Locator.ClickAny(ctx, confirmButtons, f.env.Timing.Wait) {
		return f.fail(ctx, "confirm", "confirm_button_missing", "Confirm button not found.", missing(ctx))
	}
	f.env.Shots.Shot(ctx, "confirm_clicked")
	return nil
}

// Fill populates the participant form and clicks Save and Done. With
// confirm set, summary is shown and the operator must answer y or yes;
// anything else returns ErrAborted with nothing submitted.
func (f *FormFiller) Fill(ctx context.Context, p Participant, confirm bool, summary string) error {
	f.env.Shots.Shot(ctx, "participant_form_open")

	fields := []struct {
		name   string
		labels []string
		value  string
	}{
		{name: "name", labels: []string{"Name"}, value: p.Name},
		{name: "email", labels: []string{"Email"}, value: p.Email},
		{name: "phone", labels: []string{"Phone"}, value: p.Phone},
		{name: "bib", labels: []string{"ONE Bib", "Bib"}, value: p.Bib},
	}
	for _, field := range fields {
		candidates := make([]string, 0, len(field.labels))
		for _, label := range field.labels {
			candidates = append(candidates, fieldXPath(label))
		}
		if _, err := f.env.Locator.Type(ctx, candidates, field.value, f.env.Timing.Wait); err != nil {
			msg := fmt.Sprintf("Participant field %q not found.", field.labels[len(field.labels)-1])
			return f.fail(ctx, "participant_form", "participant_field_missing", msg, err)
		}
		f.logger.Debug("Filled participant field", zap.String("field", field.name))
	}
	f.env.Shots.Shot(ctx, "participant_form_filled")

	if confirm {
		fmt.Fprintln(f.env.Out, "\n=== TEST MODE: Review selection before saving ===")
		fmt.Fprintln(f.env.Out, summary)
		resp, err := f.prompter.Ask(ctx, "Proceed to 'Save and Done'? [y/N]: ")
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		resp = strings.ToLower(strings.TrimSpace(resp))
		if resp != "y" && resp != "yes" {
			fmt.Fprintln(f.env.Out, "Aborted before save. (Nothing submitted.)")
			f.env.Shots.Shot(ctx, "aborted_before_save")
			return ErrAborted
		}
	}

	if !f.env.Locator.ClickAny(ctx, saveButtons, f.env.Timing.Wait) {
		return f.fail(ctx, "save", "save_and_done_missing", "Save and Done not found.", missing(ctx))
	}
	f.env.Shots.Shot(ctx, "save_and_done_clicked")
	f.logger.Info("Participant form saved")
	return nil
}

func (f *FormFiller) fail(ctx context.Context, step, label, msg string, err error) error {
	f.env.Shots.Shot(ctx, label)
	f.logger.Error(msg, zap.String("step", step), zap.Error(err))
	return &StepError{Step: step, Label: label, Msg: msg, Err: err}
}

// missing is the cause recorded when a ClickAny found nothing.
func missing(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return locator.ErrNotFound
}

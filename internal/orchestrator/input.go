// File: internal/orchestrator/input.go
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/catalog"
	"github.com/xkilldash9x/autosign/internal/prompt"
	"github.com/xkilldash9x/autosign/internal/signup"
)

// Request is everything the operator enters before the browser opens.
type Request struct {
	Catalog *catalog.Catalog
	// ConfirmBeforeSave is true in test mode.
	ConfirmBeforeSave bool
	Participant       signup.Participant
	Prefs             []int
}

// CollectRequest asks for the week, the mode, the participant details and up
// to three preferences, re-asking until each answer is valid.
func (o *Orchestrator) CollectRequest(ctx context.Context) (*Request, error) {
	week, err := o.prompter.AskValid(ctx, "Week: [A] or [B] : ", prompt.Week)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.Load(week)
	if err != nil {
		return nil, err
	}

	mode, err := o.prompter.AskValid(ctx, "Mode: [1] Test (confirm before save)  [2] Auto : ", prompt.Mode)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(o.out, "\nPick up to %d event numbers (comma-separated) from:\n", catalog.MaxPrefs)
	if err := cat.Print(o.out); err != nil {
		return nil, fmt.Errorf("failed to print catalog: %w", err)
	}

	var p signup.Participant
	fields := []struct {
		dst   *string
		text  string
		valid prompt.Validator
	}{
		{&p.Name, "\nYour full name: ", prompt.Name},
		{&p.Email, "Email: ", prompt.Email},
		{&p.Phone, "Phone: ", prompt.Phone},
		{&p.Bib, "Bib number: ", prompt.NotEmpty},
	}
	for _, f := range fields {
		if *f.dst, err = o.prompter.AskValid(ctx, f.text, f.valid); err != nil {
			return nil, err
		}
	}

	raw, err := o.prompter.AskValid(ctx, "Preferred events (e.g. 36,38,35): ", func(s string) bool {
		return len(cat.ParsePrefs(s)) > 0
	})
	if err != nil {
		return nil, err
	}
	prefs := cat.ParsePrefs(raw)
	fmt.Fprintf(o.out, "> preferences: %s\n\n", formatPrefs(prefs))

	req := &Request{
		Catalog:           cat,
		ConfirmBeforeSave: mode == "1",
		Participant:       p,
		Prefs:             prefs,
	}
	o.logger.Info("Operator input collected",
		zap.String("week", cat.Week()),
		zap.Bool("confirm_before_save", req.ConfirmBeforeSave),
		zap.Ints("prefs", prefs))
	return req, nil
}

func formatPrefs(prefs []int) string {
	parts := make([]string, len(prefs))
	for i, n := range prefs {
		parts[i] = fmt.Sprint(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

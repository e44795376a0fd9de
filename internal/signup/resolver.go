// File: internal/signup/resolver.go
package signup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/catalog"
)

// DriftThreshold is the catalog/title similarity below which the resolver
// warns that ordinal mapping may have picked the wrong row.
const DriftThreshold = 0.6

// Selection is the row the resolver clicked.
type Selection struct {
	// Number is the preference (or manually picked row index) that was chosen.
	Number int
	// Title is the live page title of the clicked row.
	Title string
	// Manual is true when the operator picked the row after every preference was full.
	Manual bool
}

// Resolver turns preferences into exactly one clicked row.
//
// Preference N is mapped to the Nth visible row, not matched by label. The
// live page and the catalog must list events in the same order for the
// mapping to be right; label similarity is only logged.
type Resolver struct {
	env      *Env
	catalog  *catalog.Catalog
	prompter Prompter
	logger   *zap.Logger
}

// NewResolver returns a Resolver for the active catalog.
func NewResolver(env *Env, cat *catalog.Catalog, prompter Prompter) *Resolver {
	return &Resolver{
		env:      env,
		catalog:  cat,
		prompter: prompter,
		logger:   env.Logger.Named("resolver"),
	}
}

// Resolve clicks the first available preference. When none is available it
// lists every available row and lets the operator pick one. It returns
// ErrNothingAvailable when no row at all can be signed up for, and
// ErrCancelled when the operator enters nothing.
func (r *Resolver) Resolve(ctx context.Context, prefs []int, rows []Row) (Selection, error) {
	for _, n := range prefs {
		if n < 1 || n > len(rows) {
			fmt.Fprintf(r.env.Out, "[skip] Preference #%d is out of range (we see %d rows).\n", n, len(rows))
			r.logger.Info("Preference out of range", zap.Int("preference", n), zap.Int("rows", len(rows)))
			continue
		}

		row := rows[n-1]
		r.scrollTo(ctx, row)
		r.env.Shots.Shot(ctx, fmt.Sprintf("pref_%02d_row", n))
		r.checkDrift(n, row)

		if !row.Control.Available() {
			fmt.Fprintf(r.env.Out, "[full] Preference #%d is currently FULL — “%s”. Trying next…\n", n, truncate(row.Title, 80))
			continue
		}

		fmt.Fprintf(r.env.Out, "[select] Preference #%d is AVAILABLE — “%s”. Clicking Sign Up…\n", n, truncate(row.Title, 80))
		if err := r.click(ctx, row, fmt.Sprintf("pref_%02d", n)); err != nil {
			return Selection{}, err
		}
		return Selection{Number: n, Title: row.Title}, nil
	}

	return r.fallback(ctx, rows)
}

func (r *Resolver) fallback(ctx context.Context, rows []Row) (Selection, error) {
	var available []Row
	for _, row := range rows {
		if row.Control.Available() {
			available = append(available, row)
		}
	}
	if len(available) == 0 {
		fmt.Fprintln(r.env.Out, "[result] None of your preferences are available right now.")
		r.env.Shots.Shot(ctx, "no_preference_available")
		return Selection{}, ErrNothingAvailable
	}

	fmt.Fprintln(r.env.Out, "\n[choice] Your preferences are full. Available SIGN UP rows:")
	for _, row := range available {
		fmt.Fprintf(r.env.Out, "  %02d: %s\n", row.Index, row.Title)
	}

	for {
		pick, err := r.prompter.Ask(ctx, "Pick an available number (or press Enter to cancel): ")
		if err != nil && !errors.Is(err, io.EOF) {
			return Selection{}, fmt.Errorf("failed to read fallback choice: %w", err)
		}
		if pick == "" {
			fmt.Fprintln(r.env.Out, "Cancelled by user. No action taken.")
			r.env.Shots.Shot(ctx, "user_cancel_after_full")
			return Selection{}, ErrCancelled
		}
		if row, ok := pickRow(available, pick); ok {
			r.scrollTo(ctx, row)
			if err := r.click(ctx, row, fmt.Sprintf("manual_pick_%02d", row.Index)); err != nil {
				return Selection{}, err
			}
			return Selection{Number: row.Index, Title: row.Title, Manual: true}, nil
		}
		fmt.Fprintln(r.env.Out, "  -> Invalid choice. Please pick one of the listed numbers or press Enter.")
	}
}

func pickRow(available []Row, pick string) (Row, bool) {
	for _, ch := range pick {
		if ch < '0' || ch > '9' {
			return Row{}, false
		}
	}
	num, err := strconv.Atoi(pick)
	if err != nil {
		return Row{}, false
	}
	for _, row := range available {
		if row.Index == num {
			return row, true
		}
	}
	return Row{}, false
}

func (r *Resolver) scrollTo(ctx context.Context, row Row) {
	if err := r.env.Page.ScrollIntoView(ctx, row.Handle()); err != nil {
		r.logger.Debug("Could not scroll row into view", zap.Int("row", row.Index), zap.Error(err))
	}
}

func (r *Resolver) click(ctx context.Context, row Row, shotPrefix string) error {
	r.env.Shots.Shot(ctx, shotPrefix+"_before_click")
	if err := r.env.Page.Click(ctx, row.ControlHandle()); err != nil {
		return fmt.Errorf("could not click Sign Up on row %d: %w", row.Index, err)
	}
	r.env.Shots.Shot(ctx, shotPrefix+"_clicked")
	r.logger.Info("Clicked Sign Up", zap.Int("row", row.Index), zap.String("title", row.Title))
	return nil
}

// checkDrift logs how closely the catalog label for preference n matches
// the live title at the same position. It never changes the selection.
func (r *Resolver) checkDrift(n int, row Row) {
	label, ok := r.catalog.Label(n)
	if !ok {
		return
	}
	score := LabelSimilarity(label, row.Title)
	fields := []zap.Field{
		zap.Int("preference", n),
		zap.String("catalog_label", label),
		zap.String("page_title", row.Title),
		zap.Float64("similarity", score),
	}
	if score < DriftThreshold {
		r.logger.Warn("Catalog label and live row title disagree; check the catalog order", fields...)
		return
	}
	r.logger.Debug("Catalog label matches live row title", fields...)
}

// LabelSimilarity returns the Jaro-Winkler similarity of two labels after
// dropping punctuation and case.
func LabelSimilarity(a, b string) float64 {
	return matchr.JaroWinkler(normalizeLabel(a), normalizeLabel(b), false)
}

func normalizeLabel(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// File: internal/signup/normalizer.go
package signup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/locator"
)

// Normalizer clears what stands between the invitation page and its rows.
// Every step is best-effort: a missing control is the normal case.
type Normalizer struct {
	env    *Env
	logger *zap.Logger
}

// NewNormalizer returns a Normalizer.
func NewNormalizer(env *Env) *Normalizer {
	return &Normalizer{env: env, logger: env.Logger.Named("normalizer")}
}

// ContinueAs dismisses the "continue as" confirmation if it shows up and
// waits for it to go away.
func (n *Normalizer) ContinueAs(ctx context.Context) {
	if !n.env.Locator.ExistsAny(ctx, []string{continueAsProbe}, n.env.Timing.ModalProbe) {
		n.logger.Debug("No continue-as prompt")
		return
	}
	n.env.Shots.Shot(ctx, "continue_as_modal_seen")
	if err := n.env.Locator.Click(ctx, continueAsButton, n.env.Timing.Wait); err != nil {
		n.logger.Warn("Continue-as prompt could not be dismissed", zap.Error(err))
		return
	}
	n.env.Shots.Shot(ctx, "continue_as_clicked")
	if err := n.env.Locator.WaitGone(ctx, continueAsButton, n.env.Timing.Wait); err != nil {
		n.logger.Warn("Continue-as prompt did not close", zap.Error(err))
	}
}

// CheckInvitationURL warns when the tab is not on the invitation page. The
// page may be embedded, so this never fails the run.
func (n *Normalizer) CheckInvitationURL(ctx context.Context, hint string) {
	url, err := n.env.Page.CurrentURL(ctx)
	if err != nil {
		n.logger.Warn("Could not read current URL", zap.Error(err))
		return
	}
	if !strings.Contains(url, hint) {
		fmt.Fprintf(n.env.Out, "[warn] Invitation URL not detected (ok if embedded): %s\n", url)
		n.logger.Warn("Invitation URL not detected", zap.String("url", url), zap.String("hint", hint))
	}
}

// Normalize expands the list and clears filters that hide rows.
func (n *Normalizer) Normalize(ctx context.Context) {
	n.env.Shots.Shot(ctx, "invitation_list_initial")
	n.expandShowMore(ctx)
	n.expandDay(ctx)
	for _, toggle := range filterToggles {
		n.clearToggle(ctx, toggle)
	}
}

// expandShowMore clicks "show more" until it stops appearing, or until the
// configured click cap when one is set.
func (n *Normalizer) expandShowMore(ctx context.Context) {
	maxClicks := n.env.Timing.ShowMoreMaxClicks
	clicks := 0
	for maxClicks == 0 || clicks < maxClicks {
		if _, err := n.env.Locator.Find(ctx, []string{showMoreControl}, locator.Clickable, n.env.Timing.Short); err != nil {
			break
		}
		n.env.Shots.Shot(ctx, "show_more_spots_visible")
		if err := n.env.Page.Click(ctx, showMoreControl); err != nil {
			n.logger.Debug("Show more click failed", zap.Error(err))
			break
		}
		clicks++
		if err := n.env.sleep(ctx, n.env.Timing.ExpandSettle); err != nil {
			return
		}
	}
	if maxClicks > 0 && clicks == maxClicks {
		n.logger.Warn("Stopped expanding at the click cap", zap.Int("clicks", clicks))
	}
	n.logger.Debug("Show more expansion done", zap.Int("clicks", clicks))
}

func (n *Normalizer) expandDay(ctx context.Context) {
	if !n.env.Locator.ClickAny(ctx, dayExpandControls, n.env.Timing.ModalProbe) {
		return
	}
	if err := n.env.sleep(ctx, n.env.Timing.ExpandSettle); err != nil {
		return
	}
	n.env.Shots.Shot(ctx, "day_expanded")
}

func (n *Normalizer) clearToggle(ctx context.Context, toggle filterToggle) {
	checked, err := n.env.Page.Checked(ctx, toggle.checkboxXPath())
	if err != nil {
		if !errors.Is(err, locator.ErrNotFound) {
			n.logger.Debug("Could not read filter state", zap.String("filter", toggle.Label), zap.Error(err))
		}
		return
	}
	if !checked {
		return
	}
	if err := n.env.Page.Click(ctx, toggle.labelXPath()); err != nil {
		n.logger.Warn("Could not clear filter", zap.String("filter", toggle.Label), zap.Error(err))
		return
	}
	if err := n.env.sleep(ctx, n.env.Timing.ToggleSettle); err != nil {
		return
	}
	n.env.Shots.Shot(ctx, toggle.Shot)
	n.logger.Info("Cleared filter", zap.String("filter", toggle.Label))
}

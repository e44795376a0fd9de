// File: internal/signup/poller.go
package signup

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/config"
	"github.com/xkilldash9x/autosign/internal/locator"
)

// Poller gets from the group page onto the invitation page.
type Poller struct {
	env    *Env
	site   config.SiteConfig
	logger *zap.Logger
	views  []string
	// viewProbes mirrors views, one probe per candidate.
	viewProbes []locator.Probe[string]
	now        func() time.Time
}

// NewPoller returns a Poller for the configured site.
func NewPoller(env *Env, site config.SiteConfig) *Poller {
	p := &Poller{
		env:    env,
		site:   site,
		logger: env.Logger.Named("poller"),
		views:  ViewXPaths(site.CardTitles),
		now:    time.Now,
	}
	for _, xp := range p.views {
		p.viewProbes = append(p.viewProbes, p.viewProbe(xp))
	}
	return p
}

// Run opens the group page and tries, in order, the entry link, the direct
// secure URL and then a poll loop over the View candidates. It returns nil
// once the invitation URL is reached and ErrPollTimeout when the poll
// deadline passes.
func (p *Poller) Run(ctx context.Context) error {
	if err := p.env.Page.Navigate(ctx, p.site.GroupURL); err != nil {
		return fmt.Errorf("could not open group page: %w", err)
	}
	if err := p.env.sleep(ctx, p.env.Timing.PageSettle); err != nil {
		return err
	}
	p.env.Shots.Shot(ctx, "group_loaded")

	if route, _, ok := locator.First[string](ctx, p.tryEntryLink, p.tryDirectURL); ok {
		p.logger.Info("Reached invitation page", zap.String("route", route))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.poll(ctx)
}

func (p *Poller) tryEntryLink(ctx context.Context) (string, bool) {
	link := EntryLinkXPath(p.site.EntryID)
	if _, err := p.env.Locator.Find(ctx, []string{link}, locator.Clickable, p.env.Timing.Short); err != nil {
		p.logger.Debug("Entry link not available", zap.Error(err))
		return "", false
	}
	p.env.Shots.Shot(ctx, "group_parent_duties_link_visible")
	if err := p.env.Page.Click(ctx, link); err != nil {
		p.logger.Debug("Entry link click failed", zap.Error(err))
		return "", false
	}
	p.env.Shots.Shot(ctx, "group_parent_duties_link_clicked")
	if err := p.env.waitURL(ctx, p.site.InvitationURLHint); err != nil {
		p.logger.Debug("Entry link did not reach the invitation page", zap.Error(err))
		return "", false
	}
	return "entry_link", true
}

func (p *Poller) tryDirectURL(ctx context.Context) (string, bool) {
	url := p.site.SecureURL()
	if err := p.env.Page.Navigate(ctx, url); err != nil {
		p.logger.Debug("Direct navigation failed", zap.String("url", url), zap.Error(err))
		return "", false
	}
	p.env.Shots.Shot(ctx, "group_parent_duties_direct_nav")
	if err := p.env.waitURL(ctx, p.site.InvitationURLHint); err != nil {
		p.logger.Debug("Direct navigation did not reach the invitation page", zap.Error(err))
		return "", false
	}
	return "direct_url", true
}

func (p *Poller) poll(ctx context.Context) error {
	deadline := p.now().Add(p.env.Timing.PollMax)
	for round := 1; p.now().Before(deadline); round++ {
		if _, idx, ok := locator.First(ctx, p.viewProbes...); ok {
			p.logger.Info("Reached invitation page via View", zap.Int("round", round), zap.String("xpath", p.views[idx]))
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprintf(p.env.Out, "[poll] 'View' not visible/clickable yet… retrying in %s\n", p.env.Timing.PollInterval)
		p.logger.Debug("View not available", zap.Int("round", round), zap.Time("deadline", deadline))
		if err := p.env.sleep(ctx, p.env.Timing.PollInterval); err != nil {
			return err
		}
		if err := p.env.Page.Reload(ctx); err != nil {
			p.logger.Warn("Group page reload failed", zap.Error(err))
		}
	}
	return ErrPollTimeout
}

// viewProbe clicks one View candidate and checks that it led to the invitation.
func (p *Poller) viewProbe(xp string) locator.Probe[string] {
	return func(ctx context.Context) (string, bool) {
		if _, err := p.env.Locator.Find(ctx, []string{xp}, locator.Clickable, p.env.Timing.Short); err != nil {
			return "", false
		}
		p.env.Shots.Shot(ctx, "group_view_visible")
		if err := p.env.Page.Click(ctx, xp); err != nil {
			p.logger.Debug("View click failed", zap.String("xpath", xp), zap.Error(err))
			return "", false
		}
		p.env.Shots.Shot(ctx, "group_view_clicked")
		if err := p.env.waitURL(ctx, p.site.InvitationURLHint); err != nil {
			return "", false
		}
		return xp, true
	}
}

// internal/browser/interaction.go
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autosign/internal/locator"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Navigate loads url in the tab.
func (s *Session) Navigate(ctx context.Context, url string) error {
	s.logger.Debug("Navigating to URL", zap.String("url", url))
	if err := s.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %s failed: %w", url, err)
	}
	return nil
}

// Reload refreshes the current page.
func (s *Session) Reload(ctx context.Context) error {
	if err := s.run(ctx, chromedp.Reload()); err != nil {
		return fmt.Errorf("reload failed: %w", err)
	}
	return nil
}

// CurrentURL returns the tab's location.
func (s *Session) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := s.run(ctx, chromedp.Location(&url)); err != nil {
		return "", fmt.Errorf("could not read location: %w", err)
	}
	return url, nil
}

// WaitURLContains polls the location until it contains fragment or ctx is done.
func (s *Session) WaitURLContains(ctx context.Context, fragment string) error {
	ticker := time.NewTicker(s.urlPoll)
	defer ticker.Stop()

	var last string
	for {
		if url, err := s.CurrentURL(ctx); err == nil {
			last = url
			if strings.Contains(url, fragment) {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("url %q never contained %q: %w", last, fragment, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Wait blocks until xpath satisfies cond.
func (s *Session) Wait(ctx context.Context, xpath string, cond locator.Condition) error {
	var actions []chromedp.Action
	switch cond {
	case locator.Present:
		actions = append(actions, chromedp.WaitReady(xpath, chromedp.BySearch))
	case locator.Clickable:
		actions = append(actions,
			chromedp.WaitVisible(xpath, chromedp.BySearch),
			chromedp.WaitEnabled(xpath, chromedp.BySearch),
		)
	default:
		return fmt.Errorf("unsupported wait condition %s", cond)
	}
	return s.run(ctx, actions...)
}

// WaitGone blocks until nothing matches xpath.
func (s *Session) WaitGone(ctx context.Context, xpath string) error {
	return s.run(ctx, chromedp.WaitNotPresent(xpath, chromedp.BySearch))
}

// ScrollIntoView centers the first match in the viewport.
func (s *Session) ScrollIntoView(ctx context.Context, xpath string) error {
	script := fmt.Sprintf(`(function(){
		const n = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		if (!n) return false;
		n.scrollIntoView({block: 'center'});
		return true;
	})()`, quote(xpath))

	var found bool
	if err := s.run(ctx, chromedp.Evaluate(script, &found)); err != nil {
		return fmt.Errorf("scroll into view failed for %s: %w", xpath, err)
	}
	if !found {
		return fmt.Errorf("%w: %s", locator.ErrNotFound, xpath)
	}
	return nil
}

// Click clicks the first visible match.
func (s *Session) Click(ctx context.Context, xpath string) error {
	s.logger.Debug("Clicking element", zap.String("xpath", xpath))
	if err := s.run(ctx, chromedp.Click(xpath, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("click action failed for %s: %w", xpath, err)
	}
	return nil
}

// Type replaces the value of the first match with text.
func (s *Session) Type(ctx context.Context, xpath string, text string) error {
	s.logger.Debug("Typing into element", zap.String("xpath", xpath), zap.Int("text_length", len(text)))
	err := s.run(ctx,
		chromedp.Clear(xpath, chromedp.BySearch),
		chromedp.SendKeys(xpath, text, chromedp.BySearch),
	)
	if err != nil {
		return fmt.Errorf("type action failed for %s: %w", xpath, err)
	}
	return nil
}

// Checked reports the checked state of the first match. A missing node
// yields locator.ErrNotFound.
func (s *Session) Checked(ctx context.Context, xpath string) (bool, error) {
	script := fmt.Sprintf(`(function(){
		const n = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
		return n ? !!n.checked : null;
	})()`, quote(xpath))

	var checked *bool
	if err := s.run(ctx, chromedp.Evaluate(script, &checked)); err != nil {
		return false, fmt.Errorf("could not read checked state of %s: %w", xpath, err)
	}
	if checked == nil {
		return false, fmt.Errorf("%w: %s", locator.ErrNotFound, xpath)
	}
	return *checked, nil
}

// Evaluate runs script and stores its JSON-encoded result in out.
func (s *Session) Evaluate(ctx context.Context, script string, out *[]byte) error {
	if err := s.run(ctx, chromedp.Evaluate(script, out)); err != nil {
		return fmt.Errorf("script evaluation failed: %w", err)
	}
	return nil
}

// Screenshot captures the current viewport as PNG.
func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return buf, nil
}

// quote renders s as a JavaScript string literal.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}

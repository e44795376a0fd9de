// File: internal/signup/collector.go
package signup

import (
	"context"
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

//go:embed js_scripts/collect_rows.js
var collectRowsScript string

// Row is one visible assignment on the invitation page. Its handles are only
// valid until the next collection.
type Row struct {
	Index   int
	Title   string
	Control Control
}

// Control is a row's action button or link.
type Control struct {
	Text    string
	Class   string
	Enabled bool
}

// Available reports whether the control offers a sign-up: the text says so,
// it is enabled and its class does not mark it disabled.
func (c Control) Available() bool {
	return strings.Contains(strings.ToLower(c.Text), "sign up") &&
		c.Enabled &&
		!strings.Contains(strings.ToLower(c.Class), "disabled")
}

// Handle returns an XPath for the row node.
func (r Row) Handle() string { return rowHandle(r.Index) }

// ControlHandle returns an XPath for the row's action control.
func (r Row) ControlHandle() string { return controlHandle(r.Index) }

type rowSnapshot struct {
	Index       int    `json:"index"`
	HTML        string `json:"html"`
	Text        string `json:"text"`
	ControlText string `json:"control_text"`
}

// Collector reads the current assignment rows.
type Collector struct {
	env    *Env
	logger *zap.Logger
	script string
}

// NewCollector returns a Collector.
func NewCollector(env *Env) *Collector {
	cfg, err := json.Marshal(map[string]string{
		"rowXPath":     rowXPath,
		"controlXPath": controlXPath,
		"rowAttr":      rowAttr,
		"controlAttr":  controlAttr,
	})
	if err != nil {
		// A map of strings always marshals.
		panic(err)
	}
	return &Collector{
		env:    env,
		logger: env.Logger.Named("collector"),
		script: collectRowsScript + "(" + string(cfg) + ")",
	}
}

// Collect returns the visible rows in DOM order, indexed from 1. Any earlier
// result is invalidated.
func (c *Collector) Collect(ctx context.Context) ([]Row, error) {
	var raw []byte
	if err := c.env.Page.Evaluate(ctx, c.script, &raw); err != nil {
		return nil, fmt.Errorf("failed to collect rows: %w", err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("row collection returned no data")
	}

	var snaps []rowSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		c.logger.Error("Failed to decode row snapshot", zap.ByteString("raw_result", raw), zap.Error(err))
		return nil, fmt.Errorf("failed to decode row snapshot: %w", err)
	}

	rows := make([]Row, 0, len(snaps))
	for i, snap := range snaps {
		if snap.Index != i+1 {
			return nil, fmt.Errorf("row snapshot out of order: position %d has index %d", i+1, snap.Index)
		}
		row, err := parseRow(snap)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", snap.Index, err)
		}
		rows = append(rows, row)
	}
	c.logger.Debug("Collected rows", zap.Int("count", len(rows)))
	return rows, nil
}

// parseRow reads the title and the tagged control out of the row markup.
func parseRow(snap rowSnapshot) (Row, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(snap.HTML))
	if err != nil {
		return Row{}, fmt.Errorf("could not parse row markup: %w", err)
	}

	row := Row{Index: snap.Index}

	title := doc.Find("a[class*='title'], a[class*='SpotTitle']").First()
	if title.Length() > 0 {
		row.Title = collapseSpace(title.Text())
	} else {
		row.Title = strings.TrimSpace(snap.Text)
	}

	ctl := doc.Find("[" + controlAttr + "='" + strconv.Itoa(snap.Index) + "']").First()
	if ctl.Length() == 0 {
		return Row{}, fmt.Errorf("tagged control missing from markup")
	}
	_, disabled := ctl.Attr("disabled")
	row.Control = Control{
		Text:    strings.TrimSpace(snap.ControlText),
		Class:   ctl.AttrOr("class", ""),
		Enabled: !disabled,
	}
	if row.Control.Text == "" {
		row.Control.Text = collapseSpace(ctl.Text())
	}
	return row, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

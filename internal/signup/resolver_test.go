// File: internal/signup/resolver_test.go
package signup

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/autosign/internal/catalog"
)

func weekB(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Load("B")
	require.NoError(t, err)
	return c
}

func TestResolver_FirstAvailablePreference(t *testing.T) {
	h := newHarness(nil)
	cat := weekB(t)
	require.Equal(t, 62, cat.Len())

	prefs := cat.ParsePrefs("36,38,35")
	rows := makeRows(40, 36, 38)

	sel, err := NewResolver(h.env, cat, &fakePrompter{}).Resolve(context.Background(), prefs, rows)
	require.NoError(t, err)

	assert.Equal(t, Selection{Number: 36, Title: "Row 36"}, sel)
	assert.Equal(t, []string{rows[35].ControlHandle()}, h.page.clicks)
	assert.Equal(t, []string{"pref_36_row", "pref_36_before_click", "pref_36_clicked"}, h.shots.Labels())
	assert.Contains(t, h.out.String(), "[select] Preference #36 is AVAILABLE — “Row 36”. Clicking Sign Up…")
}

func TestResolver_SkipsFullPreferences(t *testing.T) {
	h := newHarness(nil)
	rows := makeRows(40, 35)

	sel, err := NewResolver(h.env, weekB(t), &fakePrompter{}).Resolve(context.Background(), []int{36, 38, 35}, rows)
	require.NoError(t, err)

	assert.Equal(t, 35, sel.Number)
	assert.False(t, sel.Manual)
	assert.Equal(t, []string{rows[34].ControlHandle()}, h.page.clicks)
	assert.Contains(t, h.out.String(), "[full] Preference #36 is currently FULL — “Row 36”. Trying next…")
	assert.Contains(t, h.out.String(), "[full] Preference #38 is currently FULL")
	assert.Equal(t, []string{
		"pref_36_row", "pref_38_row", "pref_35_row", "pref_35_before_click", "pref_35_clicked",
	}, h.shots.Labels())
}

func TestResolver_PreferenceOnePastRowCountIsSkipped(t *testing.T) {
	h := newHarness(nil)
	rows := makeRows(40, 2)

	sel, err := NewResolver(h.env, weekB(t), &fakePrompter{}).Resolve(context.Background(), []int{41, 2}, rows)
	require.NoError(t, err)

	assert.Equal(t, 2, sel.Number)
	assert.Contains(t, h.out.String(), "[skip] Preference #41 is out of range (we see 40 rows).")
	assert.NotContains(t, h.shots.Labels(), "pref_41_row")
}

func TestResolver_AllFullThenCancel(t *testing.T) {
	h := newHarness(nil)
	rows := makeRows(40, 5, 12)
	prompter := &fakePrompter{answers: []string{""}}

	_, err := NewResolver(h.env, weekB(t), prompter).Resolve(context.Background(), []int{36, 38, 35}, rows)
	assert.ErrorIs(t, err, ErrCancelled)

	assert.Empty(t, h.page.clicks, "nothing is clicked")
	out := h.out.String()
	assert.Contains(t, out, "[choice] Your preferences are full. Available SIGN UP rows:\n  05: Row 5\n  12: Row 12\n")
	assert.Contains(t, out, "Cancelled by user. No action taken.")
	assert.Equal(t, []string{"Pick an available number (or press Enter to cancel): "}, prompter.asked)
	labels := h.shots.Labels()
	assert.Equal(t, "user_cancel_after_full", labels[len(labels)-1])
}

func TestResolver_ManualPickRetriesInvalidInput(t *testing.T) {
	h := newHarness(nil)
	rows := makeRows(20, 5, 12)
	prompter := &fakePrompter{answers: []string{"abc", "7", "+12", "12"}}

	sel, err := NewResolver(h.env, weekB(t), prompter).Resolve(context.Background(), []int{1}, rows)
	require.NoError(t, err)

	assert.Equal(t, Selection{Number: 12, Title: "Row 12", Manual: true}, sel)
	assert.Equal(t, 3, strings.Count(h.out.String(), "  -> Invalid choice. Please pick one of the listed numbers or press Enter."))
	assert.Equal(t, []string{rows[11].ControlHandle()}, h.page.clicks)
	labels := h.shots.Labels()
	assert.Equal(t, []string{"manual_pick_12_before_click", "manual_pick_12_clicked"}, labels[len(labels)-2:])
}

func TestResolver_EOFCancels(t *testing.T) {
	h := newHarness(nil)
	_, err := NewResolver(h.env, weekB(t), &fakePrompter{}).Resolve(context.Background(), []int{1}, makeRows(3, 2))
	assert.ErrorIs(t, err, ErrCancelled)
}

func TestResolver_NothingAvailable(t *testing.T) {
	h := newHarness(nil)
	prompter := &fakePrompter{answers: []string{"1"}}

	_, err := NewResolver(h.env, weekB(t), prompter).Resolve(context.Background(), []int{1, 2, 3}, makeRows(10))
	assert.ErrorIs(t, err, ErrNothingAvailable)

	assert.Empty(t, prompter.asked, "operator is not prompted when nothing is open")
	assert.Empty(t, h.page.clicks)
	assert.Contains(t, h.out.String(), "[result] None of your preferences are available right now.")
	labels := h.shots.Labels()
	assert.Equal(t, "no_preference_available", labels[len(labels)-1])
}

func TestResolver_ClickFailureIsReturned(t *testing.T) {
	h := newHarness(nil)
	rows := makeRows(3, 1)
	h.page.clickErr[rows[0].ControlHandle()] = fmt.Errorf("node detached")

	_, err := NewResolver(h.env, weekB(t), &fakePrompter{}).Resolve(context.Background(), []int{1}, rows)
	assert.ErrorContains(t, err, "could not click Sign Up on row 1")
}

// Mapping is by position even when the catalog label and the live title
// clearly disagree; the disagreement is only logged.
func TestResolver_OrdinalMappingIgnoresLabels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := newHarness(zap.New(core))
	cat := weekB(t)

	rows := makeRows(3, 1, 2)
	rows[0].Title = "Zebra Quokka"
	label2, _ := cat.Label(2)
	rows[1].Title = label2

	sel, err := NewResolver(h.env, cat, &fakePrompter{}).Resolve(context.Background(), []int{1}, rows)
	require.NoError(t, err)
	assert.Equal(t, Selection{Number: 1, Title: "Zebra Quokka"}, sel, "row 1 is taken despite the label mismatch")

	warnings := logs.FilterMessage("Catalog label and live row title disagree; check the catalog order").All()
	require.Len(t, warnings, 1)
	assert.Equal(t, int64(1), warnings[0].ContextMap()["preference"])

	// A matching title only produces a debug entry.
	h2 := newHarness(zap.New(core))
	_, err = NewResolver(h2.env, cat, &fakePrompter{}).Resolve(context.Background(), []int{2}, rows)
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("Catalog label matches live row title").Len())
}

// Whatever the availability pattern, a selected row is always one whose
// control was available, and a full row is never clicked.
func TestResolver_NeverSelectsFullRow(t *testing.T) {
	const n = 8
	prefs := []int{3, 9, 6}
	for mask := 0; mask < 1<<n; mask++ {
		var open []int
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				open = append(open, i+1)
			}
		}
		h := newHarness(nil)
		rows := makeRows(n, open...)
		// The fallback picks the first listed row when asked.
		answer := ""
		if len(open) > 0 {
			answer = fmt.Sprint(open[0])
		}

		sel, err := NewResolver(h.env, weekB(t), &fakePrompter{answers: []string{answer}}).Resolve(context.Background(), prefs, rows)
		if err != nil {
			assert.ErrorIs(t, err, ErrNothingAvailable, "mask %b", mask)
			assert.Empty(t, open)
			assert.Empty(t, h.page.clicks)
			continue
		}
		require.Len(t, h.page.clicks, 1, "mask %b", mask)
		picked := rows[sel.Number-1]
		assert.True(t, picked.Control.Available(), "mask %b selected full row %d", mask, sel.Number)
		assert.Equal(t, picked.ControlHandle(), h.page.clicks[0])
	}
}

func TestLabelSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, LabelSimilarity("ST Hurdle Helpers — 5:55–7:45", "ST Hurdle Helpers 5:55 - 7:45"), 1e-9)
	assert.Less(t, LabelSimilarity("Ground Setup — 4:30–5:45", "Zebra Quokka"), DriftThreshold)
	assert.Greater(t,
		LabelSimilarity("#Track Setup 4:30PM to 5:30PM", "Track Setup 4:30PM - 5:30PM"),
		LabelSimilarity("#Track Setup 4:30PM to 5:30PM", "Canteen Server 7:45 - 8:30"))
}

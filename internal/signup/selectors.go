// File: internal/signup/selectors.go
package signup

import (
	"fmt"
	"strings"
)

// Attributes the row collector stamps on live nodes. They are rewritten on
// every collection, which invalidates handles from earlier passes.
const (
	rowAttr     = "data-autosign-row"
	controlAttr = "data-autosign-ctl"
)

const viewButton = "button[@data-i18n='View' or contains(., 'View')]"

// Invitation page.
const (
	continueAsProbe  = "//span[@data-i18n='ConfirmEmailContinueAs']"
	continueAsButton = "//button[.//span[@data-i18n='ConfirmEmailContinueAs']]"

	showMoreControl = "//*[self::button or self::a][@data-i18n='_OverflowMoreJobs_' or contains(@class,'vsl-orangebtn') or contains(normalize-space(.), 'Show more spots')]"

	rowXPath     = "//div[contains(@class,'assignment-widget')]"
	controlXPath = ".//*[self::button or self::a][normalize-space()='SIGN UP' or contains(.,'Sign Up') or normalize-space()='Full' or normalize-space()='FULL']"
)

var dayExpandControls = []string{
	"//div[contains(@class,'dayRow') and contains(@class,'collapsed')]",
	"//button[contains(@class,'day') and contains(@class,'expand')]",
}

// filterToggle is a checkbox filter that hides eligible rows when checked.
type filterToggle struct {
	Label string
	Shot  string
}

var filterToggles = []filterToggle{
	{Label: "Hide Full Spots", Shot: "hide_full_spots_unchecked"},
	{Label: "Show My Spots Only", Shot: "show_my_spots_unchecked"},
}

func (f filterToggle) labelXPath() string {
	return fmt.Sprintf("//label[contains(.,%s)]", xpathLiteral(f.Label))
}

func (f filterToggle) checkboxXPath() string {
	return f.labelXPath() + "//input[@type='checkbox']"
}

// Identify, confirm and participant modals.
var (
	identifyEmailInputs = []string{
		"//input[@type='email']",
		"//input[contains(@placeholder,'@')]",
		"//input[contains(@class,'email')]",
	}
	continueButtons = buttonOrLink("Continue")
	confirmButtons  = buttonOrLink("Confirm")
	saveButtons     = buttonOrLink("Save and Done")
)

// EntryLinkXPath matches the group page link that leads straight to the entry.
func EntryLinkXPath(entryID string) string {
	return fmt.Sprintf("//a[contains(@href, %s)]", xpathLiteral("/login/entry/"+entryID))
}

// ViewXPaths returns the poll candidates for the card's View control, most
// specific first. Card-scoped candidates are omitted when no titles are given.
func ViewXPaths(cardTitles []string) []string {
	var out []string
	if len(cardTitles) > 0 {
		var linkText, anyText []string
		for _, title := range cardTitles {
			lit := xpathLiteral(title)
			linkText = append(linkText, fmt.Sprintf("contains(., %s)", lit))
			anyText = append(anyText, fmt.Sprintf("contains(normalize-space(.), %s)", lit))
		}
		out = append(out,
			fmt.Sprintf("//a[%s]/ancestor::div[.//%s][1]//%s", strings.Join(linkText, " or "), viewButton, viewButton),
			fmt.Sprintf("(//*[%s]//%s)[1]", strings.Join(anyText, " or "), viewButton),
		)
	}
	return append(out,
		// The card is usually the second one on the group page.
		fmt.Sprintf("(//%s)[2]", viewButton),
		"//div[contains(@class,'form-row') and contains(@class,'button')]//button[@data-i18n='View']",
		"//div[contains(@class,'form-row') and contains(@class,'button')]//button[contains(., 'View')]",
		"//button[@data-i18n='View']",
		"//button[contains(., 'View')]",
		"//a[contains(., 'View')]",
	)
}

// fieldXPath matches the first input or textarea after a label containing text.
func fieldXPath(labelText string) string {
	return fmt.Sprintf("//label[contains(.,%s)]/following::*[self::input or self::textarea][1]", xpathLiteral(labelText))
}

func buttonOrLink(text string) []string {
	lit := xpathLiteral(text)
	return []string{
		fmt.Sprintf("//button[contains(.,%s)]", lit),
		fmt.Sprintf("//a[contains(.,%s)]", lit),
	}
}

func rowHandle(index int) string {
	return fmt.Sprintf("//*[@%s='%d']", rowAttr, index)
}

func controlHandle(index int) string {
	return fmt.Sprintf("//*[@%s='%d']", controlAttr, index)
}

// xpathLiteral quotes s as an XPath 1.0 string literal.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, 2*len(parts))
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

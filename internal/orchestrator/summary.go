// File: internal/orchestrator/summary.go
package orchestrator

import (
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/xkilldash9x/autosign/internal/signup"
)

// Summary renders the pending selection shown before the final save.
func Summary(req *Request, sel signup.Selection) string {
	t := table.NewWriter()
	t.SetTitle("Selection")
	t.SetStyle(table.StyleLight)
	t.AppendRows([]table.Row{
		{"Preference #", sel.Number},
		{"Week", req.Catalog.Week()},
		{"Event label (your list)", req.Catalog.LabelOr(sel.Number, "N/A")},
		{"Page title", sel.Title},
		{"Name", req.Participant.Name},
		{"Email", req.Participant.Email},
		{"Phone", req.Participant.Phone},
		{"Bib", req.Participant.Bib},
	})
	return t.Render()
}

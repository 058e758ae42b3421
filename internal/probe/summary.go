package probe

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
)

// Table renders per-case results as a text table.
func (r *Report) Table() string {
	out := &strings.Builder{}
	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Case", "Requests", "Failed"})
	table.SetAutoWrapText(false)

	for _, name := range slices.Sorted(maps.Keys(r.PerCase)) {
		row := []string{name, strconv.Itoa(r.PerCase[name]), strconv.Itoa(r.FailedBy[name])}
		if r.FailedBy[name] > 0 {
			table.Rich(row, []tablewriter.Colors{
				{tablewriter.FgHiRedColor, tablewriter.Bold},
				{tablewriter.FgHiRedColor},
				{tablewriter.FgHiRedColor},
			})
			continue
		}
		table.Append(row)
	}
	table.SetFooter([]string{"total", strconv.Itoa(r.Requests), strconv.Itoa(r.Failed)})
	table.Render()

	return out.String()
}

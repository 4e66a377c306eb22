package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/agentstation/achievesync/pkg/sync"
)

// SyncResultToTableData converts a sync result to one row per category.
// Wide output adds the source file and delivery mechanics columns.
func SyncResultToTableData(result *sync.Result, wide bool) Data {
	headers := []string{"Category", "Imported", "Already Added", "Not Found", "Pending", "Delivered", "Failed"}
	if wide {
		headers = append(headers, "Duplicates", "Skipped", "Batches", "Attempts", "Source")
	}

	rows := make([][]string, 0, len(result.Categories))
	for _, cr := range result.Categories {
		rows = append(rows, categoryRow(cr, wide))
	}

	total := result.Totals()
	footer := categoryRow(&total, wide)
	if wide {
		footer[len(footer)-1] = ""
	}

	return Data{
		Headers:         headers,
		Rows:            rows,
		Footer:          footer,
		ColumnAlignment: countAlignment(len(headers), wide),
	}
}

func categoryRow(cr *sync.CategoryResult, wide bool) []string {
	row := []string{
		cr.Category,
		strconv.Itoa(cr.Imported),
		strconv.Itoa(cr.AlreadyAdded),
		strconv.Itoa(cr.NotFound),
		strconv.Itoa(cr.Pending),
		strconv.Itoa(cr.Delivered),
		strconv.Itoa(cr.Failed),
	}
	if wide {
		row = append(row,
			strconv.Itoa(cr.Duplicates),
			strconv.Itoa(cr.Skipped),
			strconv.Itoa(cr.Batches),
			strconv.Itoa(cr.Attempts),
			cr.Source,
		)
	}
	return row
}

// countAlignment left-aligns the first column (and the trailing source
// column in wide output) and right-aligns the counts.
func countAlignment(n int, wide bool) []Align {
	align := make([]Align, n)
	for i := range align {
		align[i] = AlignRight
	}
	align[0] = AlignLeft
	if wide {
		align[n-1] = AlignLeft
	}
	return align
}

// StatusToTableData converts category statuses to table format.
func StatusToTableData(statuses []sync.Status) Data {
	rows := make([][]string, 0, len(statuses))
	var total sync.Status
	for _, s := range statuses {
		rows = append(rows, statusRow(s))
		total.Total += s.Total
		total.Added += s.Added
		total.Remaining += s.Remaining
	}
	total.Category = "total"

	return Data{
		Headers:         []string{"Category", "Total", "Added", "Remaining", "Progress"},
		Rows:            rows,
		Footer:          statusRow(total),
		ColumnAlignment: countAlignment(5, false),
	}
}

func statusRow(s sync.Status) []string {
	return []string{
		s.Category,
		strconv.Itoa(s.Total),
		strconv.Itoa(s.Added),
		strconv.Itoa(s.Remaining),
		fmt.Sprintf("%.1f%%", s.Progress()),
	}
}

// ListToTableData converts a list of names to a single column table.
func ListToTableData(header string, names []string) Data {
	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name})
	}
	return Data{Headers: []string{header}, Rows: rows}
}

// Write formats data for w. Table output uses tableData, every other
// format encodes raw.
func Write(w io.Writer, format Format, tableData Data, raw any) error {
	if format.IsTable() {
		return NewFormatter(format).Format(w, tableData)
	}
	return NewFormatter(format).Format(w, raw)
}

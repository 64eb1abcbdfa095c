package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// SummaryRow aggregates one suite run.
type SummaryRow struct {
	Suite          string
	Tests          int
	Passed         int
	Failed         int
	HarnessErrors  int
	StressedRounds int64
	Duration       time.Duration
}

// WriteSummary renders rows as a table with a totals footer.
func WriteSummary(w io.Writer, rows []SummaryRow) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Run Summary")
	t.AppendHeader(table.Row{"Suite", "Tests", "Passed", "Failed", "Harness Errors", "Stress Rounds", "Duration"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tests", Align: text.AlignRight},
		{Name: "Passed", Align: text.AlignRight},
		{Name: "Failed", Align: text.AlignRight},
		{Name: "Harness Errors", Align: text.AlignRight},
		{Name: "Stress Rounds", Align: text.AlignRight},
		{Name: "Duration", Align: text.AlignRight},
	})

	var total SummaryRow
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.Suite, row.Tests, row.Passed, row.Failed,
			row.HarnessErrors, row.StressedRounds, formatDuration(row.Duration),
		})
		total.Tests += row.Tests
		total.Passed += row.Passed
		total.Failed += row.Failed
		total.HarnessErrors += row.HarnessErrors
		total.StressedRounds += row.StressedRounds
		total.Duration += row.Duration
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d suite(s)", len(rows)), total.Tests, total.Passed, total.Failed,
		total.HarnessErrors, total.StressedRounds, formatDuration(total.Duration),
	})
	t.Render()
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.Round(time.Microsecond).String()
	}
	return d.Round(time.Millisecond).String()
}

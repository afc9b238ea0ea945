package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is one row of the job overview page.
type JobListItem struct {
	ID           string
	State        string
	Benchmark    string
	Dimension    int
	Reduced      int
	Iteration    int
	MaxIteration int
	InitialValue float64
	CurrentValue float64
	BestValue    float64
	StepSize     float64
	StartTime    time.Time
	EndTime      *time.Time
	Error        string
}

// Progress returns the completed share of the iteration budget in percent.
func (j JobListItem) Progress() float64 {
	if j.MaxIteration <= 0 {
		return 0
	}
	return float64(j.Iteration) / float64(j.MaxIteration) * 100
}

// Duration returns the run time so far, or the total for finished jobs.
func (j JobListItem) Duration(now time.Time) time.Duration {
	if j.EndTime != nil {
		return j.EndTime.Sub(j.StartTime).Round(time.Millisecond)
	}
	return now.Sub(j.StartTime).Round(time.Millisecond)
}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Adaptive ZOO jobs</title>
<style>
body{font-family:sans-serif;margin:2rem;color:#222}
table{border-collapse:collapse;width:100%}
th,td{padding:.4rem .6rem;border-bottom:1px solid #ddd;text-align:left}
td.num{text-align:right;font-family:monospace}
.state-running{color:#1565c0}.state-completed{color:#2e7d32}
.state-failed{color:#c62828}.state-cancelled{color:#6d4c41}
</style>
</head>
<body>
<h1>Optimization jobs</h1>
`

const pageFoot = `</body>
</html>
`

// JobList renders the job overview page.
func JobList(jobs []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}

		if len(jobs) == 0 {
			if _, err := io.WriteString(w, "<p>No jobs yet. POST a configuration to <code>/api/v1/jobs</code> to start one.</p>\n"); err != nil {
				return err
			}
			_, err := io.WriteString(w, pageFoot)
			return err
		}

		if _, err := io.WriteString(w, "<table>\n<thead><tr><th>ID</th><th>State</th><th>Benchmark</th><th>d / d&#771;</th><th>Progress</th><th>Initial</th><th>Current</th><th>Best</th><th>&eta;</th><th>Duration</th></tr></thead>\n<tbody>\n"); err != nil {
			return err
		}

		now := time.Now()
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := jobRow(w, j, now); err != nil {
				return err
			}
		}

		if _, err := io.WriteString(w, "</tbody>\n</table>\n"); err != nil {
			return err
		}
		_, err := io.WriteString(w, pageFoot)
		return err
	})
}

func jobRow(w io.Writer, j JobListItem, now time.Time) error {
	state := templ.EscapeString(j.State)
	title := ""
	if j.Error != "" {
		title = fmt.Sprintf(` title="%s"`, templ.EscapeString(j.Error))
	}

	_, err := fmt.Fprintf(w,
		`<tr><td><a href="/api/v1/jobs/%[1]s/status">%[1]s</a></td><td class="state-%[2]s"%[3]s>%[2]s</td><td>%[4]s</td>`+
			`<td class="num">%[5]d / %[6]d</td><td class="num">%[7]d / %[8]d (%.0[9]f%%)</td>`+
			`<td class="num">%.6[10]g</td><td class="num">%.6[11]g</td><td class="num">%.6[12]g</td><td class="num">%.4[13]g</td><td class="num">%[14]s</td></tr>`+"\n",
		templ.EscapeString(j.ID), state, title, templ.EscapeString(j.Benchmark),
		j.Dimension, j.Reduced, j.Iteration, j.MaxIteration, j.Progress(),
		j.InitialValue, j.CurrentValue, j.BestValue, j.StepSize, j.Duration(now),
	)
	return err
}

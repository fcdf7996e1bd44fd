package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ajitpratap0/colpir/internal/session"
	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/json"
)

type sourceInfo struct {
	Path      string `json:"path"`
	Format    string `json:"format"`
	Synthetic bool   `json:"synthetic,omitempty"`
	Rows      uint64 `json:"rows"`
	BitWidth  uint   `json:"bit_width"`
}

// runReport is everything the run command prints.
type runReport struct {
	Source      sourceInfo         `json:"source"`
	Load        *ingest.LoadReport `json:"load,omitempty"`
	DatabaseMiB float64            `json:"database_mib"`
	Result      *session.Result    `json:"result"`
	Telemetry   *session.Telemetry `json:"telemetry"`
	Error       string             `json:"error,omitempty"`
}

func renderRun(w io.Writer, rep *runReport, output string) error {
	if output == "json" {
		return json.Write(w, rep)
	}

	tel := rep.Telemetry
	summary := newTable(w)
	summary.SetTitle("Database")
	summary.AppendRows([]table.Row{
		{"source", fmt.Sprintf("%s (%s)", rep.Source.Path, rep.Source.Format)},
		{"entries", humanize.Comma(int64(rep.Source.Rows))},
		{"bit width", rep.Source.BitWidth},
		{"size", fmt.Sprintf("%.3f MiB", rep.DatabaseMiB)},
		{"layout", fmt.Sprintf("%d x %d, %d digit(s) per entry", tel.Rows, tel.Cols, tel.Digits)},
		{"lwe dimension", tel.LWEDim},
	})
	if l := rep.Load; l != nil && (l.Clamped > 0 || l.Zeroed() > 0 || l.Short) {
		summary.AppendRow(table.Row{"load repairs", fmt.Sprintf("%d clamped, %d zeroed", l.Clamped, l.Zeroed())})
		if l.Short {
			summary.AppendRow(table.Row{"rows consumed", fmt.Sprintf("%d of %d", l.Consumed, l.Rows)})
		}
	}
	summary.Render()
	fmt.Fprintln(w)

	sizes := newTable(w)
	sizes.SetTitle("Artifacts")
	sizes.AppendHeader(table.Row{"artifact", "size"})
	for _, a := range []struct {
		name  string
		bytes int
	}{
		{"public matrix", tel.Sizes.PublicMatrix},
		{"packed database", tel.Sizes.PackedDB},
		{"hint", tel.Sizes.Hint},
		{"query", tel.Sizes.Query},
		{"answer", tel.Sizes.Answer},
		{"proof", tel.Sizes.Proof},
	} {
		if a.bytes > 0 {
			sizes.AppendRow(table.Row{a.name, humanize.IBytes(uint64(a.bytes))})
		}
	}
	sizes.Render()
	fmt.Fprintln(w)

	phases := newTable(w)
	phases.SetTitle("Timings")
	phases.AppendHeader(table.Row{"phase", "duration"})
	for _, p := range tel.Phases {
		phases.AppendRow(table.Row{p.Phase, roundDuration(p.Duration)})
	}
	if b := tel.Benchmark; b != nil {
		phases.AppendSeparator()
		for _, s := range []struct {
			name  string
			stats session.LatencyStats
		}{
			{"query", b.Query}, {"answer", b.Answer}, {"recover", b.Recover},
		} {
			phases.AppendRow(table.Row{
				fmt.Sprintf("%s (x%d)", s.name, b.Repetitions),
				fmt.Sprintf("%v ± %v", roundDuration(s.stats.Mean), roundDuration(s.stats.StdDev)),
			})
		}
	}
	phases.Render()
	fmt.Fprintln(w)

	renderResult(w, rep.Result)
	return nil
}

func renderResult(w io.Writer, res *session.Result) {
	fmt.Fprintf(w, "index %d: recovered %d", res.Index, res.Recovered)
	switch {
	case !res.Checked:
		color.New(color.FgYellow).Fprintln(w, " UNCHECKED (fake hint)")
	case res.Match:
		color.New(color.FgGreen).Fprintf(w, " PASS (expected %d)\n", res.Expected)
	default:
		color.New(color.FgRed).Fprintf(w, " FAIL (expected %d)\n", res.Expected)
	}

	if !res.Proved {
		return
	}
	if res.Verified {
		color.New(color.FgGreen).Fprintln(w, "proof verified")
	} else {
		color.New(color.FgRed).Fprintln(w, "proof REJECTED")
	}
}

func newTable(w io.Writer) table.Writer {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	return tbl
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(time.Microsecond)
	default:
		return d
	}
}

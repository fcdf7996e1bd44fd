package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/ajitpratap0/colpir/pkg/config"
	"github.com/ajitpratap0/colpir/pkg/ingest"
	"github.com/ajitpratap0/colpir/pkg/json"
)

func newStatsCmd() *cobra.Command {
	var (
		bits     uint
		column   string
		noHeader bool
		output   string
	)

	cmd := &cobra.Command{
		Use:   "stats path",
		Short: "Describe a source column",
		Long: `Count the rows of a source column, find the range of its values and
compare it with a bit width. Non-numeric and negative cells are counted as
invalid; nothing is rejected.

Example:
  colpir stats data.csv --bits 16`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkOutput(output); err != nil {
				return err
			}
			desc := ingest.NewDescriptor(args[0], !noHeader, column)
			src, err := ingest.Open(desc)
			if err != nil {
				return err
			}
			defer src.Close()

			stats, err := ingest.CollectStats(cmd.Context(), src, ingest.BitWidth(bits))
			if err != nil {
				return err
			}
			if output == "json" {
				return json.Write(cmd.OutOrStdout(), stats)
			}
			renderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().UintVarP(&bits, "bits", "d", config.DefaultBitWidth, "Bit width to compare against (1-64)")
	cmd.Flags().StringVar(&column, "column", "", "Parquet column name (default: first column)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "The CSV file has no header row")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Report format (text, json)")
	return cmd
}

func renderStats(w io.Writer, s *ingest.Stats) {
	tbl := newTable(w)
	tbl.SetTitle(s.Path)
	tbl.AppendRows([]table.Row{
		{"format", s.Format},
		{"rows", humanize.Comma(int64(s.Rows))},
		{"numeric", humanize.Comma(int64(s.Present))},
		{"invalid", humanize.Comma(int64(s.Invalid))},
	})
	if s.HasValues() {
		tbl.AppendRows([]table.Row{
			{"min", s.Min},
			{"max", s.Max},
			{"suggested bit width", s.SuggestedWidth},
		})
	}
	tbl.AppendRows([]table.Row{
		{"bit width", s.BitWidth},
		{"max allowed", s.MaxAllowed},
		{"database size", fmt.Sprintf("%.3f MiB", s.SizeMiB)},
	})
	tbl.Render()

	switch {
	case s.Max > s.MaxAllowed:
		color.New(color.FgRed).Fprintf(w, "values exceed %d bits, use --bits %d\n", s.BitWidth, s.SuggestedWidth)
	case s.Invalid > 0:
		color.New(color.FgYellow).Fprintf(w, "%d invalid cell(s), validation will fail\n", s.Invalid)
	default:
		color.New(color.FgGreen).Fprintln(w, "column fits")
	}
}

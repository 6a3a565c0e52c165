package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"logreader/internal/report"
	"logreader/internal/search"
)

const (
	formatText     = "text"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

var flagFormat string

var searchCmd = &cobra.Command{
	Use:   "search SN",
	Short: "Print the logs recorded for a serial number",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSearch(cmd, args[0], flagFormat)
	},
}

func init() {
	searchCmd.Flags().StringVarP(&flagFormat, "format", "f", formatText, "output format: text, markdown or json")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, sn, format string) error {
	switch format {
	case formatText, formatMarkdown, formatJSON:
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	a, err := newApp(os.Stderr)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	pn, err := a.productCode(ctx, sn)
	if err != nil {
		return err
	}

	cands, err := a.searcher.Search(ctx, a.cfg.Search.Roots, pn, sn)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	search.SortByRecency(cands)
	a.recordSearch(sn, pn, len(cands))
	a.log.Debug("search done", zap.String("sn", sn), zap.String("pn", pn), zap.Int("results", len(cands)))

	return writeResults(cmd.OutOrStdout(), report.Query{SN: sn, PN: pn}, cands, format)
}

func writeResults(w io.Writer, q report.Query, cands []search.Candidate, format string) error {
	switch format {
	case formatJSON:
		if cands == nil {
			cands = []search.Candidate{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			SN         string             `json:"sn"`
			PN         string             `json:"pn"`
			Candidates []search.Candidate `json:"candidates"`
		}{q.SN, q.PN, cands})

	case formatMarkdown:
		md := report.Markdown(q, cands)
		if f, ok := w.(*os.File); ok && isTerminal(f) {
			if out, err := glamour.Render(md, "auto"); err == nil {
				md = out
			}
		}
		_, err := io.WriteString(w, md)
		return err
	}

	if len(cands) == 0 {
		_, err := fmt.Fprintf(w, "No logs found for SN %s (PN %s).\n", q.SN, q.PN)
		return err
	}
	return report.Text(w, cands)
}

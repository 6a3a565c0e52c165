package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent searches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(os.Stderr)
		if err != nil {
			return err
		}
		defer a.Close()

		if a.store == nil {
			return fmt.Errorf("history is unavailable: the cache is disabled")
		}
		searches, err := a.store.RecentSearches(flagLimit)
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		if len(searches) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No searches yet.")
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WHEN\tSN\tPN\tLOGS")
		for _, s := range searches {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.SearchedAt.Local().Format("2006-01-02 15:04"), s.SN, s.PN, s.Results)
		}
		return tw.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&flagLimit, "limit", "n", 20, "number of searches to show")
	rootCmd.AddCommand(historyCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	flagConfig   string
	flagPaths    []string
	flagPN       string
	flagLogLevel string
	flagLogFile  string
)

var rootCmd = &cobra.Command{
	Use:   "logreader [SN]",
	Short: "Find the test logs of a unit by serial number",
	Long: `logreader looks up the product code of a serial number and lists the
matching logs from the log archive, newest first.

Run without arguments for the interactive browser. When stdout is not a
terminal the results are printed instead.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var sn string
		if len(args) == 1 {
			sn = args[0]
		}
		if !isTerminal(os.Stdout) {
			if sn == "" {
				return fmt.Errorf("a serial number is required when stdout is not a terminal")
			}
			return runSearch(cmd, sn, formatText)
		}
		return runTUI(cmd, sn)
	},
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default ~/.config/logreader/config.yaml)")
	pf.StringArrayVar(&flagPaths, "path", nil, "archive root to search; repeat to add more (replaces the configured roots)")
	pf.StringVar(&flagPN, "pn", "", "product code; skips the lookup")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&flagLogFile, "log-file", "", "append logs to this file")
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

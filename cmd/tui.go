package cmd

import (
	"github.com/spf13/cobra"

	"logreader/internal/tui"
)

func runTUI(cmd *cobra.Command, sn string) error {
	a, err := newApp(nil)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := tui.Config{
		Roots:    a.cfg.Search.Roots,
		Searcher: a.searcher,
		Resolver: a.resolver,
		Viewer:   a.cfg.Viewer,
		Log:      a.log,
		SN:       sn,
		PN:       flagPN,
	}
	if a.store != nil {
		cfg.History = a.store
	}
	return tui.Run(cmd.Context(), cfg)
}

package tui

import (
	"context"
	"errors"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"logreader/internal/resolver"
	"logreader/internal/search"
)

// resolvedMsg is sent when a product code lookup finishes.
type resolvedMsg struct {
	pn  string
	err error
}

// searchDoneMsg is sent when a search finishes. Candidates are newest first.
type searchDoneMsg struct {
	cands []search.Candidate
	err   error
}

// viewClosedMsg is sent when the pager exits.
type viewClosedMsg struct {
	err error
}

func resolveCmd(ctx context.Context, r resolver.Resolver, sn string) tea.Cmd {
	return func() tea.Msg {
		if r == nil {
			return resolvedMsg{err: resolver.ErrUnavailable}
		}
		pn, err := r.Resolve(ctx, sn)
		return resolvedMsg{pn: pn, err: err}
	}
}

func searchCmd(ctx context.Context, cfg Config, pn, sn string) tea.Cmd {
	return func() tea.Msg {
		cands, err := cfg.Searcher.Search(ctx, cfg.Roots, pn, sn)
		search.SortByRecency(cands)

		if cfg.History != nil && !errors.Is(err, context.Canceled) {
			if herr := cfg.History.RecordSearch(sn, pn, len(cands)); herr != nil {
				cfg.Log.Warn("record search failed", zap.String("sn", sn), zap.Error(herr))
			}
		}
		return searchDoneMsg{cands: cands, err: err}
	}
}

// viewCmd hands the terminal to the configured pager until it exits.
func viewCmd(command string, args []string, path string) tea.Cmd {
	if command == "" {
		command = "less"
	}
	argv := append(append([]string(nil), args...), path)
	c := exec.Command(command, argv...)
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return viewClosedMsg{err: err}
	})
}

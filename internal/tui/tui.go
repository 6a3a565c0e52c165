// Package tui is the interactive front end. It renders the states of a
// flow.Machine and performs the work each state asks for.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"logreader/internal/config"
	"logreader/internal/flow"
	"logreader/internal/resolver"
	"logreader/internal/search"
)

// History records finished searches.
type History interface {
	RecordSearch(sn, pn string, results int) error
}

// Config holds what the CLI layer wires in.
type Config struct {
	Roots    []string
	Searcher *search.Searcher
	// Resolver may be nil; every lookup then falls back to manual entry.
	Resolver resolver.Resolver
	Viewer   config.ViewerConfig
	// History may be nil.
	History History
	Log     *zap.Logger

	// SN and PN are the values given on the command line, if any.
	SN string
	PN string
}

// Model is the top-level Bubble Tea model.
type Model struct {
	ctx     context.Context
	cfg     Config
	machine *flow.Machine

	input   textinput.Model
	spinner spinner.Model
	results resultsModel

	// digits collects a typed selection number.
	digits string
	status string
	width  int
	height int
}

// New creates a model. ctx bounds resolver calls and searches.
func New(ctx context.Context, cfg Config) Model {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Searcher == nil {
		cfg.Searcher = search.New(search.DefaultOptions(), search.WithLogger(cfg.Log))
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = cursorStyle

	ti := textinput.New()
	ti.CharLimit = 128
	ti.Focus()

	m := Model{
		ctx:     ctx,
		cfg:     cfg,
		machine: flow.New(cfg.SN, cfg.PN),
		input:   ti,
		spinner: sp,
		results: newResultsModel(),
	}
	m.resetInput()
	return m
}

func (m *Model) resetInput() {
	m.input.Reset()
	if m.machine.Context().Prompt == flow.PromptPN {
		m.input.Placeholder = "product code, empty to start over"
	} else {
		m.input.Placeholder = "serial number"
	}
}

// State exposes the machine state.
func (m Model) State() flow.State { return m.machine.State() }

func (m Model) Init() tea.Cmd {
	return m.enter()
}

// enter returns the work for the state the machine is in.
func (m *Model) enter() tea.Cmd {
	fc := m.machine.Context()
	switch m.machine.State() {
	case flow.AwaitInput:
		m.resetInput()
		return tea.Batch(m.input.Focus(), textinput.Blink)
	case flow.ResolvePN:
		return tea.Batch(m.spinner.Tick, resolveCmd(m.ctx, m.cfg.Resolver, fc.SN))
	case flow.RunSearch:
		return tea.Batch(m.spinner.Tick, searchCmd(m.ctx, m.cfg, fc.PN, fc.SN))
	case flow.ViewFile:
		c, ok := m.machine.SelectedCandidate()
		if !ok {
			return nil
		}
		m.cfg.Log.Debug("opening log", zap.String("path", c.Path))
		return viewCmd(m.cfg.Viewer.Command, m.cfg.Viewer.Args, c.Path)
	case flow.Exit:
		return tea.Quit
	}
	return nil
}

// fire applies ev and starts the next state's work. Invalid transitions
// come from stale messages and are dropped.
func (m *Model) fire(ev flow.Event) tea.Cmd {
	if _, err := m.machine.Fire(ev); err != nil {
		if errors.Is(err, flow.ErrSelectionRange) {
			m.status = err.Error()
			return nil
		}
		m.cfg.Log.Debug("dropped event", zap.Error(err))
		return nil
	}
	m.status = ""
	return m.enter()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		m.results.setSize(msg.Width, msg.Height-5)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			cmd := m.fire(flow.Event{Trigger: flow.Quit})
			return m, cmd
		}

	case resolvedMsg:
		if msg.err != nil {
			m.cfg.Log.Info("product code not resolved", zap.String("sn", m.machine.Context().SN), zap.Error(msg.err))
			cmd := m.fire(flow.Event{Trigger: flow.PNFailed, Err: msg.err})
			return m, cmd
		}
		cmd := m.fire(flow.Event{Trigger: flow.PNResolved, PN: msg.pn})
		return m, cmd

	case searchDoneMsg:
		cmd := m.fire(flow.Event{Trigger: flow.SearchDone, Candidates: msg.cands, Err: msg.err})
		if m.machine.State() != flow.Display {
			return m, cmd
		}
		m.results.setCandidates(msg.cands)
		m.digits = ""
		cmd = m.fire(flow.Event{Trigger: flow.Displayed})
		return m, cmd

	case viewClosedMsg:
		cmd := m.fire(flow.Event{Trigger: flow.ViewClosed, Err: msg.err})
		return m, cmd

	case spinner.TickMsg:
		switch m.machine.State() {
		case flow.ResolvePN, flow.RunSearch:
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch m.machine.State() {
	case flow.AwaitInput:
		return m.updateInput(msg)
	case flow.AwaitSelection:
		return m.updateSelection(msg)
	}
	return m, nil
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			cmd := m.fire(flow.Event{Trigger: flow.Quit})
			return m, cmd
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if m.machine.Context().Prompt == flow.PromptPN {
				cmd := m.fire(flow.Event{Trigger: flow.PNEntered, Text: text})
				return m, cmd
			}
			if strings.EqualFold(text, "q") {
				cmd := m.fire(flow.Event{Trigger: flow.Quit})
				return m, cmd
			}
			cmd := m.fire(flow.Event{Trigger: flow.SNEntered, Text: text})
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateSelection(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	switch s := key.String(); {
	case s == "q" || s == "Q" || key.Type == tea.KeyEsc:
		cmd := m.fire(flow.Event{Trigger: flow.Quit})
		return m, cmd
	case s == "s" || s == "S":
		m.digits = ""
		cmd := m.fire(flow.Event{Trigger: flow.SearchAgain})
		return m, cmd
	case len(s) == 1 && s[0] >= '0' && s[0] <= '9':
		m.digits += s
		m.status = ""
		return m, nil
	case key.Type == tea.KeyBackspace:
		if m.digits != "" {
			m.digits = m.digits[:len(m.digits)-1]
		}
		return m, nil
	case key.Type == tea.KeyEnter:
		choice := m.results.choice()
		if m.digits != "" {
			n, err := strconv.Atoi(m.digits)
			m.digits = ""
			if err != nil {
				m.status = "please enter a number"
				return m, nil
			}
			choice = n
		}
		cmd := m.fire(flow.Event{Trigger: flow.Selected, Choice: choice})
		return m, cmd
	}

	var cmd tea.Cmd
	m.results, cmd = m.results.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	fc := m.machine.Context()

	var body string
	switch m.machine.State() {
	case flow.AwaitInput:
		body = m.inputView(fc)
	case flow.ResolvePN:
		body = fmt.Sprintf("  %s %s\n", m.spinner.View(),
			busyStyle.Render("Resolving product code for SN "+fc.SN+"..."))
	case flow.RunSearch:
		body = fmt.Sprintf("  %s %s\n", m.spinner.View(),
			busyStyle.Render(fmt.Sprintf("Searching %d directories for SN %s (PN %s)...", len(m.cfg.Roots), fc.SN, fc.PN)))
	case flow.Display, flow.AwaitSelection:
		body = m.selectionView(fc)
	case flow.ViewFile:
		if c, ok := m.machine.SelectedCandidate(); ok {
			body = busyStyle.Render("  Opening ") + pathStyle.Render(c.Path) + "\n"
		}
	case flow.Exit:
		return ""
	}

	header := headerStyle.Render("  ◆ logreader") + "\n" +
		taglineStyle.Render("  Find the logs of a unit by serial number") + "\n\n"
	return header + body
}

func (m Model) inputView(fc flow.Context) string {
	var sb strings.Builder
	if fc.Prompt == flow.PromptPN {
		sb.WriteString(failStyle.Render("  Could not resolve the product code for SN "+fc.SN+".") + "\n")
		if fc.Err != nil {
			sb.WriteString(hintStyle.Render("  "+fc.Err.Error()) + "\n")
		}
		sb.WriteString("\n  " + promptStyle.Render("Product code (PN):") + " " + m.input.View() + "\n\n")
		sb.WriteString(hintStyle.Render("  enter search • empty to start over • esc quit") + "\n")
		return sb.String()
	}
	sb.WriteString("  " + promptStyle.Render("Serial number (SN):") + " " + m.input.View() + "\n\n")
	sb.WriteString(hintStyle.Render("  enter search • q quit") + "\n")
	return sb.String()
}

func (m Model) selectionView(fc flow.Context) string {
	var sb strings.Builder
	if fc.Err != nil {
		sb.WriteString(failStyle.Render("  Error: "+fc.Err.Error()) + "\n\n")
	}

	if len(fc.Candidates) == 0 {
		sb.WriteString(emptyStyle.Render(fmt.Sprintf("  No logs found for SN %s (PN %s).", fc.SN, fc.PN)) + "\n\n")
		sb.WriteString(hintStyle.Render("  s search again • q quit") + "\n")
		return sb.String()
	}

	sb.WriteString(foundStyle.Render(fmt.Sprintf("  %d logs for SN %s (PN %s)", len(fc.Candidates), fc.SN, fc.PN)) + "\n\n")
	sb.WriteString(m.results.View() + "\n")

	status := "↑/↓ navigate • enter view • number+enter pick • s search again • q quit"
	if m.digits != "" {
		status = "select #" + m.digits
	}
	if m.status != "" {
		status = m.status
	}
	style := statusBarStyle
	if m.width > 0 {
		style = style.Width(m.width)
	}
	bar := style.Render(status)
	return lipgloss.JoinVertical(lipgloss.Left, sb.String(), bar)
}

// Run starts the TUI program.
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(New(ctx, cfg), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

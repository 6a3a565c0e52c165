// Package flow is the interactive lookup loop as an explicit state machine:
// read a serial number, resolve its product code, search, show results,
// let the user pick a log to view, and repeat until they quit.
//
// The machine holds no I/O. Drivers (the TUI) perform the work a state
// asks for and report the outcome by firing a Trigger.
package flow

import (
	"errors"
	"fmt"
	"strings"

	"logreader/internal/search"
)

// State is a step of the interactive loop.
type State int

const (
	AwaitInput State = iota
	ResolvePN
	RunSearch
	Display
	AwaitSelection
	ViewFile
	Exit
)

var stateNames = [...]string{"AwaitInput", "ResolvePN", "RunSearch", "Display", "AwaitSelection", "ViewFile", "Exit"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Trigger is an event that moves the machine.
type Trigger int

const (
	// SNEntered carries a non-empty serial number.
	SNEntered Trigger = iota
	// PNEntered carries a manually typed product code; empty abandons the SN.
	PNEntered
	PNResolved
	PNFailed
	SearchDone
	Displayed
	Selected
	ViewClosed
	SearchAgain
	Quit
)

var triggerNames = [...]string{"SNEntered", "PNEntered", "PNResolved", "PNFailed", "SearchDone", "Displayed", "Selected", "ViewClosed", "SearchAgain", "Quit"}

func (t Trigger) String() string {
	if int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return fmt.Sprintf("Trigger(%d)", int(t))
}

// Prompt says what AwaitInput is waiting for.
type Prompt int

const (
	PromptSN Prompt = iota
	// PromptPN is shown after resolution failed.
	PromptPN
)

var (
	// ErrInvalidTransition is returned when a trigger does not apply to the current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrSelectionRange is returned for a selection outside 1..len(candidates).
	ErrSelectionRange = errors.New("selection out of range")
)

// Context is the data carried between states.
type Context struct {
	Prompt Prompt
	SN     string
	PN     string
	// FixedPN is a product code given up front (--pn); it skips resolution
	// for the first search only.
	FixedPN    string
	Candidates []search.Candidate
	// Selected is the 0-based index of the candidate being viewed.
	Selected int
	Err      error
}

// Event is a trigger with its payload.
type Event struct {
	Trigger Trigger
	// Text is the SN or PN typed by the user.
	Text string
	// PN is the resolved product code.
	PN string
	// Candidates are the search results, already in display order.
	Candidates []search.Candidate
	// Choice is the 1-based selection.
	Choice int
	Err    error
}

// Machine is the interactive loop. The zero value is not usable; call New.
type Machine struct {
	state State
	ctx   Context
}

// New starts a machine in AwaitInput. A non-empty sn skips the first
// prompt; a non-empty pn skips the first resolution.
func New(sn, pn string) *Machine {
	m := &Machine{state: AwaitInput, ctx: Context{FixedPN: strings.TrimSpace(pn)}}
	if sn = strings.TrimSpace(sn); sn != "" {
		m.ctx.SN = sn
		m.state = m.afterSN()
	}
	return m
}

// State returns the current state.
func (m *Machine) State() State { return m.state }

// Context returns a copy of the carried data.
func (m *Machine) Context() Context { return m.ctx }

// SelectedCandidate returns the candidate chosen for viewing.
func (m *Machine) SelectedCandidate() (search.Candidate, bool) {
	if m.ctx.Selected < 0 || m.ctx.Selected >= len(m.ctx.Candidates) {
		return search.Candidate{}, false
	}
	return m.ctx.Candidates[m.ctx.Selected], true
}

// Fire applies ev and returns the new state. Quit is accepted everywhere.
func (m *Machine) Fire(ev Event) (State, error) {
	if ev.Trigger == Quit {
		m.state = Exit
		return m.state, nil
	}

	switch m.state {
	case AwaitInput:
		switch {
		case ev.Trigger == SNEntered && m.ctx.Prompt == PromptSN:
			sn := strings.TrimSpace(ev.Text)
			if sn == "" {
				return m.state, nil
			}
			m.reset()
			m.ctx.SN = sn
			m.state = m.afterSN()
			return m.state, nil
		case ev.Trigger == PNEntered && m.ctx.Prompt == PromptPN:
			pn := strings.TrimSpace(ev.Text)
			if pn == "" {
				m.reset()
				m.ctx.SN = ""
				m.state = AwaitInput
				return m.state, nil
			}
			m.ctx.PN = pn
			m.ctx.Err = nil
			m.state = RunSearch
			return m.state, nil
		}

	case ResolvePN:
		switch ev.Trigger {
		case PNResolved:
			m.ctx.PN = strings.TrimSpace(ev.PN)
			if m.ctx.PN == "" {
				return m.failResolve(ev.Err)
			}
			m.state = RunSearch
			return m.state, nil
		case PNFailed:
			return m.failResolve(ev.Err)
		}

	case RunSearch:
		if ev.Trigger == SearchDone {
			m.ctx.Candidates = ev.Candidates
			m.ctx.Err = ev.Err
			m.state = Display
			return m.state, nil
		}

	case Display:
		if ev.Trigger == Displayed {
			m.state = AwaitSelection
			return m.state, nil
		}

	case AwaitSelection:
		switch ev.Trigger {
		case Selected:
			if ev.Choice < 1 || ev.Choice > len(m.ctx.Candidates) {
				return m.state, fmt.Errorf("%w: %d not in 1..%d", ErrSelectionRange, ev.Choice, len(m.ctx.Candidates))
			}
			m.ctx.Selected = ev.Choice - 1
			m.state = ViewFile
			return m.state, nil
		case SearchAgain:
			m.reset()
			m.ctx.SN = ""
			m.state = AwaitInput
			return m.state, nil
		}

	case ViewFile:
		if ev.Trigger == ViewClosed {
			m.ctx.Err = ev.Err
			m.state = AwaitSelection
			return m.state, nil
		}
	}

	return m.state, fmt.Errorf("%w: %s in %s", ErrInvalidTransition, ev.Trigger, m.state)
}

// afterSN picks ResolvePN or, when a fixed PN is pending, RunSearch.
func (m *Machine) afterSN() State {
	if m.ctx.FixedPN != "" {
		m.ctx.PN = m.ctx.FixedPN
		m.ctx.FixedPN = ""
		return RunSearch
	}
	return ResolvePN
}

func (m *Machine) failResolve(err error) (State, error) {
	m.ctx.PN = ""
	m.ctx.Err = err
	m.ctx.Prompt = PromptPN
	m.state = AwaitInput
	return m.state, nil
}

// reset clears per-search data, keeping nothing but FixedPN.
func (m *Machine) reset() {
	m.ctx = Context{FixedPN: m.ctx.FixedPN}
}

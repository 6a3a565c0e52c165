package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"logreader/internal/report"
	"logreader/internal/search"
)

// resultsModel is the numbered result list with a detail pane for the
// highlighted candidate.
type resultsModel struct {
	cands    []search.Candidate
	cursor   int
	offset   int
	detail   viewport.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
}

func newResultsModel() resultsModel {
	return resultsModel{detail: viewport.New(0, 0)}
}

func (m *resultsModel) setCandidates(cands []search.Candidate) {
	m.cands = cands
	m.cursor = 0
	m.offset = 0
	m.refreshDetail()
}

func (m *resultsModel) setSize(width, height int) {
	m.width = width
	m.height = height

	m.detail.Width = width
	m.detail.Height = max(height-m.listHeight()-1, 3)

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(max(width-2, 20)),
	)
	if err == nil {
		m.renderer = r
	}
	m.refreshDetail()
}

// listHeight is the number of rows given to the list: up to half the screen.
func (m resultsModel) listHeight() int {
	h := m.height / 2
	if h < 3 {
		h = 3
	}
	return min(h, len(m.cands))
}

func (m *resultsModel) move(delta int) {
	if len(m.cands) == 0 {
		return
	}
	m.cursor = min(max(m.cursor+delta, 0), len(m.cands)-1)

	rows := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	} else if rows > 0 && m.cursor >= m.offset+rows {
		m.offset = m.cursor - rows + 1
	}
	m.refreshDetail()
}

// choice is the 1-based number of the highlighted candidate.
func (m resultsModel) choice() int { return m.cursor + 1 }

func (m *resultsModel) refreshDetail() {
	if len(m.cands) == 0 {
		m.detail.SetContent("")
		return
	}
	md := report.Detail(m.cands[m.cursor])
	if m.renderer != nil {
		if out, err := m.renderer.Render(md); err == nil {
			md = strings.TrimRight(out, "\n")
		}
	}
	m.detail.SetContent(md)
	m.detail.GotoTop()
}

func (m resultsModel) Update(msg tea.Msg) (resultsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			m.move(-1)
			return m, nil
		case "down", "j":
			m.move(1)
			return m, nil
		case "home", "g":
			m.move(-len(m.cands))
			return m, nil
		case "end", "G":
			m.move(len(m.cands))
			return m, nil
		}
	}

	// Remaining keys scroll the detail pane.
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m resultsModel) View() string {
	var sb strings.Builder
	rows := m.listHeight()
	if rows == 0 {
		rows = len(m.cands)
	}
	end := min(m.offset+rows, len(m.cands))
	for i := m.offset; i < end; i++ {
		line := report.Line(i+1, m.cands[i])
		if i == m.cursor {
			sb.WriteString(cursorStyle.Render(cursorMark + line))
		} else {
			sb.WriteString(rowStyle.Render("  " + line))
		}
		for _, tag := range m.cands[i].Tags {
			sb.WriteString(" " + tagStyle.Render(tag))
		}
		sb.WriteString("\n")
	}
	list := strings.TrimRight(sb.String(), "\n")

	if m.height == 0 {
		return list
	}
	more := hintStyle.Render(fmt.Sprintf("  %d of %d", m.cursor+1, len(m.cands)))
	return lipgloss.JoinVertical(lipgloss.Left, list, more, m.detail.View())
}

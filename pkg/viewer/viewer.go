// Package viewer is a terminal browser for the results of one analysis run.
package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	summaryStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1).
			MarginLeft(2)

	filterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF0000")).
			Padding(0, 1).
			MarginLeft(2)

	detailStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(0, 1).
			MarginLeft(2)

	unreachableStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FF0000")).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type keyMap struct {
	Filter key.Binding
	Up     key.Binding
	Down   key.Binding
	Help   key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Filter: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "unreachable only"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Filter, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.Filter, k.Help, k.Quit},
	}
}

var columns = []table.Column{
	{Title: "Source", Width: 8},
	{Title: "Dest", Width: 8},
	{Title: "Total km", Width: 10},
	{Title: "Regenerators", Width: 18},
	{Title: "OPCs", Width: 14},
	{Title: "Residual km", Width: 12},
	{Title: "Status", Width: 12},
}

// Model is the bubbletea model of the viewer.
type Model struct {
	run     report.Run
	results []pathanalysis.AnalysisResult
	summary pathanalysis.Summary
	visible []int // indices into results shown in the table
	onlyBad bool
	table   table.Model
	help    help.Model
	keys    keyMap
	width   int
	height  int
}

// New builds a viewer over results.
func New(run report.Run, results []pathanalysis.AnalysisResult) Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	m := Model{
		run:     run,
		results: results,
		summary: pathanalysis.Summarize(results),
		table:   t,
		help:    help.New(),
		keys:    keys,
	}
	m.refresh()
	return m
}

// Run starts the viewer on the terminal and blocks until the user quits.
func Run(m Model, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		// title, summary box, detail box and help take about 14 lines
		if h := msg.Height - 14; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Filter):
			m.onlyBad = !m.onlyBad
			m.refresh()
			return m, nil

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// refresh rebuilds the table rows for the current filter.
func (m *Model) refresh() {
	m.visible = make([]int, 0, len(m.results))
	rows := make([]table.Row, 0, len(m.results))
	for i, r := range m.results {
		if m.onlyBad && r.Status != pathanalysis.StatusUnreachable {
			continue
		}
		m.visible = append(m.visible, i)
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", r.Source),
			fmt.Sprintf("%d", r.Destination),
			fmt.Sprintf("%.2f", r.TotalDistance),
			report.JoinIDs(r.Regenerators),
			report.JoinIDs(r.OPCs),
			fmt.Sprintf("%.2f", r.ResidualDistance),
			string(r.Status),
		})
	}
	m.table.SetRows(rows)
	m.table.GotoTop()
}

// Visible returns the results currently listed, in table order.
func (m Model) Visible() []pathanalysis.AnalysisResult {
	out := make([]pathanalysis.AnalysisResult, len(m.visible))
	for i, idx := range m.visible {
		out[i] = m.results[idx]
	}
	return out
}

// Selected returns the highlighted result.
func (m Model) Selected() (pathanalysis.AnalysisResult, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.visible) {
		return pathanalysis.AnalysisResult{}, false
	}
	return m.results[m.visible[c]], true
}

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render("optipath · regenerator and OPC placement"))
	s.WriteString("\n\n")
	s.WriteString(summaryStyle.Render(m.renderSummary()))
	s.WriteString("\n")

	if m.onlyBad {
		s.WriteString(filterStyle.Render("UNREACHABLE only"))
		s.WriteString("\n")
	}

	if len(m.visible) == 0 {
		s.WriteString("\n  no paths to show\n")
	} else {
		s.WriteString(m.table.View())
		s.WriteString("\n")
		s.WriteString(detailStyle.Render(m.renderDetail()))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m Model) renderSummary() string {
	sum := m.summary
	lines := []string{
		fmt.Sprintf("Run %s  threshold %.0f km  policy %s", shortID(m.run.ID), m.run.ReachThresholdKm, m.run.ResidualPolicy),
		fmt.Sprintf("Paths: %d   OK: %d   %s   Regenerators: %d   OPCs: %d   Residual: %.2f km",
			sum.Paths, sum.OK, unreachableStyle.Render(fmt.Sprintf("UNREACHABLE: %d", sum.Unreachable)),
			sum.Regenerators, sum.OPCs, sum.ResidualDistance),
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderDetail() string {
	r, ok := m.Selected()
	if !ok {
		return ""
	}
	if r.Status == pathanalysis.StatusUnreachable {
		return fmt.Sprintf("%d->%d  unreachable within %.0f km", r.Source, r.Destination, m.run.ReachThresholdKm)
	}

	secs := make([]string, len(r.Sections))
	for i, sec := range r.Sections {
		secs[i] = fmt.Sprintf("[%d..%d]", sec.Start, sec.End)
	}
	if len(secs) == 0 {
		secs = []string{"none"}
	}
	return fmt.Sprintf("%d->%d  stage %s\nsections %s\nregenerator positions %v  OPC positions %v",
		r.Source, r.Destination, r.Stage, strings.Join(secs, " "), r.RegeneratorIndices, r.OPCIndices)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	if id == "" {
		return "-"
	}
	return id
}

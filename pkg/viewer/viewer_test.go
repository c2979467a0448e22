package viewer

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

func testModel() Model {
	results := []pathanalysis.AnalysisResult{
		{
			Source: 1, Destination: 2, TotalDistance: 3700, ResidualDistance: 2300,
			Regenerators: []pathanalysis.NodeID{4, 5}, OPCs: []pathanalysis.NodeID{3},
			RegeneratorIndices: []int{2, 3}, OPCIndices: []int{1},
			Sections: []pathanalysis.Section{{Start: 0, End: 2}, {Start: 2, End: 3}, {Start: 3, End: 4}},
			Status:   pathanalysis.StatusOK, Stage: pathanalysis.StageResidualComputed,
		},
		{
			Source: 1, Destination: 3, TotalDistance: 2100,
			Regenerators: []pathanalysis.NodeID{}, OPCs: []pathanalysis.NodeID{},
			Status: pathanalysis.StatusUnreachable, Stage: pathanalysis.StageUnreachable,
		},
		{
			Source: 2, Destination: 3, TotalDistance: 500, ResidualDistance: 500,
			Regenerators: []pathanalysis.NodeID{}, OPCs: []pathanalysis.NodeID{},
			Status: pathanalysis.StatusOK, Stage: pathanalysis.StageResidualComputed,
		},
	}
	run := report.Run{ID: "0123456789abcdef", ReachThresholdKm: 1500, ResidualPolicy: "canonical"}
	return New(run, results)
}

func press(m Model, keys string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model)
}

func TestNew_ListsEverything(t *testing.T) {
	m := testModel()

	assert.Len(t, m.Visible(), 3)
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, pathanalysis.NodeID(2), sel.Destination)
}

func TestUpdate_ToggleUnreachable(t *testing.T) {
	m := press(testModel(), "u")

	visible := m.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, pathanalysis.StatusUnreachable, visible[0].Status)
	assert.Contains(t, m.View(), "UNREACHABLE only")

	m = press(m, "u")
	assert.Len(t, m.Visible(), 3)
	assert.NotContains(t, m.View(), "UNREACHABLE only")
}

func TestUpdate_Navigate(t *testing.T) {
	m := testModel()

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)

	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, pathanalysis.StatusUnreachable, sel.Status)
	assert.Contains(t, m.View(), "unreachable within 1500 km")
}

func TestUpdate_Quit(t *testing.T) {
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := testModel().Update(msg)
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestUpdate_WindowSize(t *testing.T) {
	next, cmd := testModel().Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m := next.(Model)

	assert.Nil(t, cmd)
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestUpdate_ToggleHelp(t *testing.T) {
	m := press(testModel(), "?")
	assert.True(t, m.help.ShowAll)
}

func TestView(t *testing.T) {
	out := testModel().View()

	assert.Contains(t, out, "Run 01234567")
	assert.Contains(t, out, "Paths: 3")
	assert.Contains(t, out, "UNREACHABLE: 1")
	assert.Contains(t, out, "4,5")
	assert.Contains(t, out, "[0..2] [2..3] [3..4]")
}

func TestView_Empty(t *testing.T) {
	m := New(report.Run{}, nil)

	_, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "no paths to show")
	assert.Contains(t, m.View(), "Run -")
}

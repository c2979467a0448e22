package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
)

func sampleResults(t *testing.T) []pathanalysis.AnalysisResult {
	t.Helper()
	hops := func(links ...float64) []pathanalysis.Hop {
		nodes := []pathanalysis.Hop{{ID: 1, DistanceToNext: 0.01}}
		for i, d := range links {
			nodes = append(nodes, pathanalysis.Hop{ID: pathanalysis.NodeID(i + 2), DistanceToNext: d})
		}
		nodes = append(nodes, pathanalysis.Hop{ID: pathanalysis.NodeID(len(links) + 2), DistanceToNext: 0.01})
		return append(nodes, pathanalysis.Hop{ID: 99})
	}

	a, err := pathanalysis.New()
	require.NoError(t, err)

	var out []pathanalysis.AnalysisResult
	for _, nodes := range [][]pathanalysis.Hop{
		hops(100, 1200, 1200, 1200),
		hops(1800, 100, 100, 100),
	} {
		res, err := a.Analyze(pathanalysis.PathRecord{Source: 1, Destination: 99, Nodes: nodes})
		require.NoError(t, err)
		out = append(out, res)
	}
	return out
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatFromPath("out/results.json", FormatCSV))
	assert.Equal(t, FormatYAML, FormatFromPath("results.yml", FormatCSV))
	assert.Equal(t, FormatCSV, FormatFromPath("results", FormatCSV))
	assert.Equal(t, FormatJSON, FormatFromPath("results.txt", FormatJSON))
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, Run{}, sampleResults(t)))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"1", "99", "3700.00", "4,5", "2", "3", "1", "2300.00", "OK"}, rows[1])
	assert.Equal(t, []string{"1", "99", "2100.00", "None", "0", "None", "0", "0.00", "UNREACHABLE"}, rows[2])
}

func TestWrite_CSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatCSV, Run{}, nil))
	assert.Equal(t, strings.Join(CSVHeader, ",")+"\n", buf.String())
}

func TestWrite_JSON(t *testing.T) {
	run := NewRun("simon.txt", 1500, pathanalysis.ResidualCanonical)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatJSON, run, sampleResults(t)))

	var doc Document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, run.ID, doc.Run.ID)
	assert.Equal(t, 1500.0, doc.Run.ReachThresholdKm)
	assert.Equal(t, "canonical", doc.Run.ResidualPolicy)
	assert.False(t, doc.GeneratedAt.IsZero())
	assert.Equal(t, 2, doc.Summary.Paths)
	assert.Equal(t, 1, doc.Summary.Unreachable)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, []pathanalysis.NodeID{4, 5}, doc.Results[0].Regenerators)
	assert.Equal(t, pathanalysis.StageUnreachable, doc.Results[1].Stage)
}

func TestWrite_YAML(t *testing.T) {
	run := NewRun("simon.txt", 1500, pathanalysis.ResidualCanonical)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, run, sampleResults(t)))
	assert.Contains(t, buf.String(), "stage: RESIDUAL_COMPUTED")

	var doc Document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, run.ID, doc.Run.ID)
	require.Len(t, doc.Results, 2)
	assert.Equal(t, 2300.0, doc.Results[0].ResidualDistance)
	assert.Equal(t, []pathanalysis.NodeID{3}, doc.Results[0].OPCs)
	assert.Equal(t, pathanalysis.StatusUnreachable, doc.Results[1].Status)
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), Run{}, nil))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "results.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, WriteFile(path, FormatCSV, Run{}, sampleResults(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "SourceNodeID,"))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteFile_MissingDir(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "missing", "out.csv"), FormatCSV, Run{}, nil)
	assert.Error(t, err)
}

func TestJoinIDs(t *testing.T) {
	assert.Equal(t, "None", JoinIDs(nil))
	assert.Equal(t, "7", JoinIDs([]pathanalysis.NodeID{7}))
	assert.Equal(t, "7,8,9", JoinIDs([]pathanalysis.NodeID{7, 8, 9}))
}

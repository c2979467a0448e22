// Package report renders analysis results as CSV, JSON or YAML.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
)

// Format is an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatNames lists the accepted format names.
func FormatNames() []string {
	return []string{string(FormatCSV), string(FormatJSON), string(FormatYAML)}
}

// ParseFormat converts a name to a Format. "yml" is accepted for YAML and the
// empty string selects CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want one of %s)", s, strings.Join(FormatNames(), ", "))
	}
}

// FormatFromPath guesses a Format from a file extension, falling back to def.
func FormatFromPath(path string, def Format) Format {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return def
	}
	if f, err := ParseFormat(ext); err == nil {
		return f
	}
	return def
}

// Run describes one analyze invocation.
type Run struct {
	ID               string    `json:"id" yaml:"id"`
	Input            string    `json:"input,omitempty" yaml:"input,omitempty"`
	ReachThresholdKm float64   `json:"reachThresholdKm" yaml:"reachThresholdKm"`
	ResidualPolicy   string    `json:"residualPolicy" yaml:"residualPolicy"`
	StartedAt        time.Time `json:"startedAt" yaml:"startedAt"`
}

// NewRun starts a run with a fresh id.
func NewRun(input string, threshold float64, policy pathanalysis.ResidualPolicy) Run {
	return Run{
		ID:               uuid.New().String(),
		Input:            input,
		ReachThresholdKm: threshold,
		ResidualPolicy:   policy.String(),
		StartedAt:        time.Now().UTC(),
	}
}

// Document is the JSON and YAML report body.
type Document struct {
	Run         Run                           `json:"run" yaml:"run"`
	GeneratedAt time.Time                     `json:"generatedAt" yaml:"generatedAt"`
	Summary     pathanalysis.Summary          `json:"summary" yaml:"summary"`
	Results     []pathanalysis.AnalysisResult `json:"results" yaml:"results"`
}

// CSVHeader is the first row of a CSV report.
var CSVHeader = []string{
	"SourceNodeID",
	"DestinationNodeID",
	"TotalDistance_km",
	"RegeneratorLocations",
	"NumberOfRegenerators",
	"OPCLocations",
	"NumberOfOPCs",
	"ResidualDistance_km",
	"Status",
}

// Write renders results to w.
func Write(w io.Writer, format Format, run Run, results []pathanalysis.AnalysisResult) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, results)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(newDocument(run, results)); err != nil {
			return fmt.Errorf("failed to encode json report: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newDocument(run, results)); err != nil {
			return fmt.Errorf("failed to encode yaml report: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

// WriteFile renders results to path, replacing it only once the report is
// complete.
func WriteFile(path string, format Format, run Run, results []pathanalysis.AnalysisResult) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = Write(tmp, format, run, results); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("failed to set report permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

func newDocument(run Run, results []pathanalysis.AnalysisResult) Document {
	if results == nil {
		results = []pathanalysis.AnalysisResult{}
	}
	return Document{
		Run:         run,
		GeneratedAt: time.Now().UTC(),
		Summary:     pathanalysis.Summarize(results),
		Results:     results,
	}
}

func writeCSV(w io.Writer, results []pathanalysis.AnalysisResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range results {
		if err := cw.Write(csvRow(r)); err != nil {
			return fmt.Errorf("failed to write csv row %d->%d: %w", r.Source, r.Destination, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv report: %w", err)
	}
	return nil
}

func csvRow(r pathanalysis.AnalysisResult) []string {
	return []string{
		strconv.FormatUint(uint64(r.Source), 10),
		strconv.FormatUint(uint64(r.Destination), 10),
		fmt.Sprintf("%.2f", r.TotalDistance),
		JoinIDs(r.Regenerators),
		strconv.Itoa(len(r.Regenerators)),
		JoinIDs(r.OPCs),
		strconv.Itoa(len(r.OPCs)),
		fmt.Sprintf("%.2f", r.ResidualDistance),
		string(r.Status),
	}
}

// JoinIDs renders ids comma-separated, or "None" when there are none.
func JoinIDs(ids []pathanalysis.NodeID) string {
	if len(ids) == 0 {
		return "None"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatUint(uint64(id), 10)
	}
	return strings.Join(parts, ",")
}

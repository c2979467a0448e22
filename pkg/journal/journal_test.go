package journal

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
	"github.com/dd0wney/cluso-optipath/pkg/pathanalysis"
	"github.com/dd0wney/cluso-optipath/pkg/report"
)

func openJournal(t *testing.T, dir string) *Journal {
	t.Helper()
	j, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Failed to open journal: %v", err)
	}
	return j
}

func TestOpen_New(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "journal")
	j := openJournal(t, dir)
	defer j.Close()

	if got := j.Stats().LastSeq; got != 0 {
		t.Errorf("Expected initial seq 0, got %d", got)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
		t.Errorf("Expected journal file to exist: %v", err)
	}
}

func TestAppend_ReadAll(t *testing.T) {
	j := openJournal(t, t.TempDir())
	defer j.Close()

	payloads := []struct {
		kind Kind
		data []byte
	}{
		{KindRunStarted, []byte(`{"id":"a"}`)},
		{KindResult, []byte(`{"runId":"a"}`)},
		{KindRunFinished, []byte(`{"runId":"a"}`)},
	}
	for i, p := range payloads {
		seq, err := j.Append(p.kind, p.data)
		if err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
		if seq != uint64(i+1) {
			t.Errorf("Expected seq %d, got %d", i+1, seq)
		}
	}

	entries, err := j.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if len(entries) != len(payloads) {
		t.Fatalf("Expected %d entries, got %d", len(payloads), len(entries))
	}
	for i, e := range entries {
		if e.Kind != payloads[i].kind {
			t.Errorf("Entry %d: expected kind %s, got %s", i, payloads[i].kind, e.Kind)
		}
		if !bytes.Equal(e.Data, payloads[i].data) {
			t.Errorf("Entry %d: expected data %q, got %q", i, payloads[i].data, e.Data)
		}
		if e.Timestamp == 0 {
			t.Errorf("Entry %d: expected a timestamp", i)
		}
	}
}

func TestReopen_ContinuesSequence(t *testing.T) {
	dir := t.TempDir()

	j := openJournal(t, dir)
	for i := 0; i < 3; i++ {
		if _, err := j.Append(KindResult, []byte("x")); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Failed to close: %v", err)
	}

	j = openJournal(t, dir)
	defer j.Close()

	seq, err := j.Append(KindResult, []byte("y"))
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	if seq != 4 {
		t.Errorf("Expected seq 4 after reopen, got %d", seq)
	}
}

func TestOpen_TrimsTornTail(t *testing.T) {
	dir := t.TempDir()

	j := openJournal(t, dir)
	for i := 0; i < 3; i++ {
		if _, err := j.Append(KindResult, []byte("payload")); err != nil {
			t.Fatalf("Failed to append: %v", err)
		}
	}
	j.Close()

	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-5); err != nil {
		t.Fatal(err)
	}

	j = openJournal(t, dir)
	defer j.Close()

	if got := j.Stats().LastSeq; got != 2 {
		t.Errorf("Expected last seq 2 after trimming, got %d", got)
	}
	if _, err := j.Append(KindResult, []byte("after")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	entries, err := j.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read: %v", err)
	}
	if len(entries) != 3 || string(entries[2].Data) != "after" {
		t.Errorf("Expected the new entry to replace the torn one, got %d entries", len(entries))
	}
}

func TestOpen_LogsTrimOffset(t *testing.T) {
	dir := t.TempDir()

	j := openJournal(t, dir)
	if _, err := j.Append(KindResult, []byte("first")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	j.Close()

	path := filepath.Join(dir, FileName)
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	good := info.Size()

	j = openJournal(t, dir)
	if _, err := j.Append(KindResult, []byte("second")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	j.Close()
	if err := os.Truncate(path, good+3); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	j, err = Open(dir, logging.NewJSONLogger(&buf, logging.InfoLevel))
	if err != nil {
		t.Fatalf("Failed to reopen journal: %v", err)
	}
	defer j.Close()

	if !strings.Contains(buf.String(), "discarding torn journal tail") {
		t.Fatalf("Expected a torn tail warning, got %q", buf.String())
	}
	if want := fmt.Sprintf(`"offset":%d`, good); !strings.Contains(buf.String(), want) {
		t.Errorf("Expected %s in %q", want, buf.String())
	}
	if info, err := os.Stat(path); err != nil || info.Size() != good {
		t.Errorf("Expected journal trimmed to %d bytes, got %v (err %v)", good, info, err)
	}
}

func TestOpen_ChecksumMismatch(t *testing.T) {
	dir := t.TempDir()

	j := openJournal(t, dir)
	if _, err := j.Append(KindResult, []byte("some result payload")); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}
	j.Close()

	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	data[13] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err = Open(dir, nil)
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Expected ErrCorrupt, got %v", err)
	}
	if !strings.Contains(err.Error(), "entry 1") {
		t.Errorf("Expected error to name entry 1, got %v", err)
	}
}

func TestAppend_AfterClose(t *testing.T) {
	j := openJournal(t, t.TempDir())
	j.Close()

	if _, err := j.Append(KindResult, []byte("x")); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}
}

func TestStats_Compression(t *testing.T) {
	j := openJournal(t, t.TempDir())
	defer j.Close()

	data := bytes.Repeat([]byte(`{"regenerators":[],"opcs":[]}`), 50)
	if _, err := j.AppendBatch(KindResult, [][]byte{data, data}); err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	stats := j.Stats()
	if stats.Entries != 2 || stats.LastSeq != 2 {
		t.Errorf("Expected 2 entries, got %+v", stats)
	}
	if stats.CompressionRatio <= 0.5 {
		t.Errorf("Expected repetitive payload to compress well, ratio %.2f", stats.CompressionRatio)
	}
}

func sampleRun(t *testing.T, j *Journal, errText string) report.Run {
	t.Helper()

	run := report.NewRun("simon.txt", 1500, pathanalysis.ResidualCanonical)
	results := []pathanalysis.AnalysisResult{
		{Source: 1, Destination: 2, Status: pathanalysis.StatusOK, TotalDistance: 500, ResidualDistance: 500,
			Regenerators: []pathanalysis.NodeID{}, OPCs: []pathanalysis.NodeID{}, Stage: pathanalysis.StageResidualComputed},
		{Source: 1, Destination: 3, Status: pathanalysis.StatusUnreachable, TotalDistance: 2100,
			Regenerators: []pathanalysis.NodeID{}, OPCs: []pathanalysis.NodeID{}, Stage: pathanalysis.StageUnreachable},
	}

	if _, err := j.AppendRunStarted(run); err != nil {
		t.Fatalf("Failed to append run: %v", err)
	}
	if _, err := j.AppendResults(run.ID, results); err != nil {
		t.Fatalf("Failed to append results: %v", err)
	}
	if _, err := j.AppendRunFinished(RunFinished{
		RunID:      run.ID,
		FinishedAt: time.Now().UTC(),
		Summary:    pathanalysis.Summarize(results),
		Error:      errText,
	}); err != nil {
		t.Fatalf("Failed to append run end: %v", err)
	}
	return run
}

func TestRuns(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)

	first := sampleRun(t, j, "")
	second := sampleRun(t, j, "postgres: connection refused")

	runs, err := j.Runs()
	if err != nil {
		t.Fatalf("Failed to read runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(runs))
	}
	if runs[0].Run.ID != first.ID || !runs[0].Complete() {
		t.Errorf("Expected first run %s to be complete", first.ID)
	}
	if runs[1].Complete() {
		t.Error("Expected failed run to be incomplete")
	}
	if len(runs[0].Results) != 2 || runs[0].Results[1].Status != pathanalysis.StatusUnreachable {
		t.Errorf("Unexpected results: %+v", runs[0].Results)
	}
	j.Close()

	latest, err := LatestRun(dir)
	if err != nil {
		t.Fatalf("Failed to read latest run: %v", err)
	}
	if latest.Run.ID != second.ID {
		t.Errorf("Expected latest run %s, got %s", second.ID, latest.Run.ID)
	}
	if latest.Finished.Summary.Unreachable != 1 {
		t.Errorf("Expected summary to survive the round trip, got %+v", latest.Finished.Summary)
	}

	found, err := FindRun(dir, first.ID)
	if err != nil || found.Run.ReachThresholdKm != 1500 {
		t.Errorf("Expected to find run %s, got %v", first.ID, err)
	}
	if _, err := FindRun(dir, "missing"); err == nil {
		t.Error("Expected error for unknown run id")
	}
}

func TestRuns_UnfinishedRun(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)
	defer j.Close()

	run := report.NewRun("simon.txt", 1500, pathanalysis.ResidualCanonical)
	if _, err := j.AppendRunStarted(run); err != nil {
		t.Fatal(err)
	}

	runs, err := j.Runs()
	if err != nil {
		t.Fatalf("Failed to read runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Finished != nil || runs[0].Complete() {
		t.Errorf("Expected one unfinished run, got %+v", runs)
	}
}

func TestLatestRun_Empty(t *testing.T) {
	dir := t.TempDir()
	j := openJournal(t, dir)
	j.Close()

	if _, err := LatestRun(dir); !errors.Is(err, ErrNoRuns) {
		t.Errorf("Expected ErrNoRuns, got %v", err)
	}
}

func TestReadRuns_MissingJournal(t *testing.T) {
	if _, err := ReadRuns(t.TempDir()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}

func TestRuns_OrphanResult(t *testing.T) {
	j := openJournal(t, t.TempDir())
	defer j.Close()

	if _, err := j.AppendResult("ghost", pathanalysis.AnalysisResult{}); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Runs(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Expected ErrCorrupt for result without a run, got %v", err)
	}
}

func TestKind_String(t *testing.T) {
	if KindResult.String() != "result" {
		t.Errorf("Unexpected name %q", KindResult.String())
	}
	if Kind(9).String() != "Kind(9)" {
		t.Errorf("Unexpected name %q", Kind(9).String())
	}
}

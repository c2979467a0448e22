package pathanalysis

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchRecords(n int) []PathRecord {
	recs := make([]PathRecord, n)
	for i := range recs {
		links := []float64{100, 1200, 1200, float64(100 * (i % 15))}
		recs[i] = record(ids(5), links)
		recs[i].Source = NodeID(i)
		recs[i].Nodes[0].ID = NodeID(i)
	}
	return recs
}

func TestAnalyzeAll_MatchesSequential(t *testing.T) {
	recs := batchRecords(200)

	seq, err := New()
	require.NoError(t, err)
	par, err := New(WithWorkers(8))
	require.NoError(t, err)

	want, err := seq.AnalyzeAll(context.Background(), recs)
	require.NoError(t, err)
	got, err := par.AnalyzeAll(context.Background(), recs)
	require.NoError(t, err)

	require.Len(t, got, len(recs))
	assert.Equal(t, want, got)
	for i, res := range got {
		assert.Equal(t, NodeID(i), res.Source, "result %d out of order", i)
	}
}

func TestAnalyzeAll_Empty(t *testing.T) {
	a, err := New(WithWorkers(4))
	require.NoError(t, err)

	got, err := a.AnalyzeAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAnalyzeAll_FirstErrorInInputOrder(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			recs := batchRecords(10)
			recs[5].Nodes = nil
			recs[2].Nodes = nil

			a, err := New(WithWorkers(workers))
			require.NoError(t, err)

			_, err = a.AnalyzeAll(context.Background(), recs)
			require.ErrorIs(t, err, ErrMalformedRecord)
			assert.Contains(t, err.Error(), "record 2:")
		})
	}
}

func TestAnalyzeAll_Canceled(t *testing.T) {
	for _, workers := range []int{1, 4} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			a, err := New(WithWorkers(workers))
			require.NoError(t, err)

			_, err = a.AnalyzeAll(ctx, batchRecords(10))
			assert.ErrorIs(t, err, context.Canceled)
		})
	}
}

func TestSummarize(t *testing.T) {
	a, err := New()
	require.NoError(t, err)

	results, err := a.AnalyzeAll(context.Background(), []PathRecord{
		record([]NodeID{2, 3, 4, 5, 6}, []float64{100, 1200, 1200, 1200}),
		record([]NodeID{2, 3, 4, 5, 6}, []float64{1800, 100, 100, 100}),
		record([]NodeID{2, 3}, []float64{500}),
	})
	require.NoError(t, err)

	assert.Equal(t, Summary{
		Paths:            3,
		OK:               2,
		Unreachable:      1,
		Regenerators:     2,
		OPCs:             1,
		TotalDistance:    6300,
		ResidualDistance: 2800,
	}, Summarize(results))
}

func BenchmarkAnalyzeAll(b *testing.B) {
	recs := batchRecords(1000)
	for _, workers := range []int{1, 8} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			a, err := New(WithWorkers(workers))
			if err != nil {
				b.Fatal(err)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := a.AnalyzeAll(context.Background(), recs); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

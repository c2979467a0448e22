package pathanalysis

import (
	"fmt"
	"math"
	"time"

	"github.com/dd0wney/cluso-optipath/pkg/logging"
)

// Recorder receives one observation per analyzed record.
type Recorder interface {
	RecordAnalysis(result AnalysisResult, duration time.Duration)
}

// Options configures an Analyzer.
//
// ReachThreshold – maximum unregenerated span, in the unit of the record
//
//	distances. Must be positive and finite. Default DefaultReachThresholdKm.
//
// Policy         – residual accounting, default ResidualCanonical.
// Workers        – records analyzed concurrently by AnalyzeAll; ≤ 1 is sequential.
// Logger         – receives stage transitions at debug level. Default NopLogger.
// Recorder       – optional metrics sink.
type Options struct {
	ReachThreshold float64
	Policy         ResidualPolicy
	Workers        int
	Logger         logging.Logger
	Recorder       Recorder
}

// Option represents a functional option for configuring an Analyzer.
type Option func(*Options)

// WithReachThreshold sets the reach threshold.
func WithReachThreshold(km float64) Option {
	return func(o *Options) {
		o.ReachThreshold = km
	}
}

// WithResidualPolicy selects the residual accounting policy.
func WithResidualPolicy(p ResidualPolicy) Option {
	return func(o *Options) {
		o.Policy = p
	}
}

// WithWorkers sets how many records AnalyzeAll processes at once.
func WithWorkers(n int) Option {
	return func(o *Options) {
		o.Workers = n
	}
}

// WithLogger attaches a logger.
func WithLogger(l logging.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Options) {
		o.Recorder = r
	}
}

// DefaultOptions returns the options New starts from.
func DefaultOptions() Options {
	return Options{
		ReachThreshold: DefaultReachThresholdKm,
		Policy:         ResidualCanonical,
		Workers:        1,
		Logger:         logging.NewNopLogger(),
	}
}

// Analyzer runs the placement pipeline with a fixed configuration. It holds
// no mutable state and is safe for concurrent use.
type Analyzer struct {
	opts Options
}

// New builds an Analyzer. The threshold is fixed for the Analyzer's lifetime.
func New(opts ...Option) (*Analyzer, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	t := o.ReachThreshold
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return nil, fmt.Errorf("%w: got %v", ErrBadThreshold, t)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	return &Analyzer{opts: o}, nil
}

// ReachThreshold returns the configured threshold.
func (a *Analyzer) ReachThreshold() float64 {
	return a.opts.ReachThreshold
}

// Policy returns the configured residual policy.
func (a *Analyzer) Policy() ResidualPolicy {
	return a.opts.Policy
}

// Analyze runs the four placement stages on rec. An unreachable path is a
// normal result with StatusUnreachable; only contract violations return an
// error.
func (a *Analyzer) Analyze(rec PathRecord) (AnalysisResult, error) {
	start := time.Now()

	sp, err := NewSubPath(rec)
	if err != nil {
		return AnalysisResult{}, err
	}

	log := a.opts.Logger.With(
		logging.SourceNode(uint64(rec.Source)),
		logging.DestinationNode(uint64(rec.Destination)),
	)
	threshold := a.opts.ReachThreshold
	stage := StageStart

	regens, reachable := PlaceRegenerators(sp, threshold)
	if !reachable {
		stage = StageUnreachable
		log.Debug("path unreachable", logging.Stage(stage.String()), logging.Threshold(threshold))
		res := AnalysisResult{
			Source:        rec.Source,
			Destination:   rec.Destination,
			TotalDistance: round2(sp.Total()),
			Regenerators:  []NodeID{},
			OPCs:          []NodeID{},
			Status:        StatusUnreachable,
			Stage:         stage,
		}
		a.record(res, start)
		return res, nil
	}
	stage = a.advance(log, stage, logging.Count(regens.Len()))

	sections := Partition(sp.Len(), regens.Indices)
	stage = a.advance(log, stage, logging.Int("sections", len(sections)))

	opcs := PlaceOPCs(sp, sections, regens, threshold)
	stage = a.advance(log, stage, logging.Count(opcs.Len()))

	residual := ResidualDistance(sp, sections, regens, opcs, a.opts.Policy)
	stage = a.advance(log, stage, logging.Float64("residual_km", residual))

	res := AnalysisResult{
		Source:             rec.Source,
		Destination:        rec.Destination,
		TotalDistance:      round2(sp.Total()),
		Regenerators:       nonNilIDs(regens.IDs),
		OPCs:               nonNilIDs(opcs.IDs),
		ResidualDistance:   residual,
		Status:             StatusOK,
		RegeneratorIndices: regens.Indices,
		OPCIndices:         opcs.Indices,
		Sections:           sections,
		Stage:              stage,
	}
	a.record(res, start)
	return res, nil
}

func (a *Analyzer) advance(log logging.Logger, from Stage, fields ...logging.Field) Stage {
	to := from.next()
	log.Debug("analysis stage complete", append(fields, logging.Stage(to.String()))...)
	return to
}

func (a *Analyzer) record(res AnalysisResult, start time.Time) {
	if a.opts.Recorder != nil {
		a.opts.Recorder.RecordAnalysis(res, time.Since(start))
	}
}

func nonNilIDs(ids []NodeID) []NodeID {
	if ids == nil {
		return []NodeID{}
	}
	return ids
}

// Analyze is a convenience wrapper that analyzes rec with the given threshold
// and the canonical residual policy.
func Analyze(rec PathRecord, threshold float64) (AnalysisResult, error) {
	a, err := New(WithReachThreshold(threshold))
	if err != nil {
		return AnalysisResult{}, err
	}
	return a.Analyze(rec)
}

package manca

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Result represents the algorithm output
type Result struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	State       State          `json:"state" yaml:"state"`
	Assignment  map[string]int `json:"assignment" yaml:"assignment"`
	NumClusters int            `json:"num_clusters" yaml:"num_clusters"`
	Sparsity    int            `json:"sparsity" yaml:"sparsity"`
	Delay       int            `json:"delay" yaml:"delay"`
	Iterations  int            `json:"iterations" yaml:"iterations"`
	Modularity  float64        `json:"modularity" yaml:"modularity"`
	Rounds      []RoundStats   `json:"rounds,omitempty" yaml:"-"`
	Statistics  Statistics     `json:"statistics" yaml:"statistics"`
}

// Converged reports whether the run stopped on a stable sparsity.
func (r *Result) Converged() bool { return r.State == Converged }

// RoundStats contains per-round statistics
type RoundStats struct {
	Round     int       `json:"round"`
	Seed      string    `json:"seed"`
	BestCount int       `json:"best_count"`
	Adopted   bool      `json:"adopted"`
	Forced    bool      `json:"forced,omitempty"`
	Scores    []float64 `json:"scores"`
	Sparsity  int       `json:"sparsity"`
	Delay     int       `json:"delay"`
	RuntimeMS int64     `json:"runtime_ms"`
}

// Statistics contains algorithm performance metrics
type Statistics struct {
	Nodes          int   `json:"nodes" yaml:"nodes"`
	Edges          int   `json:"edges" yaml:"edges"`
	Components     int   `json:"components" yaml:"components"`
	MissingWeights int   `json:"missing_weights" yaml:"missing_weights"`
	BaselineWins   int   `json:"baseline_wins" yaml:"baseline_wins"`
	Adoptions      int   `json:"adoptions" yaml:"adoptions"`
	RuntimeMS      int64 `json:"runtime_ms" yaml:"runtime_ms"`
}

// Option customises a Clusterer.
type Option func(*Clusterer)

// WithOracle replaces the default KMeans oracle.
func WithOracle(o ClusterOracle) Option { return func(c *Clusterer) { c.oracle = o } }

// WithScorer replaces the default Silhouette scorer.
func WithScorer(s QualityScorer) Option { return func(c *Clusterer) { c.scorer = s } }

// WithLogger replaces the logger built from the config.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Clusterer) { c.logger = l; c.customLogger = true }
}

// WithMetrics records every run on m.
func WithMetrics(m *Metrics) Option { return func(c *Clusterer) { c.metrics = m } }

// WithRandSource replaces the PCG source seeded from algorithm.random_seed.
// The source drives seed-node sampling, baseline labels and oracle seeds.
func WithRandSource(src rand.Source) Option { return func(c *Clusterer) { c.src = src } }

// Clusterer runs diffusion-based clustering with a fixed configuration.
type Clusterer struct {
	config       *Config
	opts         Options
	oracle       ClusterOracle
	scorer       QualityScorer
	logger       zerolog.Logger
	customLogger bool
	metrics      *Metrics
	src          rand.Source
}

// New validates config and builds a Clusterer.
func New(config *Config, options ...Option) (*Clusterer, error) {
	if config == nil {
		config = NewConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	opts := config.Options()

	c := &Clusterer{
		config: config,
		opts:   opts,
		oracle: &KMeans{
			NInit:         opts.KMeansNInit,
			MaxIterations: opts.KMeansMaxIter,
			Tolerance:     opts.KMeansTol,
		},
		scorer: Silhouette{},
	}
	for _, option := range options {
		option(c)
	}
	if !c.customLogger {
		c.logger = config.CreateLogger()
	}
	if c.src == nil {
		seed := uint64(opts.RandomSeed)
		c.src = rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	}
	return c, nil
}

// Run executes the complete algorithm with a config and default oracles.
func Run(ctx context.Context, g Graph, config *Config) (*Result, error) {
	c, err := New(config)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, g)
}

// Run clusters g until sparsity converges or the iteration budget is spent,
// then writes the cluster id of every node back onto g.
//
// A run that exhausts its budget is not an error: the result carries
// State == Exhausted and the labels are still written.
func (c *Clusterer) Run(ctx context.Context, g Graph) (*Result, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With().Str("run_id", runID).Logger()

	idx, err := NewNodeIndex(g.Nodes())
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}
	if idx.Len() == 0 {
		return nil, ErrEmptyGraph
	}
	topo, err := newTopology(g, idx)
	if err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	result := &Result{
		RunID:  runID,
		State:  Running,
		Rounds: make([]RoundStats, 0),
		Statistics: Statistics{
			Nodes:          idx.Len(),
			Edges:          topo.numEdges(),
			Components:     componentCount(topo),
			MissingWeights: len(topo.missing),
		},
	}

	logger.Info().
		Int("nodes", result.Statistics.Nodes).
		Int("edges", result.Statistics.Edges).
		Int("limit", c.opts.Limit).
		Int("diffusion_range", c.opts.DiffusionRange).
		Int("max_clusters", c.opts.MaxClusters).
		Int("iterations", c.opts.Iterations).
		Msg("Starting diffusion clustering")

	for _, e := range topo.missing {
		logger.Warn().
			Str("from", idx.ID(e[0])).
			Str("to", idx.ID(e[1])).
			Msg("Edge did not have a weight attribute, setting to 1.0")
	}
	c.metrics.RecordMissingWeights(len(topo.missing))

	if result.Statistics.Components > 1 {
		logger.Warn().
			Int("components", result.Statistics.Components).
			Msg("Graph has more than one connected component")
	}

	var tracker *RoundTracker
	if c.opts.TrackRounds {
		tracker, err = NewRoundTracker(c.opts.TrackingFile, runID)
		if err != nil {
			return nil, err
		}
		defer tracker.Close()
	}

	rng := rand.New(c.src)
	affinity := NewAffinity(idx.Len())
	diffuser := newDiffuser(topo, affinity, rng)
	selector := &Selector{
		oracle:     c.oracle,
		scorer:     c.scorer,
		rng:        rng,
		parallel:   c.opts.Parallel,
		numWorkers: c.opts.NumWorkers,
		logger:     logger,
	}
	conv := newConvergence(c.opts.Limit, c.opts.Iterations)

	var held []int
	state := Running
	for state == Running {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		roundStart := time.Now()

		seed := diffuser.Diffuse(c.opts.DiffusionRange)

		sel, err := selector.Select(ctx, affinity, c.opts.MaxClusters, held != nil)
		if err != nil {
			return nil, fmt.Errorf("cluster selection failed at round %d: %w", conv.iters+1, err)
		}
		if sel.Assignment != nil {
			held = sel.Assignment
			result.Statistics.Adoptions++
		}
		if held == nil {
			logger.Warn().Msg("No feasible clustering, holding a single cluster")
			held = make([]int, idx.Len())
		}
		if sel.BestCount == 0 {
			result.Statistics.BaselineWins++
		}

		s := sparsity(topo, held, c.opts.CountBothEnds)
		state = conv.observe(s)

		stats := RoundStats{
			Round:     conv.iters,
			Seed:      idx.ID(seed),
			BestCount: sel.BestCount,
			Adopted:   sel.Assignment != nil,
			Forced:    sel.Forced,
			Scores:    sel.Scores,
			Sparsity:  s,
			Delay:     conv.delay,
			RuntimeMS: time.Since(roundStart).Milliseconds(),
		}
		result.Rounds = append(result.Rounds, stats)
		c.metrics.RecordRound(sel, s, conv.delay, time.Since(roundStart))
		if err := tracker.LogRound(stats); err != nil {
			logger.Warn().Err(err).Msg("Failed to write round trace")
		}

		if c.opts.ProgressEvery > 0 && conv.iters%c.opts.ProgressEvery == 0 && c.config.EnableProgress() {
			logger.Info().
				Int("round", conv.iters).
				Int("sparsity", s).
				Int("delay", conv.delay).
				Int("best_count", sel.BestCount).
				Msg("Diffusion progress")
		}
	}

	if state == Exhausted {
		logger.Warn().
			Int("iterations", conv.iters).
			Int("delay", conv.delay).
			Int("limit", c.opts.Limit).
			Msg("Algorithm did not converge")
	}

	result.State = state
	result.Iterations = conv.iters
	result.Delay = conv.delay
	result.Sparsity = conv.prevSparsity
	result.Modularity = modularity(topo, held)
	result.Assignment = make(map[string]int, idx.Len())
	clusters := make(map[int]bool)
	for p, cluster := range held {
		result.Assignment[idx.ID(p)] = cluster
		clusters[cluster] = true
		g.SetLabel(idx.ID(p), cluster)
	}
	result.NumClusters = len(clusters)
	result.Statistics.RuntimeMS = time.Since(startTime).Milliseconds()
	c.metrics.RecordRun(state, time.Since(startTime))

	logger.Info().
		Str("state", state.String()).
		Int("iterations", result.Iterations).
		Int("sparsity", result.Sparsity).
		Int("clusters", result.NumClusters).
		Float64("modularity", result.Modularity).
		Int64("runtime_ms", result.Statistics.RuntimeMS).
		Msg("Diffusion clustering completed")

	return result, nil
}

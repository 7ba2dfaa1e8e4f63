// Package orchestrate runs the Monte Carlo border-inspection pipeline:
// for each of NumSimulations independent iterations, generate
// NumConsignments consignments and carry each one through contamination,
// release-program evaluation, and (if not released) inspection, in that
// fixed draw order. Grounded on sim/simulator.go's Simulator/Run() event
// loop, generalized from a single-horizon discrete-event loop to a
// parallel-across-iterations Monte Carlo loop, and on sim/metrics.go's
// owned-by-the-run Metrics struct, replaced here by Aggregate, which
// reduces the per-iteration results after Run returns.
package orchestrate

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/contamination"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/inspection"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/release"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// Config bundles every typed sub-configuration a run needs, already
// resolved from whatever on-disk format produced it (internal/config, or a
// scenario-table override).
type Config struct {
	Consignment          consignment.Config
	F280Records          []consignment.F280Record
	AQIMRecords          []consignment.AQIMRecord
	ContaminationDefault contamination.Config
	ContaminationRules   []contamination.Rule
	Inspection           inspection.Config
	Release              release.Config
	NumSimulations       int
	NumConsignments      int
	Seed                 int64
	// Workers caps how many iterations run concurrently. 0 means
	// runtime.GOMAXPROCS(0).
	Workers int
}

// ConsignmentRecord is one consignment's outcome within one iteration.
type ConsignmentRecord struct {
	Consignment *consignment.Consignment
	Inspected   bool
	ProgramName string
	Observation *inspection.Observation // nil when not inspected
}

// IterationResult is one full simulation iteration's outcome, in
// consignment order.
type IterationResult struct {
	Iteration int
	Records   []ConsignmentRecord
}

// Simulator runs a Config's Monte Carlo iterations. Each iteration owns
// its own *rng.PartitionedRNG and release.Program instance for its
// duration; neither is shared across iterations.
type Simulator struct {
	Config Config
}

// NewSimulator constructs a Simulator, defaulting Workers to
// runtime.GOMAXPROCS(0) when unset.
func NewSimulator(cfg Config) *Simulator {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Simulator{Config: cfg}
}

// Run executes all NumSimulations iterations, parallelized across a
// worker pool sized by Config.Workers, and returns one IterationResult per
// iteration in iteration order. An iteration's error does not stop the
// others; once every iteration has finished, Run returns the error of the
// lowest-numbered failed iteration, if any.
func (s *Simulator) Run(ctx context.Context) ([]IterationResult, error) {
	n := s.Config.NumSimulations
	results := make([]IterationResult, n)
	errs := make([]error, n)

	sem := make(chan struct{}, s.Config.Workers)
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		default:
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := s.runIteration(i)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	logrus.Infof("[orchestrate] completed %d simulations of %d consignments each in %s",
		n, s.Config.NumConsignments, time.Since(start))
	return results, nil
}

// runIteration runs one independent simulation iteration to completion.
func (s *Simulator) runIteration(i int) (IterationResult, error) {
	seed := rng.SplitSeed(s.Config.Seed, i)
	prng := rng.NewPartitionedRNG(rng.NewSimulationKey(seed))

	generator, err := consignment.NewGenerator(s.Config.Consignment, s.Config.F280Records, s.Config.AQIMRecords)
	if err != nil {
		return IterationResult{}, err
	}
	program, err := release.Build(s.Config.Release)
	if err != nil {
		return IterationResult{}, err
	}

	records := make([]ConsignmentRecord, 0, s.Config.NumConsignments)
	for j := 0; j < s.Config.NumConsignments; j++ {
		record, err := s.runConsignment(generator, program, prng)
		if err != nil {
			return IterationResult{}, err
		}
		records = append(records, record)
	}

	return IterationResult{Iteration: i, Records: records}, nil
}

// runConsignment carries one consignment through contamination, release
// evaluation, and (if not released) inspection, threading the iteration's
// four subsystem streams in the fixed generator -> contamination ->
// release -> inspection draw order, required for reproducibility.
func (s *Simulator) runConsignment(generator consignment.Generator, program release.Program, prng *rng.PartitionedRNG) (ConsignmentRecord, error) {
	c, err := generator.Generate(prng.ForSubsystem(rng.SubsystemGenerator))
	if err != nil {
		return ConsignmentRecord{}, err
	}

	if contamCfg, ok := contamination.Resolve(s.Config.ContaminationRules, s.Config.ContaminationDefault, c); ok {
		if err := contamination.Contaminate(c, contamCfg, prng.ForSubsystem(rng.SubsystemContaminate)); err != nil {
			return ConsignmentRecord{}, err
		}
	}

	inspect, programName := program.Evaluate(c, c.Date, prng.ForSubsystem(rng.SubsystemRelease))
	record := ConsignmentRecord{Consignment: c, Inspected: inspect, ProgramName: programName}

	recorder, recordsResults := program.(release.ResultRecorder)
	if !inspect {
		if recordsResults {
			recorder.AddInspectionResult(c, false, false)
		}
		return record, nil
	}

	obs, err := inspection.Inspect(c, s.Config.Inspection, prng.ForSubsystem(rng.SubsystemInspect))
	if err != nil {
		return ConsignmentRecord{}, err
	}
	record.Observation = obs
	if recordsResults {
		recorder.AddInspectionResult(c, true, !obs.Detected)
	}
	return record, nil
}

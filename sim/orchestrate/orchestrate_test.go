package orchestrate

import (
	"context"
	"testing"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/contamination"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/inspection"
)

func baseConfig() Config {
	return Config{
		Consignment: consignment.Config{
			GenerationMethod: consignment.GenerationParameterBased,
			ItemsPerBox:      consignment.ItemsPerBoxConfig{Default: 20},
			Parameters: consignment.ParameterConfig{
				BoxesMin:    5,
				BoxesMax:    10,
				Origins:     []string{"Netherlands"},
				Commodities: []string{"Rosa"},
				Ports:       []string{"FL Miami Air CBP"},
			},
		},
		ContaminationDefault: contamination.Config{
			Unit:        contamination.UnitItem,
			Rate:        contamination.RateConfig{Distribution: contamination.RateFixed, Value: 0.1},
			Arrangement: contamination.ArrangementRandom,
		},
		Inspection: inspection.Config{
			Unit:              inspection.UnitItem,
			SampleStrategy:    inspection.SampleProportion,
			Proportion:        0.5,
			SelectionStrategy: inspection.SelectionRandom,
			Effectiveness:     1,
		},
		NumSimulations:  4,
		NumConsignments: 10,
		Seed:            42,
		Workers:         2,
	}
}

func TestRun_ProducesOneResultPerIteration(t *testing.T) {
	sim := NewSimulator(baseConfig())
	results, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("len(results) = %d, want 4", len(results))
	}
	for _, r := range results {
		if len(r.Records) != 10 {
			t.Errorf("iteration %d: len(Records) = %d, want 10", r.Iteration, len(r.Records))
		}
	}
}

func TestRun_IsReproducibleUnderFixedSeed(t *testing.T) {
	cfg := baseConfig()
	sim1 := NewSimulator(cfg)
	sim2 := NewSimulator(cfg)

	r1, err := sim1.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := sim2.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := range r1 {
		for j := range r1[i].Records {
			a, b := r1[i].Records[j], r2[i].Records[j]
			if a.Consignment.NumBoxes != b.Consignment.NumBoxes ||
				a.Consignment.CountContaminated() != b.Consignment.CountContaminated() ||
				a.Inspected != b.Inspected {
				t.Fatalf("iteration %d record %d diverged between identically-seeded runs", i, j)
			}
		}
	}
}

func TestRun_DifferentIterationsDeriveDifferentStreams(t *testing.T) {
	sim := NewSimulator(baseConfig())
	results, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	allIdentical := true
	for i := 1; i < len(results); i++ {
		for j := range results[0].Records {
			if results[0].Records[j].Consignment.NumBoxes != results[i].Records[j].Consignment.NumBoxes {
				allIdentical = false
			}
		}
	}
	if allIdentical {
		t.Error("expected iterations seeded via rng.SplitSeed to diverge, but every iteration produced identical consignments")
	}
}

func TestAggregate_ContaminationRateConvergesToConfiguredRate(t *testing.T) {
	cfg := baseConfig()
	cfg.NumSimulations = 1
	cfg.NumConsignments = 2000
	cfg.ContaminationDefault.Rate.Value = 0.1

	sim := NewSimulator(cfg)
	results, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary := Aggregate(results)
	if diff := summary.MeanContaminationRate - 0.1; diff > 0.02 || diff < -0.02 {
		t.Errorf("MeanContaminationRate = %v, want close to 0.1", summary.MeanContaminationRate)
	}
}

func TestAggregate_FullEffectivenessDetectsEveryInspectedContaminatedConsignment(t *testing.T) {
	cfg := baseConfig()
	cfg.NumSimulations = 1
	cfg.NumConsignments = 500
	cfg.Inspection.SampleStrategy = inspection.SampleAll
	cfg.Inspection.Effectiveness = 1
	cfg.ContaminationDefault.Rate.Value = 0.3

	sim := NewSimulator(cfg)
	results, err := sim.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, r := range results[0].Records {
		if r.Consignment.IsContaminated() != r.Observation.Detected {
			t.Fatalf("full-effectiveness, sample-all inspection should detect every contaminated consignment exactly: contaminated=%v detected=%v",
				r.Consignment.IsContaminated(), r.Observation.Detected)
		}
	}
}

// Package inspection implements the inspection engine: computing a sample
// size, selecting units to examine, and running the two-pass
// to-detection/to-completion examination. Grounded on
// _examples/original_source/pathways/inspections.py (a sibling simulation
// in the same source tree that implements the same sampling/selection
// concepts for a different pathway model).
package inspection

import "github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"

// Unit selects whether sample size and selection operate on items or
// boxes.
type Unit string

const (
	UnitItem Unit = "item"
	UnitBox  Unit = "box"
)

// SampleStrategy selects how the sample size is computed.
type SampleStrategy string

const (
	SampleAll            SampleStrategy = "all"
	SampleProportion     SampleStrategy = "proportion"
	SampleFixedN         SampleStrategy = "fixed_n"
	SampleHypergeometric SampleStrategy = "hypergeometric"
)

// SelectionStrategy selects how sampled units are chosen.
type SelectionStrategy string

const (
	SelectionRandom      SelectionStrategy = "random"
	SelectionConvenience SelectionStrategy = "convenience"
	SelectionCluster     SelectionStrategy = "cluster"
)

// ClusterSelection selects how box clusters are chosen when
// SelectionStrategy == SelectionCluster.
type ClusterSelection string

const (
	ClusterSelectionRandom   ClusterSelection = "random"
	ClusterSelectionInterval ClusterSelection = "interval"
)

// Config is one resolved `inspection` configuration block.
type Config struct {
	Unit                Unit
	WithinBoxProportion float64

	SampleStrategy SampleStrategy
	Proportion     float64 // used when SampleStrategy == SampleProportion
	FixedN         int     // used when SampleStrategy == SampleFixedN

	// ToleranceLevel (D) and ConfidenceLevel (C) parametrize the Fosgate
	// hypergeometric sample-size formula used when SampleStrategy ==
	// SampleHypergeometric: K = round(D*N), s = ceil((1-(1-C)^(1/K)) * (N - (K-1)/2)).
	ToleranceLevel  float64
	ConfidenceLevel float64

	SelectionStrategy SelectionStrategy
	ClusterSelection  ClusterSelection
	ClusterInterval   int

	MinBoxes      int
	Effectiveness float64

	// ShareEffectivenessDraws controls whether the to_detection and
	// to_completion end strategies draw a single shared effectiveness
	// outcome per contaminated item, or two independent outcomes. Default
	// (false) draws independently.
	ShareEffectivenessDraws bool
}

func (c Config) populationSize(cons *consignment.Consignment) int {
	if c.Unit == UnitBox {
		return cons.NumBoxes
	}
	return cons.NumItems
}

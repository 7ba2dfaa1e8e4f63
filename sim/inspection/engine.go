package inspection

import (
	"math"
	"sort"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// Observation is the outcome of one Inspect call: the sample drawn and the
// two independent end-condition tallies (the to_detection and
// to_completion end strategies).
type Observation struct {
	SampleSize int

	ItemsInspectedToDetection  int
	ItemsInspectedToCompletion int

	BoxesOpenedToDetection  int
	BoxesOpenedToCompletion int

	ContaminatedItemsToDetection  int
	ContaminatedItemsToCompletion int

	Detected bool
}

// Inspect draws a sample of c per cfg's sample-size and selection
// strategies, then examines it, marking c.ItemInspected for every item
// actually opened.
func Inspect(c *consignment.Consignment, cfg Config, stream *rng.Stream) (*Observation, error) {
	sampleSize, err := computeSampleSize(cfg, c)
	if err != nil {
		return nil, err
	}

	units, perBoxCapacity, err := selectUnits(cfg, c, sampleSize, stream)
	if err != nil {
		return nil, err
	}

	itemIndexes := expandToItemIndexes(cfg, c, units, perBoxCapacity)
	obs := examine(c, itemIndexes, cfg.Effectiveness, cfg.ShareEffectivenessDraws, stream)
	obs.SampleSize = sampleSize
	return obs, nil
}

func computeSampleSize(cfg Config, c *consignment.Consignment) (int, error) {
	population := cfg.populationSize(c)
	if population <= 0 {
		return 0, nil
	}
	switch cfg.SampleStrategy {
	case SampleAll:
		return population, nil
	case SampleProportion:
		n := int(math.Round(cfg.Proportion * float64(population)))
		return clampSampleSize(cfg, c, n), nil
	case SampleFixedN:
		n := cfg.FixedN
		if cfg.Unit == UnitItem && cfg.WithinBoxProportion > 0 {
			if limit := maxInspectableItems(c, cfg.WithinBoxProportion); n > limit {
				n = limit
			}
		}
		return clampSampleSize(cfg, c, n), nil
	case SampleHypergeometric:
		n := fosgateSampleSize(cfg.ToleranceLevel, cfg.ConfidenceLevel, population)
		return clampSampleSize(cfg, c, n), nil
	default:
		return 0, &diag.Error{Category: diag.ConfigError, Path: "inspection.sample_strategy", Message: "unknown sample strategy " + string(cfg.SampleStrategy)}
	}
}

// fosgateSampleSize is the Fosgate hypergeometric sample-size formula: K is
// the assumed count of contaminated units at the configured tolerance
// level D, and s is the sample size needed to detect at least one of them
// with confidence C.
func fosgateSampleSize(toleranceLevel, confidenceLevel float64, population int) int {
	k := math.Round(toleranceLevel * float64(population))
	if k < 1 {
		return 0
	}
	alpha := 1 - confidenceLevel
	n := float64(population)
	s := math.Ceil((1 - math.Pow(alpha, 1/k)) * (n - (k-1)/2))
	if s < 0 {
		s = 0
	}
	if s > n {
		s = n
	}
	return int(s)
}

func clampSampleSize(cfg Config, c *consignment.Consignment, n int) int {
	population := cfg.populationSize(c)
	if n < 0 {
		n = 0
	}
	if cfg.Unit == UnitBox && n < cfg.MinBoxes {
		n = cfg.MinBoxes
	}
	if n > population {
		n = population
	}
	return n
}

// maxInspectableItems bounds an item-unit fixed-n sample by the number of
// items actually reachable at the configured within-box proportion: a
// full box yields ceil(WithinBoxProportion*ItemsPerBox) inspectable items,
// and a partial trailing box yields min(remainder, that same cap).
func maxInspectableItems(c *consignment.Consignment, withinBoxProportion float64) int {
	if c.ItemsPerBox <= 0 {
		return c.NumItems
	}
	perBox := int(math.Ceil(withinBoxProportion * float64(c.ItemsPerBox)))
	if perBox < 1 {
		perBox = 1
	}
	fullBoxes := c.NumItems / c.ItemsPerBox
	remainder := c.NumItems % c.ItemsPerBox
	total := fullBoxes * perBox
	if remainder > 0 {
		if remainder > perBox {
			remainder = perBox
		}
		total += remainder
	}
	return total
}

// selectUnits returns the ordered indexes of units to open (item indexes
// for UnitItem with a non-cluster selection strategy, box indexes
// otherwise), plus the per-box inspection capacity used by cluster
// selection (ignored otherwise).
func selectUnits(cfg Config, c *consignment.Consignment, sampleSize int, stream *rng.Stream) ([]int, int, error) {
	switch cfg.SelectionStrategy {
	case SelectionConvenience:
		population := cfg.populationSize(c)
		n := sampleSize
		if n > population {
			n = population
		}
		idx := make([]int, n)
		for i := range idx {
			idx[i] = i
		}
		return idx, 0, nil
	case SelectionRandom:
		population := cfg.populationSize(c)
		if sampleSize > population {
			sampleSize = population
		}
		idx := stream.Choice(population, sampleSize)
		sort.Ints(idx)
		return idx, 0, nil
	case SelectionCluster:
		if cfg.Unit != UnitItem {
			return nil, 0, &diag.Error{Category: diag.ConfigError, Path: "inspection.selection_strategy", Message: "cluster selection requires unit=item"}
		}
		if cfg.FixedN == 0 && sampleSize == 0 {
			return nil, 0, nil
		}
		boxes, capacity := selectClusterBoxes(cfg, c, sampleSize, stream)
		return boxes, capacity, nil
	default:
		return nil, 0, &diag.Error{Category: diag.ConfigError, Path: "inspection.selection_strategy", Message: "unknown selection strategy " + string(cfg.SelectionStrategy)}
	}
}

// selectClusterBoxes computes how many boxes must be opened to reach
// sampleSize items at the configured within-box inspection capacity, then
// picks that many box indexes either uniformly at random or at a fixed
// interval around the consignment (Fosgate-style clustered selection,
// mirrored from compute_n_clusters_to_inspect/select_cluster_indexes in
// _examples/original_source/pathways/inspections.py).
func selectClusterBoxes(cfg Config, c *consignment.Consignment, sampleSize int, stream *rng.Stream) ([]int, int) {
	capacity := int(math.Ceil(cfg.WithinBoxProportion * float64(c.ItemsPerBox)))
	if capacity < 1 {
		capacity = 1
	}
	numBoxes := int(math.Ceil(float64(sampleSize) / float64(capacity)))
	if numBoxes < 1 {
		numBoxes = 1
	}
	if numBoxes > c.NumBoxes {
		numBoxes = c.NumBoxes
	}

	var boxes []int
	switch cfg.ClusterSelection {
	case ClusterSelectionInterval:
		interval := cfg.ClusterInterval
		if interval < 1 {
			interval = 1
		}
		pos := 0
		seen := make(map[int]bool)
		for len(boxes) < numBoxes && len(seen) < c.NumBoxes {
			b := pos % c.NumBoxes
			if !seen[b] {
				seen[b] = true
				boxes = append(boxes, b)
			}
			pos += interval
		}
	default: // ClusterSelectionRandom
		boxes = stream.Choice(c.NumBoxes, numBoxes)
		sort.Ints(boxes)
	}
	return boxes, capacity
}

// expandToItemIndexes turns the selected units into the ordered list of
// item indexes actually opened during examination.
func expandToItemIndexes(cfg Config, c *consignment.Consignment, units []int, perBoxCapacity int) []int {
	if cfg.SelectionStrategy == SelectionCluster {
		var items []int
		for _, b := range units {
			box := c.BoxAt(b)
			n := perBoxCapacity
			if n > box.Size {
				n = box.Size
			}
			for i := 0; i < n; i++ {
				items = append(items, box.Start+i)
			}
		}
		return items
	}
	if cfg.Unit == UnitBox {
		var items []int
		for _, b := range units {
			box := c.BoxAt(b)
			for i := 0; i < box.Size; i++ {
				items = append(items, box.Start+i)
			}
		}
		return items
	}
	return units
}

// examine walks itemIndexes in order, marking each as inspected and
// tallying the to_detection (stops at the first successful detection) and
// to_completion (examines every sampled item regardless) outcomes. Unless
// cfg.ShareEffectivenessDraws is set, the two tallies draw independent
// effectiveness outcomes for a contaminated item.
func examine(c *consignment.Consignment, itemIndexes []int, effectiveness float64, shareDraws bool, stream *rng.Stream) *Observation {
	obs := &Observation{}
	detected := false
	boxesOpenedDetection := make(map[int]bool)
	boxesOpenedCompletion := make(map[int]bool)

	for _, idx := range itemIndexes {
		if c.ItemsPerBox <= 0 {
			continue
		}
		boxIdx := idx / c.ItemsPerBox
		contaminated := c.ItemContaminated.Get(idx)
		c.ItemInspected.Set(idx)

		completionSuccess := contaminated && stream.Bernoulli(effectiveness)
		boxesOpenedCompletion[boxIdx] = true
		obs.ItemsInspectedToCompletion++
		if completionSuccess {
			obs.ContaminatedItemsToCompletion++
		}

		if !detected {
			boxesOpenedDetection[boxIdx] = true
			obs.ItemsInspectedToDetection++
			if contaminated {
				detectionSuccess := completionSuccess
				if !shareDraws {
					detectionSuccess = stream.Bernoulli(effectiveness)
				}
				if detectionSuccess {
					obs.ContaminatedItemsToDetection++
					obs.Detected = true
					detected = true
				}
			}
		}
	}

	obs.BoxesOpenedToDetection = len(boxesOpenedDetection)
	obs.BoxesOpenedToCompletion = len(boxesOpenedCompletion)
	return obs
}

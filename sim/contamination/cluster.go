package contamination

import (
	"fmt"
	"math"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// applyClusteredSingle implements the clustered-single arrangement: a
// circular window of size s = max(target, round(N/(1+v))) starting at a
// uniformly chosen offset, from which target indices are drawn without
// replacement. value == 0 degenerates to the random arrangement.
func applyClusteredSingle(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	if cfg.ClusteredSingle.Value == 0 || cfg.Unit == UnitBox {
		return applyRandom(c, cfg, stream)
	}
	rate, err := cfg.Rate.Draw(stream)
	if err != nil {
		return err
	}
	n := c.NumItems
	target := itemTarget(rate, n)
	if target <= 0 {
		return nil
	}
	s := int(math.Round(float64(n) / (1 + cfg.ClusteredSingle.Value)))
	if s < target {
		s = target
	}
	if s > n {
		s = n
	}
	start := stream.IntRange(0, n-1)
	window := make([]int, s)
	for i := 0; i < s; i++ {
		window[i] = (start + i) % n
	}
	for _, pos := range stream.Choice(s, target) {
		c.ItemContaminated.Set(window[pos])
	}
	return nil
}

// clusterSizes splits total contaminated units into clusters no larger
// than maxSize, grounded on
// _examples/original_source/popsborder/contamination.py's
// _contaminated_items_to_cluster_sizes / _contaminated_boxes_to_cluster_sizes.
func clusterSizes(total, maxSize int) []int {
	if maxSize <= 0 || total <= maxSize {
		return []int{total}
	}
	var sizes []int
	remaining := total
	for remaining > maxSize {
		sizes = append(sizes, maxSize)
		remaining -= maxSize
	}
	sizes = append(sizes, remaining)
	return sizes
}

// chooseStrata divides numUnits into non-overlapping strata of width
// clusterWidth and picks numClusters of them without replacement,
// excluding a shorter remainder stratum unless it's the only way to fit
// numClusters strata. Grounded on
// _examples/original_source/popsborder/contamination.py's
// choose_strata_for_clusters.
func chooseStrata(numUnits, clusterWidth, numClusters int, stream *rng.Stream) ([]int, error) {
	if clusterWidth <= 0 {
		clusterWidth = 1
	}
	numStrata := int(math.Ceil(float64(numUnits) / float64(clusterWidth)))
	if numStrata < 1 {
		numStrata = 1
	}
	if numStrata < numClusters {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "contamination/clustered-multi", Message: "cannot avoid overlapping clusters: increase contaminated_units_per_cluster or decrease cluster_item_width"}
	}
	if numClusters == numStrata {
		strata := make([]int, numStrata)
		for i := range strata {
			strata[i] = i
		}
		return strata, nil
	}
	if numUnits%clusterWidth == 0 {
		return stream.Choice(numStrata, numClusters), nil
	}
	return stream.Choice(numStrata-1, numClusters), nil
}

// applyClusteredMulti implements the clustered-multi arrangement: the
// target count is split into clusters of bounded size, each placed in a
// non-overlapping stratum, with in-cluster placement either random
// (uniform without replacement within the stratum) or continuous
// (contiguous from the stratum's start).
func applyClusteredMulti(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	if cfg.Unit == UnitBox {
		return applyClusteredMultiBoxes(c, cfg, stream)
	}
	return applyClusteredMultiItems(c, cfg, stream)
}

func applyClusteredMultiItems(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	mc := cfg.ClusteredMulti
	rate, err := cfg.Rate.Draw(stream)
	if err != nil {
		return err
	}
	n := c.NumItems
	target := itemTarget(rate, n)
	if target <= 0 {
		return nil
	}
	sizes := clusterSizes(target, mc.UnitsPerCluster)

	var clusterWidth int
	switch mc.Distribution {
	case ClusterRandom, "":
		if mc.ClusterItemWidth < mc.UnitsPerCluster {
			return &diag.Error{Category: diag.ConfigError, Path: "contamination/clustered-multi/cluster_item_width", Message: "cluster_item_width must be at least contaminated_units_per_cluster"}
		}
		clusterWidth = mc.ClusterItemWidth
		if clusterWidth > n {
			clusterWidth = n
		}
	case ClusterContinuous:
		clusterWidth = mc.UnitsPerCluster
	default:
		return &diag.Error{Category: diag.ConfigError, Path: "contamination/clustered-multi/distribution", Message: fmt.Sprintf("unknown cluster distribution %q", mc.Distribution)}
	}

	strata, err := chooseStrata(n, clusterWidth, len(sizes), stream)
	if err != nil {
		return err
	}

	for i, size := range sizes {
		start := clusterWidth * strata[i]
		width := clusterWidth
		if start+width > n {
			width = n - start
		}
		switch mc.Distribution {
		case ClusterRandom, "":
			for _, offset := range stream.Choice(width, size) {
				c.ItemContaminated.Set(start + offset)
			}
		case ClusterContinuous:
			c.ItemContaminated.SetRange(start, start+size)
		}
	}
	return nil
}

func applyClusteredMultiBoxes(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	mc := cfg.ClusteredMulti
	rate, err := cfg.Rate.Draw(stream)
	if err != nil {
		return err
	}
	fullBoxes, residual := boxTargets(rate, c.NumBoxes, c.ItemsPerBox)
	contaminatedBoxes := fullBoxes
	if residual > 0 {
		contaminatedBoxes++
	}
	if contaminatedBoxes <= 0 {
		return nil
	}
	unitsPerCluster := mc.UnitsPerCluster
	if unitsPerCluster <= 0 {
		unitsPerCluster = 1
	}
	sizes := clusterSizes(contaminatedBoxes, unitsPerCluster)
	strata, err := chooseStrata(c.NumBoxes, unitsPerCluster, len(sizes), stream)
	if err != nil {
		return err
	}

	for i, size := range sizes {
		start := unitsPerCluster * strata[i]
		last := i == len(sizes)-1
		for j := 0; j < size; j++ {
			boxIndex := start + j
			box := c.BoxAt(boxIndex)
			if last && j == size-1 && residual > 0 {
				c.ItemContaminated.SetRange(box.Start, box.Start+residual)
				continue
			}
			c.ItemContaminated.SetRange(box.Start, box.Start+box.Size)
		}
	}
	return nil
}

package contamination

import (
	"fmt"
	"math"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// Contaminate draws a contamination rate from cfg.Rate and arranges
// contaminated units on c according to cfg.Arrangement, mutating c's
// ItemContaminated bitset in place.
func Contaminate(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	switch cfg.Arrangement {
	case ArrangementRandom, "":
		return applyRandom(c, cfg, stream)
	case ArrangementClusteredSingle:
		return applyClusteredSingle(c, cfg, stream)
	case ArrangementClusteredMulti:
		return applyClusteredMulti(c, cfg, stream)
	case ArrangementRandomBox:
		return applyRandomBox(c, cfg, stream)
	default:
		return &diag.Error{Category: diag.ConfigError, Path: "contamination/arrangement", Message: fmt.Sprintf("unknown arrangement %q", cfg.Arrangement)}
	}
}

// itemTarget returns the number of items to contaminate for a given
// drawn rate and item-unit consignment, rounding to the nearest integer.
func itemTarget(rate float64, numItems int) int {
	return int(math.Round(rate * float64(numItems)))
}

// boxTargets splits a box-unit rate into a count of fully-contaminated
// boxes plus a residual item count for one partially-contaminated box:
// floor(r*B) full boxes + round(frac*K) residual items.
func boxTargets(rate float64, numBoxes, itemsPerBox int) (fullBoxes, residualItems int) {
	boxFrac := rate * float64(numBoxes)
	fullBoxes = int(math.Floor(boxFrac))
	frac := boxFrac - float64(fullBoxes)
	residualItems = int(math.Round(frac * float64(itemsPerBox)))
	return fullBoxes, residualItems
}

func applyRandom(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	rate, err := cfg.Rate.Draw(stream)
	if err != nil {
		return err
	}
	if cfg.Unit == UnitBox {
		fullBoxes, residual := boxTargets(rate, c.NumBoxes, c.ItemsPerBox)
		contaminateBoxesRandomly(c, stream, fullBoxes, residual)
		return nil
	}
	target := itemTarget(rate, c.NumItems)
	if target <= 0 {
		return nil
	}
	for _, i := range stream.Choice(c.NumItems, target) {
		c.ItemContaminated.Set(i)
	}
	return nil
}

// contaminateBoxesRandomly selects fullBoxes+1 (if residual > 0) box
// indices uniformly without replacement, fully contaminating all but the
// last selected box, which receives only its residual item count.
func contaminateBoxesRandomly(c *consignment.Consignment, stream *rng.Stream, fullBoxes, residual int) {
	numSelect := fullBoxes
	if residual > 0 {
		numSelect++
	}
	if numSelect <= 0 {
		return
	}
	if numSelect > c.NumBoxes {
		numSelect = c.NumBoxes
	}
	boxIdx := stream.Choice(c.NumBoxes, numSelect)
	for i, b := range boxIdx {
		box := c.BoxAt(b)
		if residual > 0 && i == len(boxIdx)-1 {
			c.ItemContaminated.SetRange(box.Start, box.Start+residual)
			continue
		}
		c.ItemContaminated.SetRange(box.Start, box.Start+box.Size)
	}
}

func applyRandomBox(c *consignment.Consignment, cfg Config, stream *rng.Stream) error {
	rb := cfg.RandomBox
	if !stream.Bernoulli(rb.Probability) {
		return nil
	}
	numBoxes := int(math.Ceil(rb.Ratio * float64(c.NumBoxes)))
	if numBoxes <= 0 {
		return nil
	}
	if numBoxes > c.NumBoxes {
		numBoxes = c.NumBoxes
	}
	for _, b := range stream.Choice(c.NumBoxes, numBoxes) {
		box := c.BoxAt(b)
		switch rb.InBoxArrangement {
		case InBoxAll, "":
			c.ItemContaminated.SetRange(box.Start, box.Start+box.Size)
		case InBoxFirst:
			c.ItemContaminated.Set(box.Start)
		case InBoxOneRandom:
			if box.Size > 0 {
				c.ItemContaminated.Set(box.Start + stream.IntRange(0, box.Size-1))
			}
		case InBoxRandom:
			// in_box_arrangement=random reuses the top-level contamination_rate
			// as the within-box rate; that wins over any global per-consignment
			// rate.
			rate, err := cfg.Rate.Draw(stream)
			if err != nil {
				return err
			}
			n := itemTarget(rate, box.Size)
			if n <= 0 {
				continue
			}
			for _, i := range stream.Choice(box.Size, n) {
				c.ItemContaminated.Set(box.Start + i)
			}
		default:
			return &diag.Error{Category: diag.ConfigError, Path: "contamination/random_box/in_box_arrangement", Message: fmt.Sprintf("unknown in_box_arrangement %q", rb.InBoxArrangement)}
		}
	}
	return nil
}

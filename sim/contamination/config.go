// Package contamination implements the contamination engine: drawing a
// contamination rate, converting it to a target unit count, and arranging
// contaminated units under one of four regimes. Grounded on
// _examples/original_source/popsborder/contamination.py.
package contamination

import (
	"time"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
)

// Unit selects whether the contamination rate is interpreted per-item or
// per-box.
type Unit string

const (
	UnitItem Unit = "item"
	UnitBox  Unit = "box"
)

// RateDistribution selects how the contamination rate is drawn.
type RateDistribution string

const (
	RateFixed RateDistribution = "fixed"
	RateBeta  RateDistribution = "beta"
)

// RateConfig is the `contamination_rate` configuration group.
type RateConfig struct {
	Distribution RateDistribution
	Value        float64 // used when Distribution == RateFixed
	A, B         float64 // Beta shape parameters, used when Distribution == RateBeta
}

// Arrangement selects how contaminated units are placed within the
// consignment.
type Arrangement string

const (
	ArrangementRandom          Arrangement = "random"
	ArrangementClusteredSingle Arrangement = "clustered-single"
	ArrangementClusteredMulti  Arrangement = "clustered-multi"
	ArrangementRandomBox       Arrangement = "random_box"
)

// ClusteredSingleConfig parametrizes the clustered-single arrangement.
type ClusteredSingleConfig struct {
	// Value controls subset size: s = max(target, round(N/(1+Value))).
	// Higher Value means a smaller subset window. Value == 0 is treated as
	// equivalent to the random arrangement.
	Value float64
}

// ClusterDistribution selects how items are placed within a cluster
// stratum in the clustered-multi arrangement.
type ClusterDistribution string

const (
	ClusterRandom     ClusterDistribution = "random"
	ClusterContinuous ClusterDistribution = "continuous"
)

// ClusteredMultiConfig parametrizes the clustered-multi arrangement.
type ClusteredMultiConfig struct {
	UnitsPerCluster  int
	Distribution     ClusterDistribution
	ClusterItemWidth int // required, and must be >= UnitsPerCluster, when Distribution == ClusterRandom
}

// InBoxArrangement selects how a selected box is contaminated in the
// random_box arrangement.
type InBoxArrangement string

const (
	InBoxAll       InBoxArrangement = "all"
	InBoxFirst     InBoxArrangement = "first"
	InBoxOneRandom InBoxArrangement = "one_random"
	InBoxRandom    InBoxArrangement = "random"
)

// RandomBoxConfig parametrizes the random_box arrangement.
type RandomBoxConfig struct {
	Probability      float64
	Ratio            float64
	InBoxArrangement InBoxArrangement
}

// Config is one resolved `contamination` configuration block.
type Config struct {
	Unit            Unit
	Rate            RateConfig
	Arrangement     Arrangement
	ClusteredSingle ClusteredSingleConfig
	ClusteredMulti  ClusteredMultiConfig
	RandomBox       RandomBoxConfig
}

// Rule is one entry of a first-match-wins consignment rule table. An empty
// predicate field matches any value; a zero StartDate/EndDate likewise
// leaves that end of the date range unbounded.
type Rule struct {
	Commodity string
	Origin    string
	Port      string
	Pathway   string
	StartDate time.Time
	EndDate   time.Time

	// UseDefaults, when true, applies the table's default Config to
	// matched consignments instead of Config below.
	UseDefaults bool
	Config      Config
}

// Matches reports whether the rule's predicate matches c. Empty predicate
// fields are wildcards; when StartDate/EndDate are set, c.Date must lie in
// [StartDate, EndDate].
func (r Rule) Matches(c *consignment.Consignment) bool {
	if r.Commodity != "" && r.Commodity != c.Commodity {
		return false
	}
	if r.Origin != "" && r.Origin != c.Origin {
		return false
	}
	if r.Port != "" && r.Port != c.Port {
		return false
	}
	if r.Pathway != "" && r.Pathway != c.Pathway {
		return false
	}
	if !r.StartDate.IsZero() && c.Date.Before(r.StartDate) {
		return false
	}
	if !r.EndDate.IsZero() && c.Date.After(r.EndDate) {
		return false
	}
	return true
}

// Resolve returns the Config to apply to c, walking rules in order and
// returning the first match; defaultConfig is used for UseDefaults rules.
// When rules is empty, defaultConfig applies unconditionally. When rules
// is non-empty but none match, ok is false and the consignment is left
// uncontaminated rather than falling back to defaultConfig.
func Resolve(rules []Rule, defaultConfig Config, c *consignment.Consignment) (cfg Config, ok bool) {
	if len(rules) == 0 {
		return defaultConfig, true
	}
	for _, rule := range rules {
		if rule.Matches(c) {
			if rule.UseDefaults {
				return defaultConfig, true
			}
			return rule.Config, true
		}
	}
	return Config{}, false
}

// Package release implements the release-program family: naive and
// scheduled Cut Flower Release Programs, and fixed/dynamic skip-lot
// compliance-level programs. Grounded on
// _examples/original_source/popsborder/skipping.py for the CFRP variants;
// the skip-lot variants are not present in that file (only exercised via
// tests/test_fixed_skip_lot.py and tests/test_dynamic_skip_lot.py) and are
// reconstructed here from those tests' observed behavior.
package release

import (
	"time"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// Program decides whether a consignment must be inspected, and names the
// release program that made the decision (empty string if none applied).
type Program interface {
	Evaluate(c *consignment.Consignment, date time.Time, stream *rng.Stream) (inspect bool, programName string)
}

// AlwaysInspect is the default program when no release program is
// configured, grounded on skipping.py's inspect_always.
type AlwaysInspect struct{}

func (AlwaysInspect) Evaluate(*consignment.Consignment, time.Time, *rng.Stream) (bool, string) {
	return true, ""
}

// NaiveCFRPConfig configures the naive Cut Flower Release Program: a
// commodity is exempted from inspection on every day except its assigned
// "flower of the day".
type NaiveCFRPConfig struct {
	Name        string
	Commodities []string
	MaxBoxes    int
}

// NaiveCFRP implements the naive flower-of-the-day CFRP (skipping.py's
// naive_cfrp / is_naive_flower_of_the_day): flower-of-the-day is
// date.Day() % len(commodities), assigning exactly one commodity per
// calendar day in round-robin.
type NaiveCFRP struct {
	Config NaiveCFRPConfig
}

func (p NaiveCFRP) Evaluate(c *consignment.Consignment, date time.Time, _ *rng.Stream) (bool, string) {
	cfrp := p.Config.Commodities
	if len(cfrp) == 0 || !contains(cfrp, c.Commodity) || c.NumBoxes > p.Config.MaxBoxes {
		return true, ""
	}
	i := date.Day() % len(cfrp)
	if cfrp[i] == c.Commodity {
		return true, p.Config.Name // flower of the day: still inspected
	}
	return false, p.Config.Name // in CFRP, not FotD: released
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// ScheduledCFRPConfig configures the table-driven Cut Flower Release
// Program: a fixed (commodity, origin) -> inspection-dates schedule,
// optionally restricted to a set of participating ports.
type ScheduledCFRPConfig struct {
	Name  string
	Ports []string // empty means all ports participate
}

type commodityOrigin struct {
	commodity, origin string
}

// ScheduledCFRP implements the schedule-table CFRP (skipping.py's
// CutFlowerReleaseProgram): a consignment is inspected on the dates its
// (commodity, origin) pair is scheduled for, and released otherwise.
type ScheduledCFRP struct {
	Config   ScheduledCFRPConfig
	Schedule map[commodityOrigin]map[time.Time]bool
}

// NewScheduledCFRP builds a ScheduledCFRP from a flat list of (commodity,
// origin, date) schedule rows, as read from a scheduled-CFRP CSV by an
// external collaborator.
func NewScheduledCFRP(cfg ScheduledCFRPConfig, rows []ScheduleRow) *ScheduledCFRP {
	schedule := make(map[commodityOrigin]map[time.Time]bool)
	for _, row := range rows {
		key := commodityOrigin{commodity: row.Commodity, origin: row.Origin}
		if schedule[key] == nil {
			schedule[key] = make(map[time.Time]bool)
		}
		schedule[key][row.Date] = true
	}
	return &ScheduledCFRP{Config: cfg, Schedule: schedule}
}

// ScheduleRow is one (commodity, origin, date) row of a scheduled CFRP
// table.
type ScheduleRow struct {
	Commodity string
	Origin    string
	Date      time.Time
}

func (p *ScheduledCFRP) Evaluate(c *consignment.Consignment, date time.Time, _ *rng.Stream) (bool, string) {
	if len(p.Config.Ports) > 0 && !contains(p.Config.Ports, c.Port) {
		return true, ""
	}
	dates, ok := p.Schedule[commodityOrigin{commodity: c.Commodity, origin: c.Origin}]
	if !ok {
		return true, ""
	}
	if dates[date] {
		return true, p.Config.Name
	}
	return false, p.Config.Name
}

package release

import (
	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
)

// ResultRecorder is implemented by release programs whose compliance state
// depends on inspection outcomes (currently only DynamicSkipLot). The
// orchestrator checks for this interface after every inspection decision.
type ResultRecorder interface {
	AddInspectionResult(c *consignment.Consignment, inspected, compliant bool)
}

// Type names which Program implementation a Config builds.
type Type string

const (
	TypeAlways         Type = "always"
	TypeNaiveCFRP      Type = "naive_cfrp"
	TypeScheduledCFRP  Type = "scheduled_cfrp"
	TypeFixedSkipLot   Type = "fixed_skip_lot"
	TypeDynamicSkipLot Type = "dynamic_skip_lot"
)

// Config selects and parameterizes exactly one release program, mirroring
// how contamination.Config and inspection.Config bundle every variant's
// parameters behind one discriminated type field.
type Config struct {
	Type           Type
	Naive          NaiveCFRPConfig
	Scheduled      ScheduledCFRPConfig
	ScheduleRows   []ScheduleRow
	FixedSkipLot   FixedSkipLotConfig
	DynamicSkipLot DynamicSkipLotConfig
}

// Build constructs the Program named by cfg.Type. A DynamicSkipLot's state
// is fresh on every call, so release-program state never escapes the
// simulation iteration that owns it.
func Build(cfg Config) (Program, error) {
	switch cfg.Type {
	case "", TypeAlways:
		return AlwaysInspect{}, nil
	case TypeNaiveCFRP:
		return NaiveCFRP{Config: cfg.Naive}, nil
	case TypeScheduledCFRP:
		return NewScheduledCFRP(cfg.Scheduled, cfg.ScheduleRows), nil
	case TypeFixedSkipLot:
		return &FixedSkipLot{Config: cfg.FixedSkipLot}, nil
	case TypeDynamicSkipLot:
		return NewDynamicSkipLot(cfg.DynamicSkipLot), nil
	default:
		return nil, &diag.Error{Category: diag.ConfigError, Path: "release.type", Message: "unknown release program type: " + string(cfg.Type)}
	}
}

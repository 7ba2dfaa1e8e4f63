package contamination

import (
	"fmt"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// Draw samples a contamination rate from the configured distribution,
// clamped to [0, 1]: a degenerate draw is recovered by clamping rather than
// treated as a fatal error.
func (r RateConfig) Draw(stream *rng.Stream) (float64, error) {
	var rate float64
	switch r.Distribution {
	case RateFixed:
		rate = r.Value
	case RateBeta:
		if r.A <= 0 || r.B <= 0 {
			return 0, &diag.Error{Category: diag.ConfigError, Path: "contamination_rate/beta", Message: "beta parameters must be positive"}
		}
		rate = stream.Beta(r.A, r.B)
	default:
		return 0, &diag.Error{Category: diag.ConfigError, Path: "contamination_rate/distribution", Message: fmt.Sprintf("unknown distribution %q", r.Distribution)}
	}
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	return rate, nil
}

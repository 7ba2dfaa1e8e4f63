package release

import (
	"testing"
	"time"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

func fixedSkipLotFixture() *FixedSkipLot {
	return &FixedSkipLot{Config: FixedSkipLotConfig{
		Name:              "Skip Lot",
		Track:             []string{"origin", "commodity"},
		SamplingFractions: []float64{1, 0.5, 0},
		DefaultLevel:      1,
		Records: map[string]int{
			recordKey([]string{"origin", "commodity"}, simpleConsignment("Hyacinthus", "Netherlands", "")): 2,
			recordKey([]string{"origin", "commodity"}, simpleConsignment("Gerbera", "Mexico", "")):         3,
		},
	}}
}

func TestFixedSkipLot_ComplianceLevelForConsignment(t *testing.T) {
	p := fixedSkipLotFixture()
	cases := []struct {
		commodity, origin string
		want              int
	}{
		{"Hyacinthus", "Netherlands", 2},
		{"Gerbera", "Mexico", 3},
		{"Rosa", "Israel", 1}, // untracked group falls back to DefaultLevel
	}
	for _, c := range cases {
		consignment := simpleConsignment(c.commodity, c.origin, "")
		if got := p.ComplianceLevelForConsignment(consignment); got != c.want {
			t.Errorf("ComplianceLevelForConsignment(%s/%s) = %d, want %d", c.origin, c.commodity, got, c.want)
		}
	}
}

func TestFixedSkipLot_SamplingFractionForLevel(t *testing.T) {
	p := fixedSkipLotFixture()
	cases := map[int]float64{1: 1, 2: 0.5, 3: 0}
	for level, want := range cases {
		if got := p.SamplingFractionForLevel(level); got != want {
			t.Errorf("SamplingFractionForLevel(%d) = %v, want %v", level, got, want)
		}
	}
}

func TestFixedSkipLot_ZeroFractionNeverInspects(t *testing.T) {
	p := fixedSkipLotFixture()
	c := simpleConsignment("Gerbera", "Mexico", "")
	for seed := int64(0); seed < 10; seed++ {
		inspect, name := p.Evaluate(c, c.Date, rng.NewStream(seed))
		if inspect {
			t.Errorf("seed %d: expected no inspection at sampling_fraction=0", seed)
		}
		if name != "Skip Lot" {
			t.Errorf("seed %d: program name = %q, want \"Skip Lot\"", seed, name)
		}
	}
}

func TestFixedSkipLot_FullFractionAlwaysInspects(t *testing.T) {
	p := fixedSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "") // untracked -> DefaultLevel 1 -> fraction 1
	for seed := int64(0); seed < 10; seed++ {
		inspect, _ := p.Evaluate(c, c.Date, rng.NewStream(seed))
		if !inspect {
			t.Errorf("seed %d: expected inspection at sampling_fraction=1", seed)
		}
	}
}

func dynamicSkipLotFixture() *DynamicSkipLot {
	return NewDynamicSkipLot(DynamicSkipLotConfig{
		Name:              "Test Dynamic Skip Lot",
		Track:             []string{"origin", "commodity"},
		SamplingFractions: []float64{1, 0.5, 0.25, 0.1},
		StartLevel:        1,
		ClearanceNumber:   10,
	})
}

func TestDynamicSkipLot_StartsAtStartLevel(t *testing.T) {
	p := dynamicSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "")
	if got := p.ComplianceLevelForConsignment(c); got != 1 {
		t.Errorf("initial level = %d, want 1", got)
	}
}

func TestDynamicSkipLot_PromotesAfterClearanceNumberSuccesses(t *testing.T) {
	p := dynamicSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "")
	for i := 0; i < 10; i++ {
		p.AddInspectionResult(c, true, true)
	}
	if got := p.ComplianceLevelForConsignment(c); got != 2 {
		t.Errorf("level after 10 consecutive inspected successes = %d, want 2", got)
	}
}

func TestDynamicSkipLot_UninspectedDoesNotCount(t *testing.T) {
	p := dynamicSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "")
	for i := 0; i < 10; i++ {
		p.AddInspectionResult(c, false, true) // not inspected: must not advance the counter
	}
	if got := p.ComplianceLevelForConsignment(c); got != 1 {
		t.Errorf("level after uninspected results = %d, want unchanged 1", got)
	}
}

func TestDynamicSkipLot_FailureResetsToStartLevel(t *testing.T) {
	p := dynamicSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "")
	for i := 0; i < 10; i++ {
		p.AddInspectionResult(c, true, true)
	}
	if got := p.ComplianceLevelForConsignment(c); got != 2 {
		t.Fatalf("setup failed: level = %d, want 2", got)
	}
	p.AddInspectionResult(c, true, false)
	if got := p.ComplianceLevelForConsignment(c); got != 1 {
		t.Errorf("level after a failed inspection = %d, want 1 (StartLevel)", got)
	}
}

func TestDynamicSkipLot_ReachesMaxLevelAndStaysCapped(t *testing.T) {
	p := dynamicSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "")
	for i := 0; i < 40; i++ {
		p.AddInspectionResult(c, true, true)
	}
	if got := p.ComplianceLevelForConsignment(c); got != 4 {
		t.Errorf("level after 40 consecutive successes = %d, want 4 (max level)", got)
	}
	for i := 0; i < 10; i++ {
		p.AddInspectionResult(c, true, true)
	}
	if got := p.ComplianceLevelForConsignment(c); got != 4 {
		t.Errorf("level should stay capped at 4, got %d", got)
	}
}

func TestDynamicSkipLot_QuickRestateReturnsToPreFailureLevel(t *testing.T) {
	p := NewDynamicSkipLot(DynamicSkipLotConfig{
		Name:                        "Test Dynamic Skip Lot",
		Track:                       []string{"origin", "commodity"},
		SamplingFractions:           []float64{1, 0.5, 0.25, 0.1},
		StartLevel:                  1,
		ClearanceNumber:             10,
		QuickRestateClearanceNumber: 5,
	})
	c := simpleConsignment("Rosa", "Netherlands", "")
	for i := 0; i < 20; i++ {
		p.AddInspectionResult(c, true, true)
	}
	if got := p.ComplianceLevelForConsignment(c); got != 3 {
		t.Fatalf("setup failed: level = %d, want 3", got)
	}
	p.AddInspectionResult(c, true, false)
	if got := p.ComplianceLevelForConsignment(c); got != 1 {
		t.Fatalf("level immediately after failure = %d, want 1", got)
	}
	for i := 0; i < 5; i++ {
		p.AddInspectionResult(c, true, true)
	}
	if got := p.ComplianceLevelForConsignment(c); got != 3 {
		t.Errorf("level after quick-restate threshold = %d, want 3 (pre-failure level)", got)
	}
}

func TestDynamicSkipLot_Evaluate_ProgramNameAlwaysPresent(t *testing.T) {
	p := dynamicSkipLotFixture()
	c := simpleConsignment("Rosa", "Netherlands", "")
	_, name := p.Evaluate(c, time.Now(), rng.NewStream(1))
	if name != "Test Dynamic Skip Lot" {
		t.Errorf("program name = %q, want \"Test Dynamic Skip Lot\"", name)
	}
}

func TestDynamicSkipLot_TracksIndependentGroupsSeparately(t *testing.T) {
	p := dynamicSkipLotFixture()
	a := simpleConsignment("Rosa", "Netherlands", "")
	b := simpleConsignment("Gerbera", "Mexico", "")
	for i := 0; i < 10; i++ {
		p.AddInspectionResult(a, true, true)
	}
	if got := p.ComplianceLevelForConsignment(a); got != 2 {
		t.Errorf("group a level = %d, want 2", got)
	}
	if got := p.ComplianceLevelForConsignment(b); got != 1 {
		t.Errorf("group b level = %d, want unaffected at 1", got)
	}
}

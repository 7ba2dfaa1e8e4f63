package inspection

import (
	"testing"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

func testStream() *rng.Stream { return rng.NewStream(7) }

func TestSelectUnits_Convenience(t *testing.T) {
	c := newConsignment(4, 5) // 20 items
	cfg := Config{Unit: UnitItem, SelectionStrategy: SelectionConvenience}
	idx, _, err := selectUnits(cfg, c, 5, testStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int{0, 1, 2, 3, 4}
	if len(idx) != len(want) {
		t.Fatalf("len(idx) = %d, want %d", len(idx), len(want))
	}
	for i, v := range want {
		if idx[i] != v {
			t.Errorf("idx[%d] = %d, want %d", i, idx[i], v)
		}
	}
}

func TestSelectUnits_Random_FullPopulationReturnsEveryIndex(t *testing.T) {
	c := newConsignment(4, 5) // 20 items
	cfg := Config{Unit: UnitItem, SelectionStrategy: SelectionRandom}
	idx, _, err := selectUnits(cfg, c, 20, testStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(idx) != 20 {
		t.Fatalf("len(idx) = %d, want 20", len(idx))
	}
	for i, v := range idx {
		if v != i {
			t.Errorf("sorted full-population selection should be 0..19, idx[%d] = %d", i, v)
		}
	}
}

func TestSelectUnits_Cluster_RequiresItemUnit(t *testing.T) {
	c := newConsignment(4, 5)
	cfg := Config{Unit: UnitBox, SelectionStrategy: SelectionCluster}
	_, _, err := selectUnits(cfg, c, 5, testStream())
	if err == nil {
		t.Fatal("expected a config error when cluster selection is combined with unit=box")
	}
}

func TestSelectClusterBoxes_IntervalWrapsAround(t *testing.T) {
	c := newConsignment(5, 10)
	cfg := Config{Unit: UnitItem, WithinBoxProportion: 0.5, SelectionStrategy: SelectionCluster, ClusterSelection: ClusterSelectionInterval, ClusterInterval: 2}
	// capacity = ceil(0.5*10) = 5; sampleSize 16 -> numBoxes = ceil(16/5) = 4,
	// and the interval-2 walk over 5 boxes wraps: 0, 2, 4, 6%5=1.
	boxes, capacity := selectClusterBoxes(cfg, c, 16, testStream())
	if capacity != 5 {
		t.Errorf("capacity = %d, want 5", capacity)
	}
	want := []int{0, 2, 4, 1}
	if len(boxes) != len(want) {
		t.Fatalf("boxes = %v, want %v", boxes, want)
	}
	for i, v := range want {
		if boxes[i] != v {
			t.Errorf("boxes[%d] = %d, want %d", i, boxes[i], v)
		}
	}
}

func TestExpandToItemIndexes_UnitBox(t *testing.T) {
	c := newConsignment(4, 5)
	cfg := Config{Unit: UnitBox}
	items := expandToItemIndexes(cfg, c, []int{1, 3}, 0)
	want := []int{5, 6, 7, 8, 9, 15, 16, 17, 18, 19}
	if len(items) != len(want) {
		t.Fatalf("items = %v, want %v", items, want)
	}
	for i, v := range want {
		if items[i] != v {
			t.Errorf("items[%d] = %d, want %d", i, items[i], v)
		}
	}
}

func TestExamine_EffectivenessOneDetectsOnFirstContaminatedItem(t *testing.T) {
	c := newConsignment(1, 4) // all 4 items in one box
	c.ItemContaminated.Set(2)

	obs := examine(c, []int{0, 1, 2, 3}, 1.0, false, testStream())

	if !obs.Detected {
		t.Fatal("expected Detected = true")
	}
	if obs.ItemsInspectedToDetection != 3 {
		t.Errorf("ItemsInspectedToDetection = %d, want 3", obs.ItemsInspectedToDetection)
	}
	if obs.ItemsInspectedToCompletion != 4 {
		t.Errorf("ItemsInspectedToCompletion = %d, want 4", obs.ItemsInspectedToCompletion)
	}
	if obs.ContaminatedItemsToDetection != 1 {
		t.Errorf("ContaminatedItemsToDetection = %d, want 1", obs.ContaminatedItemsToDetection)
	}
	if obs.ContaminatedItemsToCompletion != 1 {
		t.Errorf("ContaminatedItemsToCompletion = %d, want 1", obs.ContaminatedItemsToCompletion)
	}
	if obs.BoxesOpenedToDetection != 1 || obs.BoxesOpenedToCompletion != 1 {
		t.Errorf("boxes opened = (%d, %d), want (1, 1)", obs.BoxesOpenedToDetection, obs.BoxesOpenedToCompletion)
	}
	for i := 0; i < 4; i++ {
		if !c.ItemInspected.Get(i) {
			t.Errorf("item %d should be marked inspected", i)
		}
	}
}

func TestExamine_EffectivenessZeroNeverDetects(t *testing.T) {
	c := newConsignment(1, 4)
	c.ItemContaminated.Set(0)
	c.ItemContaminated.Set(1)

	obs := examine(c, []int{0, 1, 2, 3}, 0.0, false, testStream())

	if obs.Detected {
		t.Error("expected Detected = false at effectiveness 0")
	}
	if obs.ItemsInspectedToDetection != 4 {
		t.Errorf("ItemsInspectedToDetection = %d, want 4 (never stops)", obs.ItemsInspectedToDetection)
	}
	if obs.ContaminatedItemsToDetection != 0 || obs.ContaminatedItemsToCompletion != 0 {
		t.Error("zero effectiveness should never tally a contaminated detection")
	}
}

func TestInspect_AllStrategyMarksEveryItemInspected(t *testing.T) {
	c := newConsignment(3, 4) // 12 items
	cfg := Config{Unit: UnitItem, SampleStrategy: SampleAll, SelectionStrategy: SelectionConvenience, Effectiveness: 0.5}
	obs, err := Inspect(c, cfg, testStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.SampleSize != 12 {
		t.Errorf("SampleSize = %d, want 12", obs.SampleSize)
	}
	if obs.ItemsInspectedToCompletion != 12 {
		t.Errorf("ItemsInspectedToCompletion = %d, want 12", obs.ItemsInspectedToCompletion)
	}
	for i := 0; i < 12; i++ {
		if !c.ItemInspected.Get(i) {
			t.Errorf("item %d should be marked inspected under SampleAll", i)
		}
	}
}

func TestInspect_FixedNBoxUnitOpensWholeBoxes(t *testing.T) {
	c := newConsignment(5, 4) // 20 items
	cfg := Config{Unit: UnitBox, SampleStrategy: SampleFixedN, FixedN: 2, SelectionStrategy: SelectionConvenience, Effectiveness: 1}
	obs, err := Inspect(c, cfg, testStream())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obs.SampleSize != 2 {
		t.Errorf("SampleSize = %d, want 2", obs.SampleSize)
	}
	if obs.ItemsInspectedToCompletion != 8 {
		t.Errorf("ItemsInspectedToCompletion = %d, want 8 (2 boxes * 4 items)", obs.ItemsInspectedToCompletion)
	}
}

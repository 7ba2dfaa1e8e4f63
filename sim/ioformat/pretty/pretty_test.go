package pretty

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
)

func TestWrite_BoxesAndItems_MarksContaminatedGlyph(t *testing.T) {
	c := consignment.New("Rosa", "Netherlands", "p", "airport", time.Now(), 2, 3)
	c.ItemContaminated.Set(4) // second item of the second box

	var buf bytes.Buffer
	cfg := DefaultConfig()
	if err := Write(&buf, c, cfg, ModeBoxesAndItems); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Boxes: 2") || !strings.Contains(out, "Items: 6") {
		t.Errorf("header missing counts: %q", out)
	}
	if strings.Count(out, cfg.Bug) != 1 {
		t.Errorf("expected exactly one bug glyph, got: %q", out)
	}
	if strings.Count(out, cfg.Flower) != 5 {
		t.Errorf("expected five flower glyphs, got: %q", out)
	}
}

func TestWrite_BoxesOnly_ContaminatedBoxRendersOnce(t *testing.T) {
	c := consignment.New("Rosa", "Netherlands", "p", "airport", time.Now(), 3, 2)
	c.ItemContaminated.Set(5) // last item of the third box

	var buf bytes.Buffer
	cfg := DefaultConfig()
	if err := Write(&buf, c, cfg, ModeBoxesOnly); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if strings.Count(out, cfg.Bug) != 1 {
		t.Errorf("expected exactly one contaminated box glyph, got: %q", out)
	}
	if strings.Count(out, cfg.Flower) != 2 {
		t.Errorf("expected two clean box glyphs, got: %q", out)
	}
}

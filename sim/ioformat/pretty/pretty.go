// Package pretty renders a consignment as a line of glyphs, one per item,
// grouped by box. It is an external collaborator to the core simulation,
// grounded on popsborder/outputs.py's pretty_consignment and rebuilt here
// from the documented header/glyph format since the source file itself
// was not retrieved in full.
package pretty

import (
	"fmt"
	"io"
	"strings"

	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
)

// Config configures the glyphs used to render a consignment.
type Config struct {
	Flower         string // clean item glyph
	Bug            string // contaminated item glyph
	HorizontalLine string // header rule glyph, repeated
	BoxLine        string // glyph separating boxes
	Spaces         int    // spaces between items within a box
}

// DefaultConfig matches popsborder's default glyph set.
func DefaultConfig() Config {
	return Config{Flower: "❀", Bug: "🐛", HorizontalLine: "━", BoxLine: "|", Spaces: 1}
}

// Mode selects how much of a consignment is rendered.
type Mode string

const (
	ModeBoxesAndItems Mode = "boxes"      // header + full item-by-item glyph grid
	ModeItemsOnly     Mode = "items"      // item glyphs with no box delimiters
	ModeBoxesOnly     Mode = "boxes_only" // one glyph per box, contaminated if any item is
)

// Write renders c to w under cfg and mode.
func Write(w io.Writer, c *consignment.Consignment, cfg Config, mode Mode) error {
	header := fmt.Sprintf("%s Consignment %s Boxes: %d %s Items: %d %s\n",
		strings.Repeat(cfg.HorizontalLine, 2), strings.Repeat(cfg.HorizontalLine, 2), c.NumBoxes,
		strings.Repeat(cfg.HorizontalLine, 2), c.NumItems, strings.Repeat(cfg.HorizontalLine, 2))
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	var b strings.Builder
	switch mode {
	case ModeBoxesOnly:
		for box := 0; box < c.NumBoxes; box++ {
			if box > 0 {
				b.WriteString(strings.Repeat(" ", cfg.Spaces))
			}
			b.WriteString(glyph(cfg, c.BoxContaminated(box)))
		}
	case ModeItemsOnly:
		for i := 0; i < c.NumItems; i++ {
			if i > 0 {
				b.WriteString(strings.Repeat(" ", cfg.Spaces))
			}
			b.WriteString(glyph(cfg, c.ItemContaminated.Get(i)))
		}
	default: // ModeBoxesAndItems
		for box := 0; box < c.NumBoxes; box++ {
			if box > 0 {
				b.WriteString(" " + cfg.BoxLine + " ")
			}
			boxView := c.BoxAt(box)
			for i := 0; i < boxView.Size; i++ {
				if i > 0 {
					b.WriteString(strings.Repeat(" ", cfg.Spaces))
				}
				b.WriteString(glyph(cfg, c.ItemContaminated.Get(boxView.Start+i)))
			}
		}
	}
	b.WriteString("\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func glyph(cfg Config, contaminated bool) string {
	if contaminated {
		return cfg.Bug
	}
	return cfg.Flower
}

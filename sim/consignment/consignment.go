// Package consignment implements the consignment data model and the three
// consignment generators (parameter-based, F280-derived, AQIM-derived),
// grounded on _examples/original_source/popsborder/consignments.py.
package consignment

import "time"

// Consignment is an ordered sequence of boxes of equal size, plus the
// per-item contamination and inspection bitmaps carried as derived state.
// Boxes are views into the two bitsets, not separate storage, matching the
// Python Box-as-array-slice design.
type Consignment struct {
	Commodity string
	Origin    string
	Port      string
	Pathway   string
	Date      time.Time

	ItemsPerBox int
	NumBoxes    int
	NumItems    int

	ItemContaminated *consignmentBitset
	ItemInspected    *consignmentBitset
}

// consignmentBitset is an unexported alias of this package's Bitset type.
type consignmentBitset = Bitset

// New constructs an empty (uncontaminated, uninspected) Consignment with
// numBoxes boxes of itemsPerBox items each.
func New(commodity, origin, port, pathway string, date time.Time, numBoxes, itemsPerBox int) *Consignment {
	numItems := numBoxes * itemsPerBox
	return &Consignment{
		Commodity:        commodity,
		Origin:           origin,
		Port:             port,
		Pathway:          pathway,
		Date:             date,
		ItemsPerBox:      itemsPerBox,
		NumBoxes:         numBoxes,
		NumItems:         numItems,
		ItemContaminated: NewBitset(numItems),
		ItemInspected:    NewBitset(numItems),
	}
}

// Box is a view into a Consignment's boxes: the range [Start, Start+Size)
// of item indices belonging to one box.
type Box struct {
	Start int
	Size  int
}

// BoxAt returns the Box view for box index b, with Size clamped so a
// partial trailing box (NumItems != NumBoxes*ItemsPerBox, as produced by
// the F280/AQIM generators) never reports items past NumItems.
func (c *Consignment) BoxAt(b int) Box {
	start := b * c.ItemsPerBox
	size := c.ItemsPerBox
	if remaining := c.NumItems - start; size > remaining {
		size = remaining
	}
	if size < 0 {
		size = 0
	}
	return Box{Start: start, Size: size}
}

// BoxContaminated reports whether any item in box b is contaminated
// (box_contaminated[b] <=> any item in box b contaminated).
func (c *Consignment) BoxContaminated(b int) bool {
	box := c.BoxAt(b)
	return c.ItemContaminated.AnyInRange(box.Start, box.Start+box.Size)
}

// CountContaminated returns the total number of contaminated items.
func (c *Consignment) CountContaminated() int {
	return c.ItemContaminated.CountOnes()
}

// IsContaminated reports whether any item in the whole consignment is
// contaminated.
func (c *Consignment) IsContaminated() bool {
	return c.ItemContaminated.AnyInRange(0, c.NumItems)
}

// ContaminationRate returns the fraction of items contaminated, 0 if the
// consignment has no items.
func (c *Consignment) ContaminationRate() float64 {
	if c.NumItems == 0 {
		return 0
	}
	return float64(c.CountContaminated()) / float64(c.NumItems)
}

// ItemInBoxToIndex converts an item's position within box boxIndex to its
// index in the consignment-wide bitsets.
func (c *Consignment) ItemInBoxToIndex(boxIndex, itemInBox int) int {
	return boxIndex*c.ItemsPerBox + itemInBox
}

package consignment

import (
	"fmt"
	"math"
	"time"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/rng"
)

// Generator produces one Consignment per call, grounded on
// popsborder/consignments.py's ParameterConsignmentGenerator,
// F280ConsignmentGenerator, and AQIMConsignmentGenerator.
type Generator interface {
	Generate(stream *rng.Stream) (*Consignment, error)
}

// NewGenerator selects a Generator implementation from cfg, mirroring
// get_consignment_generator's dispatch-on-config-presence logic. F280/AQIM
// records are supplied pre-parsed by an external collaborator rather than
// read from disk here.
func NewGenerator(cfg Config, f280Records []F280Record, aqimRecords []AQIMRecord) (Generator, error) {
	switch cfg.GenerationMethod {
	case GenerationF280:
		return NewF280Generator(cfg.ItemsPerBox, f280Records)
	case GenerationAQIM:
		return NewAQIMGenerator(cfg.ItemsPerBox, aqimRecords)
	default:
		return NewParameterGenerator(cfg.Parameters, cfg.ItemsPerBox)
	}
}

// ParameterGenerator synthesizes consignments from random box counts and
// uniformly-chosen categorical attributes.
type ParameterGenerator struct {
	params      ParameterConfig
	itemsPerBox ItemsPerBoxConfig
	generated   int
	date        time.Time
}

// NewParameterGenerator validates and constructs a ParameterGenerator.
func NewParameterGenerator(params ParameterConfig, itemsPerBox ItemsPerBoxConfig) (*ParameterGenerator, error) {
	if params.BoxesMax <= 0 {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "consignment/parameter_based/boxes/max", Message: "boxes.max must be positive"}
	}
	if params.BoxesMin < 0 || params.BoxesMin > params.BoxesMax {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "consignment/parameter_based/boxes/min", Message: "boxes.min must be in [0, boxes.max]"}
	}
	if len(params.Origins) == 0 || len(params.Commodities) == 0 || len(params.Ports) == 0 {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "consignment/parameter_based", Message: "origins, commodities, and ports must each be non-empty"}
	}
	start := params.StartDate
	if start == "" {
		start = "2020-01-01"
	}
	date, err := time.Parse("2006-01-02", start)
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "consignment/parameter_based/start_date", Message: fmt.Sprintf("invalid date: %v", err)}
	}
	return &ParameterGenerator{params: params, itemsPerBox: itemsPerBox, date: date}, nil
}

// Generate produces the next consignment, advancing the internal calendar
// the same way popsborder does: two consignments share a date out of every
// three generated.
func (g *ParameterGenerator) Generate(stream *rng.Stream) (*Consignment, error) {
	port := g.params.Ports[stream.IntRange(0, len(g.params.Ports)-1)]
	commodity := g.params.Commodities[stream.IntRange(0, len(g.params.Commodities)-1)]
	origin := g.params.Origins[stream.IntRange(0, len(g.params.Origins)-1)]
	numBoxes := stream.IntRange(g.params.BoxesMin, g.params.BoxesMax)
	pathway := "none"
	itemsPerBox := g.itemsPerBox.Resolve(pathway)

	c := New(commodity, origin, port, pathway, g.date, numBoxes, itemsPerBox)

	g.generated++
	if g.generated%3 != 0 {
		g.date = g.date.AddDate(0, 0, 1)
	}
	return c, nil
}

// F280Record is the normalized form of one F280 CSV row, parsed by the
// external CSV-reading collaborator.
type F280Record struct {
	Quantity  int
	Pathway   string
	ReportDt  time.Time
	Commodity string
	OriginNm  string
	Location  string
}

// F280Generator translates pre-parsed F280 inspection records into
// consignments, one record per box-count rounded up from quantity.
type F280Generator struct {
	itemsPerBox ItemsPerBoxConfig
	records     []F280Record
	pos         int
}

// NewF280Generator constructs a generator over records, already read from
// the F280 CSV by the external collaborator.
func NewF280Generator(itemsPerBox ItemsPerBoxConfig, records []F280Record) (*F280Generator, error) {
	return &F280Generator{itemsPerBox: itemsPerBox, records: records}, nil
}

// Generate returns the consignment built from the next unread record, or an
// error once all records have been consumed.
func (g *F280Generator) Generate(stream *rng.Stream) (*Consignment, error) {
	if g.pos >= len(g.records) {
		return nil, &diag.Error{Category: diag.DataError, Path: "f280", Message: "more consignments requested than F280 records available"}
	}
	rec := g.records[g.pos]
	g.pos++

	itemsPerBox := g.itemsPerBox.Resolve(rec.Pathway)
	numBoxes := int(math.Ceil(float64(rec.Quantity) / float64(itemsPerBox)))
	if numBoxes < 1 {
		numBoxes = 1
	}
	c := New(rec.Commodity, rec.OriginNm, rec.Location, rec.Pathway, rec.ReportDt, numBoxes, itemsPerBox)
	// The last box may be partially filled; NumItems reflects the actual
	// record quantity rather than numBoxes*itemsPerBox.
	c.NumItems = rec.Quantity
	c.ItemContaminated = NewBitset(rec.Quantity)
	c.ItemInspected = NewBitset(rec.Quantity)
	return c, nil
}

// AQIMRecord is the normalized form of one AQIM CSV row.
type AQIMRecord struct {
	Unit          string // "items" or "boxes"
	Quantity      int
	CargoForm     string
	CalendarYr    time.Time
	CommodityList string
	Origin        string
	Location      string
}

// AQIMGenerator translates pre-parsed AQIM inspection records into
// consignments.
type AQIMGenerator struct {
	itemsPerBox ItemsPerBoxConfig
	records     []AQIMRecord
	pos         int
}

// NewAQIMGenerator constructs a generator over AQIM records.
func NewAQIMGenerator(itemsPerBox ItemsPerBoxConfig, records []AQIMRecord) (*AQIMGenerator, error) {
	return &AQIMGenerator{itemsPerBox: itemsPerBox, records: records}, nil
}

// Generate returns the consignment built from the next unread AQIM record.
func (g *AQIMGenerator) Generate(stream *rng.Stream) (*Consignment, error) {
	if g.pos >= len(g.records) {
		return nil, &diag.Error{Category: diag.DataError, Path: "aqim", Message: "more consignments requested than AQIM records available"}
	}
	rec := g.records[g.pos]
	g.pos++

	itemsPerBox := g.itemsPerBox.Resolve(rec.CargoForm)

	var numItems int
	switch rec.Unit {
	case "boxes":
		numItems = rec.Quantity * itemsPerBox
	case "items":
		numItems = rec.Quantity
	default:
		return nil, &diag.Error{Category: diag.DataError, Path: "aqim/unit", Message: fmt.Sprintf("unsupported quantity unit: %q", rec.Unit)}
	}

	numBoxes := int(math.Ceil(float64(numItems) / float64(itemsPerBox)))
	if numBoxes < 1 {
		numBoxes = 1
	}
	c := New(rec.CommodityList, rec.Origin, rec.Location, rec.CargoForm, rec.CalendarYr, numBoxes, itemsPerBox)
	c.NumItems = numItems
	c.ItemContaminated = NewBitset(numItems)
	c.ItemInspected = NewBitset(numItems)
	return c, nil
}

// Package config loads the simulation's configuration tree from YAML,
// JSON, or a tabular (CSV) format, normalizing it into the typed configs
// the core domain packages expect. Grounded on sim/bundle.go's
// LoadPolicyBundle/Validate pattern (nil pointer means "not set", plain
// fmt.Errorf, no custom error hierarchy beyond internal/diag's categories).
package config

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/contamination"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/inspection"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/ioformat/pretty"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/release"
)

// rawConfig mirrors the configuration object's `consignment`,
// `contamination`, `inspection`, `release`, and `pretty` groups
// before enum-string validation and type resolution.
type rawConfig struct {
	Consignment struct {
		GenerationMethod string `yaml:"generation_method"`
		ItemsPerBox      struct {
			Default  int  `yaml:"default"`
			Air      *int `yaml:"air"`
			Maritime *int `yaml:"maritime"`
		} `yaml:"items_per_box"`
		Parameters struct {
			BoxesMin    int      `yaml:"boxes_min"`
			BoxesMax    int      `yaml:"boxes_max"`
			Origins     []string `yaml:"origins"`
			Commodities []string `yaml:"commodities"`
			Ports       []string `yaml:"ports"`
			StartDate   string   `yaml:"start_date"`
		} `yaml:"parameters"`
		F280File string `yaml:"f280_file"`
		AQIMFile string `yaml:"aqim_file"`
	} `yaml:"consignment"`

	Contamination struct {
		Default rawContaminationConfig `yaml:"default"`
		Rules   []rawContaminationRule `yaml:"rules"`
	} `yaml:"contamination"`

	Inspection rawInspectionConfig `yaml:"inspection"`

	Release rawReleaseConfig `yaml:"release"`

	Pretty *struct {
		Flower         string `yaml:"flower"`
		Bug            string `yaml:"bug"`
		HorizontalLine string `yaml:"horizontal_line"`
		BoxLine        string `yaml:"box_line"`
		Spaces         int    `yaml:"spaces"`
	} `yaml:"pretty"`

	NumSimulations  int   `yaml:"num_simulations"`
	NumConsignments int   `yaml:"num_consignments"`
	Seed            int64 `yaml:"seed"`
}

type rawContaminationConfig struct {
	Unit string `yaml:"unit"`
	Rate struct {
		Distribution string  `yaml:"distribution"`
		Value        float64 `yaml:"value"`
		A            float64 `yaml:"a"`
		B            float64 `yaml:"b"`
	} `yaml:"contamination_rate"`
	Arrangement     string `yaml:"arrangement"`
	ClusteredSingle struct {
		Value float64 `yaml:"value"`
	} `yaml:"clustered_single"`
	ClusteredMulti struct {
		UnitsPerCluster  int    `yaml:"units_per_cluster"`
		Distribution     string `yaml:"distribution"`
		ClusterItemWidth int    `yaml:"cluster_item_width"`
	} `yaml:"clustered_multi"`
	RandomBox struct {
		Probability      float64 `yaml:"probability"`
		Ratio            float64 `yaml:"ratio"`
		InBoxArrangement string  `yaml:"in_box_arrangement"`
	} `yaml:"random_box"`
}

type rawContaminationRule struct {
	Commodity   string                 `yaml:"commodity"`
	Origin      string                 `yaml:"origin"`
	Port        string                 `yaml:"port"`
	Pathway     string                 `yaml:"pathway"`
	StartDate   string                 `yaml:"start_date"`
	EndDate     string                 `yaml:"end_date"`
	UseDefaults bool                   `yaml:"use_defaults"`
	Config      rawContaminationConfig `yaml:"config"`
}

type rawReleaseConfig struct {
	Type  string `yaml:"type"`
	Naive struct {
		Name        string   `yaml:"name"`
		Commodities []string `yaml:"commodities"`
		MaxBoxes    int      `yaml:"max_boxes"`
	} `yaml:"naive_cfrp"`
	Scheduled struct {
		Name  string   `yaml:"name"`
		Ports []string `yaml:"ports"`
		Rows  []struct {
			Commodity string `yaml:"commodity"`
			Origin    string `yaml:"origin"`
			Date      string `yaml:"date"`
		} `yaml:"rows"`
	} `yaml:"scheduled_cfrp"`
	FixedSkipLot struct {
		Name              string         `yaml:"name"`
		Track             []string       `yaml:"track"`
		SamplingFractions []float64      `yaml:"sampling_fractions"`
		DefaultLevel      int            `yaml:"default_level"`
		Records           map[string]int `yaml:"records"`
	} `yaml:"fixed_skip_lot"`
	DynamicSkipLot struct {
		Name                        string    `yaml:"name"`
		Track                       []string  `yaml:"track"`
		SamplingFractions           []float64 `yaml:"sampling_fractions"`
		StartLevel                  int       `yaml:"start_level"`
		ClearanceNumber             int       `yaml:"clearance_number"`
		QuickRestateClearanceNumber int       `yaml:"quick_restate_clearance_number"`
	} `yaml:"dynamic_skip_lot"`
}

type rawInspectionConfig struct {
	Unit                    string  `yaml:"unit"`
	WithinBoxProportion     float64 `yaml:"within_box_proportion"`
	SampleStrategy          string  `yaml:"sample_strategy"`
	Proportion              float64 `yaml:"proportion"`
	FixedN                  int     `yaml:"fixed_n"`
	ToleranceLevel          float64 `yaml:"tolerance_level"`
	ConfidenceLevel         float64 `yaml:"confidence_level"`
	SelectionStrategy       string  `yaml:"selection_strategy"`
	ClusterSelection        string  `yaml:"cluster_selection"`
	ClusterInterval         int     `yaml:"cluster_interval"`
	MinBoxes                int     `yaml:"min_boxes"`
	Effectiveness           float64 `yaml:"effectiveness"`
	ShareEffectivenessDraws bool    `yaml:"share_effectiveness_draws"`
}

// RunConfig is the fully normalized, type-checked configuration tree the
// orchestrator consumes.
type RunConfig struct {
	Consignment        consignment.Config
	Contamination      contamination.Config
	ContaminationRules []contamination.Rule
	Inspection         inspection.Config
	Release            release.Config
	Pretty             pretty.Config
	NumSimulations     int
	NumConsignments    int
	Seed               int64
}

// Load reads and normalizes a configuration file, dispatching on its
// extension: .yaml/.yml/.json parse as a nested document (YAML's grammar
// is a superset of JSON's, so one parser handles both); .csv/.tsv parse as
// a single-row tabular document whose header names are `/`-joined nested
// paths.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: path, Message: err.Error()}
	}

	var raw rawConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".tsv":
		nested, err := tabularToNestedYAML(data, ext == ".tsv")
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(nested, &raw); err != nil {
			return nil, &diag.Error{Category: diag.ConfigError, Path: path, Message: fmt.Sprintf("decoding tabular config: %v", err)}
		}
	default: // .yaml, .yml, .json
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, &diag.Error{Category: diag.ConfigError, Path: path, Message: fmt.Sprintf("decoding config: %v", err)}
		}
	}

	return raw.resolve()
}

// tabularToNestedYAML converts a two-row CSV/TSV (header of `/`-joined
// paths, one data row) into a YAML document with the equivalent nested
// structure, reusing yaml.v3 as the single decode path for every format
// instead of hand-rolling a second struct-setting mechanism.
func tabularToNestedYAML(data []byte, tsv bool) ([]byte, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	if tsv {
		r.Comma = '\t'
	}
	header, err := r.Read()
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "tabular_config", Message: fmt.Sprintf("reading header: %v", err)}
	}
	row, err := r.Read()
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "tabular_config", Message: fmt.Sprintf("reading data row: %v", err)}
	}

	nested := map[string]any{}
	for i, path := range header {
		if i >= len(row) {
			continue
		}
		setNestedValue(nested, strings.Split(path, "/"), parseTabularValue(row[i]))
	}
	return yaml.Marshal(nested)
}

func setNestedValue(m map[string]any, path []string, value any) {
	if len(path) == 1 {
		m[path[0]] = value
		return
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok {
		child = map[string]any{}
		m[path[0]] = child
	}
	setNestedValue(child, path[1:], value)
}

// parseTabularValue recognizes integers, floats, booleans, ISO-8601 dates,
// and JSON-encoded nested literals, falling back to a plain string.
func parseTabularValue(s string) any {
	if s == "" {
		return s
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if _, err := time.Parse("2006-01-02", s); err == nil {
		return s // keep as a string; downstream date fields parse it themselves
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return s
}

// LoadDocument reads a YAML or JSON configuration file into its generic
// nested-map form without resolving it into a RunConfig, so that a scenario
// table's row overrides can be applied to it before resolution.
func LoadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: path, Message: err.Error()}
	}
	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: path, Message: fmt.Sprintf("decoding base config: %v", err)}
	}
	return doc, nil
}

// Resolve normalizes a generic nested-map configuration document (as
// produced by LoadDocument, optionally overridden at scenario-table paths)
// into a RunConfig, reusing the same yaml.v3 decode path as Load.
func Resolve(doc map[string]any) (*RunConfig, error) {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "scenario_override", Message: err.Error()}
	}
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "scenario_override", Message: fmt.Sprintf("decoding overridden config: %v", err)}
	}
	return raw.resolve()
}

// SetPath inserts value at the slash-joined path into doc, creating
// intermediate maps as needed. Exported for sim/scenario's row overrides.
func SetPath(doc map[string]any, path []string, value any) {
	setNestedValue(doc, path, value)
}

// ParseValue parses a scenario-table cell the same way a tabular config
// column is parsed.
func ParseValue(s string) any {
	return parseTabularValue(s)
}

func (raw *rawConfig) resolve() (*RunConfig, error) {
	var cfg RunConfig
	cfg.NumSimulations = raw.NumSimulations
	cfg.NumConsignments = raw.NumConsignments
	cfg.Seed = raw.Seed

	cfg.Consignment = consignment.Config{
		GenerationMethod: consignment.GenerationMethod(raw.Consignment.GenerationMethod),
		ItemsPerBox: consignment.ItemsPerBoxConfig{
			Default:  raw.Consignment.ItemsPerBox.Default,
			Air:      raw.Consignment.ItemsPerBox.Air,
			Maritime: raw.Consignment.ItemsPerBox.Maritime,
		},
		Parameters: consignment.ParameterConfig{
			BoxesMin:    raw.Consignment.Parameters.BoxesMin,
			BoxesMax:    raw.Consignment.Parameters.BoxesMax,
			Origins:     raw.Consignment.Parameters.Origins,
			Commodities: raw.Consignment.Parameters.Commodities,
			Ports:       raw.Consignment.Parameters.Ports,
			StartDate:   raw.Consignment.Parameters.StartDate,
		},
		F280File: raw.Consignment.F280File,
		AQIMFile: raw.Consignment.AQIMFile,
	}
	if err := validateGenerationMethod(cfg.Consignment.GenerationMethod); err != nil {
		return nil, err
	}

	defaultContam, err := resolveContaminationConfig(raw.Contamination.Default)
	if err != nil {
		return nil, err
	}
	cfg.Contamination = defaultContam

	for i, r := range raw.Contamination.Rules {
		rc, err := resolveContaminationConfig(r.Config)
		if err != nil {
			return nil, err
		}
		var startDate, endDate time.Time
		if r.StartDate != "" {
			startDate, err = time.Parse("2006-01-02", r.StartDate)
			if err != nil {
				return nil, &diag.Error{Category: diag.ConfigError, Path: fmt.Sprintf("contamination.rules[%d].start_date", i), Message: err.Error()}
			}
		}
		if r.EndDate != "" {
			endDate, err = time.Parse("2006-01-02", r.EndDate)
			if err != nil {
				return nil, &diag.Error{Category: diag.ConfigError, Path: fmt.Sprintf("contamination.rules[%d].end_date", i), Message: err.Error()}
			}
		}
		cfg.ContaminationRules = append(cfg.ContaminationRules, contamination.Rule{
			Commodity:   r.Commodity,
			Origin:      r.Origin,
			Port:        r.Port,
			Pathway:     r.Pathway,
			StartDate:   startDate,
			EndDate:     endDate,
			UseDefaults: r.UseDefaults,
			Config:      rc,
		})
	}

	insp, err := resolveInspectionConfig(raw.Inspection)
	if err != nil {
		return nil, err
	}
	cfg.Inspection = insp

	rel, err := resolveReleaseConfig(raw.Release)
	if err != nil {
		return nil, err
	}
	cfg.Release = rel

	cfg.Pretty = pretty.DefaultConfig()
	if raw.Pretty != nil {
		if raw.Pretty.Flower != "" {
			cfg.Pretty.Flower = raw.Pretty.Flower
		}
		if raw.Pretty.Bug != "" {
			cfg.Pretty.Bug = raw.Pretty.Bug
		}
		if raw.Pretty.HorizontalLine != "" {
			cfg.Pretty.HorizontalLine = raw.Pretty.HorizontalLine
		}
		if raw.Pretty.BoxLine != "" {
			cfg.Pretty.BoxLine = raw.Pretty.BoxLine
		}
		if raw.Pretty.Spaces > 0 {
			cfg.Pretty.Spaces = raw.Pretty.Spaces
		}
	}

	return &cfg, nil
}

func validateGenerationMethod(m consignment.GenerationMethod) error {
	switch m {
	case "", consignment.GenerationParameterBased, consignment.GenerationF280, consignment.GenerationAQIM:
		return nil
	default:
		return &diag.Error{Category: diag.ConfigError, Path: "consignment.generation_method", Message: fmt.Sprintf("unknown generation method %q", m)}
	}
}

func resolveContaminationConfig(r rawContaminationConfig) (contamination.Config, error) {
	unit := contamination.Unit(r.Unit)
	if unit == "" {
		unit = contamination.UnitItem
	}
	if unit != contamination.UnitItem && unit != contamination.UnitBox {
		return contamination.Config{}, &diag.Error{Category: diag.ConfigError, Path: "contamination.unit", Message: fmt.Sprintf("unknown unit %q", r.Unit)}
	}

	dist := contamination.RateDistribution(r.Rate.Distribution)
	if dist == "" {
		dist = contamination.RateFixed
	}
	if dist != contamination.RateFixed && dist != contamination.RateBeta {
		return contamination.Config{}, &diag.Error{Category: diag.ConfigError, Path: "contamination.contamination_rate.distribution", Message: fmt.Sprintf("unknown distribution %q", r.Rate.Distribution)}
	}

	arrangement := contamination.Arrangement(r.Arrangement)
	if arrangement == "" {
		arrangement = contamination.ArrangementRandom
	}
	switch arrangement {
	case contamination.ArrangementRandom, contamination.ArrangementClusteredSingle,
		contamination.ArrangementClusteredMulti, contamination.ArrangementRandomBox:
	default:
		return contamination.Config{}, &diag.Error{Category: diag.ConfigError, Path: "contamination.arrangement", Message: fmt.Sprintf("unknown arrangement %q", r.Arrangement)}
	}

	clusterDist := contamination.ClusterDistribution(r.ClusteredMulti.Distribution)
	if clusterDist == "" {
		clusterDist = contamination.ClusterRandom
	}

	inBox := contamination.InBoxArrangement(r.RandomBox.InBoxArrangement)
	if inBox == "" {
		inBox = contamination.InBoxAll
	}

	return contamination.Config{
		Unit: unit,
		Rate: contamination.RateConfig{
			Distribution: dist,
			Value:        r.Rate.Value,
			A:            r.Rate.A,
			B:            r.Rate.B,
		},
		Arrangement:     arrangement,
		ClusteredSingle: contamination.ClusteredSingleConfig{Value: r.ClusteredSingle.Value},
		ClusteredMulti: contamination.ClusteredMultiConfig{
			UnitsPerCluster:  r.ClusteredMulti.UnitsPerCluster,
			Distribution:     clusterDist,
			ClusterItemWidth: r.ClusteredMulti.ClusterItemWidth,
		},
		RandomBox: contamination.RandomBoxConfig{
			Probability:      r.RandomBox.Probability,
			Ratio:            r.RandomBox.Ratio,
			InBoxArrangement: inBox,
		},
	}, nil
}

func resolveInspectionConfig(r rawInspectionConfig) (inspection.Config, error) {
	unit := inspection.Unit(r.Unit)
	if unit == "" {
		unit = inspection.UnitItem
	}
	if unit != inspection.UnitItem && unit != inspection.UnitBox {
		return inspection.Config{}, &diag.Error{Category: diag.ConfigError, Path: "inspection.unit", Message: fmt.Sprintf("unknown unit %q", r.Unit)}
	}

	sampleStrategy := inspection.SampleStrategy(r.SampleStrategy)
	switch sampleStrategy {
	case inspection.SampleAll, inspection.SampleProportion, inspection.SampleFixedN, inspection.SampleHypergeometric:
	default:
		return inspection.Config{}, &diag.Error{Category: diag.ConfigError, Path: "inspection.sample_strategy", Message: fmt.Sprintf("unknown sample strategy %q", r.SampleStrategy)}
	}

	selectionStrategy := inspection.SelectionStrategy(r.SelectionStrategy)
	switch selectionStrategy {
	case inspection.SelectionRandom, inspection.SelectionConvenience, inspection.SelectionCluster:
	default:
		return inspection.Config{}, &diag.Error{Category: diag.ConfigError, Path: "inspection.selection_strategy", Message: fmt.Sprintf("unknown selection strategy %q", r.SelectionStrategy)}
	}

	clusterSelection := inspection.ClusterSelection(r.ClusterSelection)
	if clusterSelection == "" {
		clusterSelection = inspection.ClusterSelectionRandom
	}

	return inspection.Config{
		Unit:                    unit,
		WithinBoxProportion:     r.WithinBoxProportion,
		SampleStrategy:          sampleStrategy,
		Proportion:              r.Proportion,
		FixedN:                  r.FixedN,
		ToleranceLevel:          r.ToleranceLevel,
		ConfidenceLevel:         r.ConfidenceLevel,
		SelectionStrategy:       selectionStrategy,
		ClusterSelection:        clusterSelection,
		ClusterInterval:         r.ClusterInterval,
		MinBoxes:                r.MinBoxes,
		Effectiveness:           r.Effectiveness,
		ShareEffectivenessDraws: r.ShareEffectivenessDraws,
	}, nil
}

func resolveReleaseConfig(r rawReleaseConfig) (release.Config, error) {
	t := release.Type(r.Type)
	switch t {
	case "", release.TypeAlways, release.TypeNaiveCFRP, release.TypeScheduledCFRP,
		release.TypeFixedSkipLot, release.TypeDynamicSkipLot:
	default:
		return release.Config{}, &diag.Error{Category: diag.ConfigError, Path: "release.type", Message: fmt.Sprintf("unknown release program type %q", r.Type)}
	}

	var rows []release.ScheduleRow
	for i, row := range r.Scheduled.Rows {
		d, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			return release.Config{}, &diag.Error{Category: diag.ConfigError, Path: fmt.Sprintf("release.scheduled_cfrp.rows[%d].date", i), Message: err.Error()}
		}
		rows = append(rows, release.ScheduleRow{Commodity: row.Commodity, Origin: row.Origin, Date: d})
	}

	return release.Config{
		Type: t,
		Naive: release.NaiveCFRPConfig{
			Name:        r.Naive.Name,
			Commodities: r.Naive.Commodities,
			MaxBoxes:    r.Naive.MaxBoxes,
		},
		Scheduled: release.ScheduledCFRPConfig{
			Name:  r.Scheduled.Name,
			Ports: r.Scheduled.Ports,
		},
		ScheduleRows: rows,
		FixedSkipLot: release.FixedSkipLotConfig{
			Name:              r.FixedSkipLot.Name,
			Track:             r.FixedSkipLot.Track,
			SamplingFractions: r.FixedSkipLot.SamplingFractions,
			DefaultLevel:      r.FixedSkipLot.DefaultLevel,
			Records:           r.FixedSkipLot.Records,
		},
		DynamicSkipLot: release.DynamicSkipLotConfig{
			Name:                        r.DynamicSkipLot.Name,
			Track:                       r.DynamicSkipLot.Track,
			SamplingFractions:           r.DynamicSkipLot.SamplingFractions,
			StartLevel:                  r.DynamicSkipLot.StartLevel,
			ClearanceNumber:             r.DynamicSkipLot.ClearanceNumber,
			QuickRestateClearanceNumber: r.DynamicSkipLot.QuickRestateClearanceNumber,
		},
	}, nil
}

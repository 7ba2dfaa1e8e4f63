// Package scenario reads a scenario table — a comma-separated CSV file whose rows
// define overrides into a base run configuration — generalizing a fixed Go
// list of named request-generation presets into an external, user-supplied
// table of named presets read at run time.
package scenario

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/config"
	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
)

// Scenario is one named, resolved run configuration produced by applying a
// single scenario-table row's overrides onto the base configuration.
type Scenario struct {
	Name   string
	Config *config.RunConfig
}

// Load reads the base configuration at basePath and the scenario table from
// r, returning one Scenario per data row with that row's overrides applied.
// Each table column header is a slash-joined path into the configuration
// tree (e.g. "inspection/proportion"); a column named "name" or "scenario"
// supplies the scenario's label instead of an override. Cell values are
// parsed with the same rules as a tabular configuration file.
func Load(basePath string, r io.Reader) ([]Scenario, error) {
	base, err := config.LoadDocument(basePath)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, &diag.Error{Category: diag.ConfigError, Path: "scenario_table", Message: fmt.Sprintf("reading header: %v", err)}
	}

	var scenarios []Scenario
	for rowNum := 1; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &diag.Error{Category: diag.ConfigError, Path: "scenario_table", Message: fmt.Sprintf("reading row %d: %v", rowNum, err)}
		}

		doc := deepCopyMap(base)
		name := fmt.Sprintf("scenario_%d", rowNum)
		for i, column := range header {
			if i >= len(row) {
				continue
			}
			path := strings.Split(column, "/")
			if len(path) == 1 && (path[0] == "name" || path[0] == "scenario") {
				name = row[i]
				continue
			}
			config.SetPath(doc, path, config.ParseValue(row[i]))
		}

		resolved, err := config.Resolve(doc)
		if err != nil {
			return nil, &diag.Error{Category: diag.ConfigError, Path: fmt.Sprintf("scenario_table row %d (%s)", rowNum, name), Message: err.Error()}
		}
		scenarios = append(scenarios, Scenario{Name: name, Config: resolved})
	}

	return scenarios, nil
}

// deepCopyMap copies a nested map[string]any tree so that applying one
// scenario row's overrides never mutates the base document or a sibling
// row's already-resolved copy.
func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

// Package ioformat reads the external record formats consignments can be
// driven from (F280 inspection records, AQIM records) and writes the F280
// summary line format. CSV parsing follows the same encoding/csv plus
// typed-column-parsing pattern used elsewhere in this codebase for trace
// files, adapted to return errors rather than calling logrus.Fatalf on a
// bad row, since this is a core-adjacent library package rather than CLI
// bootstrap code.
package ioformat

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ncsu-landscape-dynamics/popsborder/internal/diag"
	"github.com/ncsu-landscape-dynamics/popsborder/sim/consignment"
)

// f280Columns names the expected header of an F280 CSV export.
var f280Columns = []string{"REPORT_DT", "LOCATION", "ORIGIN_NM", "COMMODITY", "PATHWAY", "QUANTITY"}

// ReadF280 parses an F280 CSV export into F280Records, in row order,
// aborting on the first malformed row.
func ReadF280(r io.Reader) ([]consignment.F280Record, error) {
	return ReadF280Strict(r, true)
}

// ReadF280Strict parses an F280 CSV export, either aborting on the first
// malformed row (strict) or skipping it with a logged warning and
// continuing, controlled by the caller's strict_input setting.
func ReadF280Strict(r io.Reader, strict bool) ([]consignment.F280Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, &diag.Error{Category: diag.DataError, Path: "f280", Message: fmt.Sprintf("reading header: %v", err)}
	}
	col, err := columnIndex(header, f280Columns)
	if err != nil {
		return nil, err
	}

	var records []consignment.F280Record
	for rowNum := 2; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &diag.Error{Category: diag.DataError, Path: "f280", Message: fmt.Sprintf("row %d: %v", rowNum, err)}
		}
		record, err := parseF280Row(row, col, rowNum)
		if err != nil {
			if strict {
				return nil, err
			}
			logrus.Warnf("skipping malformed F280 row: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func parseF280Row(row []string, col map[string]int, rowNum int) (consignment.F280Record, error) {
	date, err := time.Parse("2006-01-02", row[col["REPORT_DT"]])
	if err != nil {
		return consignment.F280Record{}, &diag.Error{Category: diag.DataError, Path: "f280.REPORT_DT", Message: fmt.Sprintf("row %d: %v", rowNum, err)}
	}
	quantity, err := strconv.Atoi(row[col["QUANTITY"]])
	if err != nil {
		return consignment.F280Record{}, &diag.Error{Category: diag.DataError, Path: "f280.QUANTITY", Message: fmt.Sprintf("row %d: %v", rowNum, err)}
	}
	return consignment.F280Record{
		Quantity:  quantity,
		Pathway:   row[col["PATHWAY"]],
		ReportDt:  date,
		Commodity: row[col["COMMODITY"]],
		OriginNm:  row[col["ORIGIN_NM"]],
		Location:  row[col["LOCATION"]],
	}, nil
}

func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			return nil, &diag.Error{Category: diag.ConfigError, Path: "csv_header", Message: fmt.Sprintf("missing required column %q", name)}
		}
	}
	return idx, nil
}

// WriteF280 writes one space-separated "DATE PORT ORIGIN COMMODITY ACTION"
// line per inspected-or-released consignment decision, matching
// popsborder's plain-text F280-style run log.
func WriteF280(w io.Writer, date time.Time, port, origin, commodity, action string) error {
	_, err := fmt.Fprintf(w, "%s %s %s %s %s\n", date.Format("2006-01-02"), port, origin, commodity, action)
	return err
}

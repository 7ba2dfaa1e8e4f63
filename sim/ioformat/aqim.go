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

var aqimColumns = []string{"CALENDAR_YR", "UNIT", "QUANTITY", "CARGO_FORM", "COMMODITY_LIST", "ORIGIN", "LOCATION"}

// ReadAQIM parses an AQIM CSV export into AQIMRecords, in row order,
// aborting on the first malformed row.
func ReadAQIM(r io.Reader) ([]consignment.AQIMRecord, error) {
	return ReadAQIMStrict(r, true)
}

// ReadAQIMStrict parses an AQIM CSV export, either aborting on the first
// malformed row (strict) or skipping it with a logged warning and
// continuing, controlled by the caller's strict_input setting.
func ReadAQIMStrict(r io.Reader, strict bool) ([]consignment.AQIMRecord, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, &diag.Error{Category: diag.DataError, Path: "aqim", Message: fmt.Sprintf("reading header: %v", err)}
	}
	col, err := columnIndex(header, aqimColumns)
	if err != nil {
		return nil, err
	}

	var records []consignment.AQIMRecord
	for rowNum := 2; ; rowNum++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &diag.Error{Category: diag.DataError, Path: "aqim", Message: fmt.Sprintf("row %d: %v", rowNum, err)}
		}
		record, err := parseAQIMRow(row, col, rowNum)
		if err != nil {
			if strict {
				return nil, err
			}
			logrus.Warnf("skipping malformed AQIM row: %v", err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func parseAQIMRow(row []string, col map[string]int, rowNum int) (consignment.AQIMRecord, error) {
	year, err := time.Parse("2006", row[col["CALENDAR_YR"]])
	if err != nil {
		return consignment.AQIMRecord{}, &diag.Error{Category: diag.DataError, Path: "aqim.CALENDAR_YR", Message: fmt.Sprintf("row %d: %v", rowNum, err)}
	}
	quantity, err := strconv.Atoi(row[col["QUANTITY"]])
	if err != nil {
		return consignment.AQIMRecord{}, &diag.Error{Category: diag.DataError, Path: "aqim.QUANTITY", Message: fmt.Sprintf("row %d: %v", rowNum, err)}
	}
	return consignment.AQIMRecord{
		Unit:          row[col["UNIT"]],
		Quantity:      quantity,
		CargoForm:     row[col["CARGO_FORM"]],
		CalendarYr:    year,
		CommodityList: row[col["COMMODITY_LIST"]],
		Origin:        row[col["ORIGIN"]],
		Location:      row[col["LOCATION"]],
	}, nil
}

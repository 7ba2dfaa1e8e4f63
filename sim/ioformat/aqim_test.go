package ioformat

import (
	"strings"
	"testing"
)

func TestReadAQIM_ParsesRows(t *testing.T) {
	csv := "CALENDAR_YR,UNIT,QUANTITY,CARGO_FORM,COMMODITY_LIST,ORIGIN,LOCATION\n" +
		"2020,boxes,40,airport,Rosa,Netherlands,FL Miami Air CBP\n" +
		"2021,items,900,maritime,Gerbera,Mexico,NY JFK CBP\n"
	records, err := ReadAQIM(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].Unit != "boxes" || records[0].Quantity != 40 {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].CommodityList != "Gerbera" || records[1].Origin != "Mexico" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestReadAQIM_MissingColumnIsConfigError(t *testing.T) {
	csv := "CALENDAR_YR,UNIT,QUANTITY,CARGO_FORM,COMMODITY_LIST,ORIGIN\n2020,boxes,40,airport,Rosa,Netherlands\n"
	_, err := ReadAQIM(strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected an error for a missing LOCATION column")
	}
}

func TestReadAQIMStrict_NonStrictSkipsMalformedRows(t *testing.T) {
	csv := "CALENDAR_YR,UNIT,QUANTITY,CARGO_FORM,COMMODITY_LIST,ORIGIN,LOCATION\n" +
		"2020,boxes,40,airport,Rosa,Netherlands,FL Miami Air CBP\n" +
		"notayear,items,notaquantity,maritime,Gerbera,Mexico,NY JFK CBP\n"
	records, err := ReadAQIMStrict(strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1 (malformed row skipped)", len(records))
	}
}

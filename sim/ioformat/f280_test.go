package ioformat

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestReadF280_ParsesRows(t *testing.T) {
	csv := "REPORT_DT,LOCATION,ORIGIN_NM,COMMODITY,PATHWAY,QUANTITY\n" +
		"2021-03-01,FL Miami Air CBP,Netherlands,Rosa,airport,480\n" +
		"2021-03-02,NY JFK CBP,Mexico,Gerbera,maritime,960\n"
	records, err := ReadF280(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	want := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	if !records[0].ReportDt.Equal(want) {
		t.Errorf("ReportDt = %v, want %v", records[0].ReportDt, want)
	}
	if records[0].Quantity != 480 || records[0].Commodity != "Rosa" || records[0].Pathway != "airport" {
		t.Errorf("unexpected first record: %+v", records[0])
	}
	if records[1].OriginNm != "Mexico" || records[1].Location != "NY JFK CBP" {
		t.Errorf("unexpected second record: %+v", records[1])
	}
}

func TestReadF280_MissingColumnIsConfigError(t *testing.T) {
	csv := "REPORT_DT,LOCATION,ORIGIN_NM,COMMODITY,PATHWAY\n2021-03-01,x,y,z,airport\n"
	_, err := ReadF280(strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected an error for a missing QUANTITY column")
	}
}

func TestReadF280_BadQuantityIsDataError(t *testing.T) {
	csv := "REPORT_DT,LOCATION,ORIGIN_NM,COMMODITY,PATHWAY,QUANTITY\n2021-03-01,x,y,z,airport,notanumber\n"
	_, err := ReadF280(strings.NewReader(csv))
	if err == nil {
		t.Fatal("expected an error for a non-numeric QUANTITY")
	}
}

func TestReadF280Strict_NonStrictSkipsMalformedRows(t *testing.T) {
	csv := "REPORT_DT,LOCATION,ORIGIN_NM,COMMODITY,PATHWAY,QUANTITY\n" +
		"2021-03-01,FL Miami Air CBP,Netherlands,Rosa,airport,480\n" +
		"notadate,x,y,z,airport,10\n" +
		"2021-03-02,NY JFK CBP,Mexico,Gerbera,maritime,960\n"
	records, err := ReadF280Strict(strings.NewReader(csv), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2 (malformed row skipped)", len(records))
	}
}

func TestWriteF280_FormatsOneLine(t *testing.T) {
	var buf bytes.Buffer
	date := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	if err := WriteF280(&buf, date, "FL Miami Air CBP", "Netherlands", "Rosa", "inspected"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "2021-03-01 FL Miami Air CBP Netherlands Rosa inspected\n"
	if buf.String() != want {
		t.Errorf("WriteF280 wrote %q, want %q", buf.String(), want)
	}
}

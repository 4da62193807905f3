package exporter

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

func TestExportRecords(t *testing.T) {
	t.Parallel()

	records := []model.CanonicalRecord{
		{ID: "1", CourierID: "Іваненко", Status: "доставлено", Qty: 2, Weight: 1.5},
		{ID: "2", CourierID: "Петренко", Status: "не доставлено", Reason: "Відмова"},
	}

	var events []ProgressEvent
	f, err := ExportRecords(records, model.TargetDeliveries, Options{
		WithSummary: true,
		Progress:    func(e ProgressEvent) { events = append(events, e) },
	})
	if err != nil {
		t.Fatalf("ExportRecords: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	_ = f.Close()

	wb, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("reopen xlsx: %v", err)
	}
	t.Cleanup(func() { _ = wb.Close() })

	rows, err := wb.GetRows("deliveries")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows want=3 got=%d", len(rows))
	}
	if rows[0][0] != "id" || rows[0][2] != "courierId" || len(rows[0]) != len(model.AllFields()) {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][2] != "Іваненко" {
		t.Fatalf("courier cell got=%q", rows[1][2])
	}
	if v, _ := wb.GetCellValue("deliveries", "M2"); v != "1.5" {
		t.Fatalf("weight cell want=1.5 got=%q", v)
	}

	summary, err := wb.GetRows(summarySheet)
	if err != nil {
		t.Fatalf("summary rows: %v", err)
	}
	if summary[1][0] != "totalDocs" || summary[1][1] != "2" {
		t.Fatalf("summary got=%v", summary[1])
	}
	if v, _ := wb.GetCellValue(summarySheet, "D2"); v != "Іваненко" {
		t.Fatalf("ranking first got=%q", v)
	}

	if len(events) == 0 || events[len(events)-1].Percent != 100 {
		t.Fatalf("progress events got=%v", events)
	}
}

func TestExportRecords_Empty(t *testing.T) {
	t.Parallel()

	f, err := ExportRecords(nil, model.TargetPickups, Options{})
	if err != nil {
		t.Fatalf("ExportRecords: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows("pickups")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("only header expected, got=%d rows", len(rows))
	}
	if idx, _ := f.GetSheetIndex(summarySheet); idx != -1 {
		t.Fatalf("summary sheet should not exist")
	}
}

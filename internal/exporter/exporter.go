package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/NovobRom/new-delivery-dashboard/internal/analytics"
	"github.com/NovobRom/new-delivery-dashboard/internal/model"
)

const summarySheet = "Summary"

// Options 导出选项
type Options struct {
	// WithSummary 追加 KPI 汇总与快递员排行 sheet
	WithSummary bool
	// Progress 进度回调，可为 nil
	Progress func(ProgressEvent)
}

// ExportRecords 导出数据集：表头为统一口径字段，一行一条记录，数值字段按数值写入
func ExportRecords(records []model.CanonicalRecord, target model.DatasetTarget, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := string(target)
	if sheet == "" {
		sheet = "records"
	}
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	fields := model.AllFields()
	header := make([]interface{}, len(fields))
	for i, fld := range fields {
		header[i] = string(fld)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	_ = f.SetRowStyle(sheet, 1, 1, headerStyle)

	reportProgress(opts.Progress, 0, "records")
	for i, r := range records {
		row := make([]interface{}, len(fields))
		for j, fld := range fields {
			if fld.IsNumeric() {
				row[j] = r.Number(fld)
			} else {
				row[j] = r.Get(fld)
			}
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
		if len(records) > 0 && (i+1)%500 == 0 {
			reportProgress(opts.Progress, (i+1)*90/len(records), "records")
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(fields))
	_ = f.SetColWidth(sheet, "A", lastCol, 16)
	_ = f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	if opts.WithSummary {
		reportProgress(opts.Progress, 90, "summary")
		if err := writeSummary(f, records, headerStyle); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	reportProgress(opts.Progress, 100, "done")
	return f, nil
}

func writeSummary(f *excelize.File, records []model.CanonicalRecord, headerStyle int) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}

	k := analytics.CalculateKPIs(records)
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"totalDocs", k.TotalDocs},
		{"deliveredCount", k.DeliveredCount},
		{"deliveryRate", k.DeliveryRate},
		{"onTimeCount", k.OnTimeCount},
		{"onTimeRate", k.OnTimeRate},
		{"uniqueCouriers", k.UniqueCouriers},
		{"uniqueRoutes", k.UniqueRoutes},
		{"efficiency", k.Efficiency},
		{"handDeliveryCount", k.HandDeliveryCount},
		{"safePlaceCount", k.SafePlaceCount},
		{"undeliveredCount", k.UndeliveredCount},
		{"noReasonCount", k.NoReasonCount},
		{"undeliveredWithReason", k.UndeliveredWithReason},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	_ = f.SetRowStyle(summarySheet, 1, 1, headerStyle)

	// 快递员排行从 D 列开始
	ranking := [][]interface{}{{"Courier", "Loaded", "Delivered", "Undelivered", "DeliveryRate"}}
	for _, c := range analytics.CourierRanking(records) {
		ranking = append(ranking, []interface{}{c.Courier, c.Loaded, c.Delivered, c.Undelivered, c.DeliveryRate})
	}
	for i, row := range ranking {
		cell, _ := excelize.CoordinatesToCellName(4, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write courier ranking: %w", err)
		}
	}

	_ = f.SetColWidth(summarySheet, "A", "A", 24)
	_ = f.SetColWidth(summarySheet, "D", "D", 30)
	return nil
}

package exporter

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"orderdash/internal/model"
)

// 工作表名称
const (
	SheetSummary          = "Summary"
	SheetCustomerTotals   = "CustomerTotals"
	SheetMonthlySeries    = "MonthlySeries"
	SheetSegmentRanking   = "SegmentRanking"
	SheetHeatmap          = "Heatmap"
	SheetMonthlyShare     = "MonthlyShare"
	SheetCumulativeSeries = "CumulativeSeries"
	SheetPerCustomerStats = "PerCustomerStats"
)

const monthLayout = "2006-01-02"

// Exporter 将聚合结果导出为 Excel 工作簿，每个派生表一个工作表
// 无状态，可被多个请求并发使用
type Exporter struct{}

// sheetWriter 单个工作簿的写入状态
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
}

// ExportOptions 导出选项
type ExportOptions struct {
	DatasetID      string
	SourceFilename string
	GeneratedAt    time.Time
}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export 生成工作簿；调用方负责 Close
func (e *Exporter) Export(result *model.PipelineResult, opts ExportOptions) (*excelize.File, error) {
	if result == nil {
		return nil, fmt.Errorf("nothing to export")
	}

	f := excelize.NewFile()
	if err := e.fill(f, result, opts); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// WriteFile 导出并保存到 path
func (e *Exporter) WriteFile(result *model.PipelineResult, opts ExportOptions, path string) error {
	f, err := e.Export(result, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("保存导出文件失败: %w", err)
	}
	return nil
}

func (e *Exporter) fill(f *excelize.File, result *model.PipelineResult, opts ExportOptions) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	w := &sheetWriter{f: f, headerStyle: style}

	// 默认工作表改名为汇总页
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return err
	}
	if err := w.writeSummary(result, opts); err != nil {
		return err
	}

	steps := []func(*model.PipelineResult) error{
		w.writeCustomerTotals,
		w.writeMonthlySeries,
		w.writeSegmentRanking,
		w.writeHeatmap,
		w.writeMonthlyShare,
		w.writeCumulativeSeries,
	}
	for _, step := range steps {
		if err := step(result); err != nil {
			return err
		}
	}

	if result.PerCustomerStats != nil {
		if err := w.writePerCustomerStats(result.PerCustomerStats); err != nil {
			return err
		}
	}
	return nil
}

func (w *sheetWriter) writeSummary(result *model.PipelineResult, opts ExportOptions) error {
	s := result.Summary
	generated := opts.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	identity := s.IdentityColumn
	if identity == "" {
		identity = "-"
	}

	rows := [][]interface{}{
		{"Item", "Value"},
		{"Dataset", opts.DatasetID},
		{"Source File", opts.SourceFilename},
		{"Generated At", generated.Format(time.RFC3339)},
		{"Reference Year", s.ReferenceYear},
		{"Total Rows", s.TotalRows},
		{"Rows In Reference Year", s.YearScopedRows},
		{"Rows Without Valid Date", s.UndatedRows},
		{"Customer Identity Column", identity},
	}
	return w.writeRows(SheetSummary, rows)
}

func (w *sheetWriter) writeCustomerTotals(result *model.PipelineResult) error {
	rows := [][]interface{}{{"Customer Type", "Count"}}
	for _, r := range result.CustomerTotals {
		rows = append(rows, []interface{}{r.CustomerType, r.Count})
	}
	return w.writeSheet(SheetCustomerTotals, rows)
}

func (w *sheetWriter) writeMonthlySeries(result *model.PipelineResult) error {
	rows := [][]interface{}{{"Month", "Customer Type", "Count"}}
	for _, r := range result.MonthlySeries {
		rows = append(rows, []interface{}{r.Month.Format(monthLayout), r.CustomerType, r.Count})
	}
	return w.writeSheet(SheetMonthlySeries, rows)
}

func (w *sheetWriter) writeSegmentRanking(result *model.PipelineResult) error {
	header := fmt.Sprintf("Total Orders %d", result.Summary.ReferenceYear)
	rows := [][]interface{}{{"Customer Type", header}}
	for _, r := range result.SegmentRanking {
		rows = append(rows, []interface{}{r.CustomerType, r.Count})
	}
	return w.writeSheet(SheetSegmentRanking, rows)
}

func (w *sheetWriter) writeHeatmap(result *model.PipelineResult) error {
	hm := result.Heatmap
	header := []interface{}{"Customer Type"}
	for _, m := range hm.Months {
		header = append(header, m.Format(monthLayout))
	}
	rows := [][]interface{}{header}
	for i, ct := range hm.CustomerTypes {
		row := []interface{}{ct}
		for _, v := range hm.Counts[i] {
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	return w.writeSheet(SheetHeatmap, rows)
}

func (w *sheetWriter) writeMonthlyShare(result *model.PipelineResult) error {
	rows := [][]interface{}{{"Month", "Customer Type", "Count", "Month Total", "Share"}}
	for _, r := range result.MonthlyShare {
		rows = append(rows, []interface{}{r.Month.Format(monthLayout), r.CustomerType, r.Count, r.MonthTotal, r.Share})
	}
	return w.writeSheet(SheetMonthlyShare, rows)
}

func (w *sheetWriter) writeCumulativeSeries(result *model.PipelineResult) error {
	rows := [][]interface{}{{"Customer Type", "Month", "Count", "Cumulative Orders"}}
	for _, r := range result.CumulativeSeries {
		rows = append(rows, []interface{}{r.CustomerType, r.Month.Format(monthLayout), r.Count, r.CumulativeCount})
	}
	return w.writeSheet(SheetCumulativeSeries, rows)
}

func (w *sheetWriter) writePerCustomerStats(stats *model.PerCustomerStats) error {
	rows := [][]interface{}{{
		"Customer Type",
		"Avg Orders per Customer",
		"Max Orders (Single Customer)",
		"Number of Customers",
	}}
	for _, s := range stats.Segments {
		rows = append(rows, []interface{}{s.CustomerType, s.AvgOrdersPerCustomer, s.MaxOrdersSingleCustomer, s.CustomerCount})
	}
	return w.writeSheet(SheetPerCustomerStats, rows)
}

func (w *sheetWriter) writeSheet(sheet string, rows [][]interface{}) error {
	if _, err := w.f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	return w.writeRows(sheet, rows)
}

// writeRows 写入数据，首行加粗并冻结
func (w *sheetWriter) writeRows(sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		r := row
		if err := w.f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}

	if err := w.f.SetRowStyle(sheet, 1, 1, w.headerStyle); err != nil {
		return err
	}
	if err := w.f.SetColWidth(sheet, "A", "A", 24); err != nil {
		return err
	}
	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

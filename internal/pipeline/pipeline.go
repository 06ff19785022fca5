// Package pipeline 订单数据聚合流水线：清洗、按年份筛选、分组统计，生成看板所需的派生表。
//
// Run 是纯函数：不做 I/O，不持有全局状态，每次调用都从输入重新计算全部派生表。
package pipeline

import (
	"time"

	"orderdash/internal/model"
)

// DefaultReferenceYear 默认参考年份
const DefaultReferenceYear = 2025

// CleanedRow 清洗后的订单行
type CleanedRow struct {
	CustomerType string
	Date         time.Time
	HasDate      bool
	Identity     string
	HasIdentity  bool
}

// YearScopedRow 参考年份内的订单行
type YearScopedRow struct {
	CleanedRow
	Month time.Time
}

// Run 执行聚合
// 输入缺少 CustomerType 或 Date 列时返回 *SchemaError，且不返回任何部分结果
func Run(table *model.RawTable, referenceYear int) (*model.PipelineResult, error) {
	var columns []string
	if table != nil {
		columns = table.Columns
	}
	schema, err := ResolveSchema(columns)
	if err != nil {
		return nil, err
	}

	cleaned := Clean(table, schema)
	scoped := ScopeToYear(cleaned, referenceYear)

	series := MonthlySeries(scoped)

	result := &model.PipelineResult{
		Summary: model.PipelineSummary{
			ReferenceYear:  referenceYear,
			TotalRows:      len(cleaned),
			YearScopedRows: len(scoped),
			UndatedRows:    countUndated(cleaned),
		},
		CustomerTotals:   CustomerTotals(cleaned),
		MonthlySeries:    series,
		SegmentRanking:   SegmentRanking(scoped),
		Heatmap:          Heatmap(series),
		MonthlyShare:     MonthlyShare(series),
		CumulativeSeries: CumulativeSeries(series),
	}

	if schema.Identity.Found {
		result.Summary.IdentityColumn = schema.Identity.Name
		result.PerCustomerStats = PerCustomer(scoped, schema.Identity.Name)
	}

	return result, nil
}

// Clean 对每一行做客户类型规范化和日期解析；行数与输入一致
func Clean(table *model.RawTable, schema Schema) []CleanedRow {
	if table == nil {
		return []CleanedRow{}
	}
	out := make([]CleanedRow, 0, len(table.Records))
	for _, rec := range table.Records {
		row := CleanedRow{
			CustomerType: NormalizeCustomerType(rec.Cell(schema.CustomerType)),
		}
		row.Date, row.HasDate = ParseOrderDate(rec.Cell(schema.Date))
		if schema.Identity.Found {
			row.Identity, row.HasIdentity = NormalizeIdentity(rec.Cell(schema.Identity.Name))
		}
		out = append(out, row)
	}
	return out
}

// ScopeToYear 保留日期有效且年份等于 year 的行，并标记所在月份
func ScopeToYear(rows []CleanedRow, year int) []YearScopedRow {
	out := make([]YearScopedRow, 0, len(rows))
	for _, r := range rows {
		if !r.HasDate || r.Date.Year() != year {
			continue
		}
		out = append(out, YearScopedRow{
			CleanedRow: r,
			Month:      MonthOf(r.Date),
		})
	}
	return out
}

func countUndated(rows []CleanedRow) int {
	n := 0
	for _, r := range rows {
		if !r.HasDate {
			n++
		}
	}
	return n
}

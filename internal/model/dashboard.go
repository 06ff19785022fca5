package model

import "time"

// NotDefined 客户类型缺失时使用的占位值
const NotDefined = "Not Defined"

// TypeCount 按客户类型计数
type TypeCount struct {
	CustomerType string `json:"customerType"`
	Count        int    `json:"count"`
}

// MonthlyCount 按 (月份, 客户类型) 计数
type MonthlyCount struct {
	Month        time.Time `json:"month"` // 当月 1 日
	CustomerType string    `json:"customerType"`
	Count        int       `json:"count"`
}

// HeatmapMatrix 客户类型 × 月份 矩阵，缺失单元格为 0
type HeatmapMatrix struct {
	CustomerTypes []string    `json:"customerTypes"` // 行
	Months        []time.Time `json:"months"`        // 列
	Counts        [][]int     `json:"counts"`        // Counts[row][col]
}

// Cell 取矩阵单元格，不存在的行列返回 0
func (m HeatmapMatrix) Cell(customerType string, month time.Time) int {
	row, col := -1, -1
	for i, ct := range m.CustomerTypes {
		if ct == customerType {
			row = i
			break
		}
	}
	for j, mo := range m.Months {
		if mo.Equal(month) {
			col = j
			break
		}
	}
	if row < 0 || col < 0 {
		return 0
	}
	return m.Counts[row][col]
}

// MonthlyShare 月度占比
type MonthlyShare struct {
	Month        time.Time `json:"month"`
	CustomerType string    `json:"customerType"`
	Count        int       `json:"count"`
	MonthTotal   int       `json:"monthTotal"`
	Share        float64   `json:"share"`
}

// CumulativeCount 按客户类型的累计订单数
type CumulativeCount struct {
	CustomerType    string    `json:"customerType"`
	Month           time.Time `json:"month"`
	Count           int       `json:"count"`
	CumulativeCount int       `json:"cumulativeCount"`
}

// SegmentCustomerStats 单个客户类型下的客户维度统计
type SegmentCustomerStats struct {
	CustomerType            string  `json:"customerType"`
	AvgOrdersPerCustomer    float64 `json:"avgOrdersPerCustomer"`
	MaxOrdersSingleCustomer int     `json:"maxOrdersSingleCustomer"`
	CustomerCount           int     `json:"customerCount"`
}

// PerCustomerStats 客户维度分析（仅在识别到客户标识列时存在）
type PerCustomerStats struct {
	IdentityColumn string                 `json:"identityColumn"`
	Segments       []SegmentCustomerStats `json:"segments"`
}

// PipelineSummary 汇总信息
type PipelineSummary struct {
	ReferenceYear  int    `json:"referenceYear"`
	TotalRows      int    `json:"totalRows"`      // 清洗后全表行数
	YearScopedRows int    `json:"yearScopedRows"` // 参考年份内的行数
	UndatedRows    int    `json:"undatedRows"`    // 日期无法解析的行数
	IdentityColumn string `json:"identityColumn,omitempty"`
}

// PipelineResult 聚合结果，所有派生表
type PipelineResult struct {
	Summary          PipelineSummary   `json:"summary"`
	CustomerTotals   []TypeCount       `json:"customerTotals"`
	MonthlySeries    []MonthlyCount    `json:"monthlySeries"`
	SegmentRanking   []TypeCount       `json:"segmentRanking"`
	Heatmap          HeatmapMatrix     `json:"heatmap"`
	MonthlyShare     []MonthlyShare    `json:"monthlyShare"`
	CumulativeSeries []CumulativeCount `json:"cumulativeSeries"`
	PerCustomerStats *PerCustomerStats `json:"perCustomerStats,omitempty"`
}

// 派生表名称（用于 API 和导出）
const (
	TableCustomerTotals   = "customerTotals"
	TableMonthlySeries    = "monthlySeries"
	TableSegmentRanking   = "segmentRanking"
	TableHeatmap          = "heatmap"
	TableMonthlyShare     = "monthlyShare"
	TableCumulativeSeries = "cumulativeSeries"
	TablePerCustomerStats = "perCustomerStats"
)

// TableNames 返回结果中实际存在的派生表名称（按展示顺序）
func (r *PipelineResult) TableNames() []string {
	names := []string{
		TableCustomerTotals,
		TableMonthlySeries,
		TableSegmentRanking,
		TableHeatmap,
		TableMonthlyShare,
		TableCumulativeSeries,
	}
	if r != nil && r.PerCustomerStats != nil {
		names = append(names, TablePerCustomerStats)
	}
	return names
}

// Table 按名称取派生表，不存在时返回 false
func (r *PipelineResult) Table(name string) (any, bool) {
	if r == nil {
		return nil, false
	}
	switch name {
	case TableCustomerTotals:
		return r.CustomerTotals, true
	case TableMonthlySeries:
		return r.MonthlySeries, true
	case TableSegmentRanking:
		return r.SegmentRanking, true
	case TableHeatmap:
		return r.Heatmap, true
	case TableMonthlyShare:
		return r.MonthlyShare, true
	case TableCumulativeSeries:
		return r.CumulativeSeries, true
	case TablePerCustomerStats:
		if r.PerCustomerStats == nil {
			return nil, false
		}
		return r.PerCustomerStats, true
	}
	return nil, false
}

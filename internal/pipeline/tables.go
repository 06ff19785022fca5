package pipeline

import (
	"sort"
	"time"

	"github.com/samber/lo"

	"orderdash/internal/model"
)

type monthTypeKey struct {
	month        time.Time
	customerType string
}

// CustomerTotals 全表（不限年份）按客户类型计数，按数量升序
func CustomerTotals(rows []CleanedRow) []model.TypeCount {
	counts := lo.CountValuesBy(rows, func(r CleanedRow) string { return r.CustomerType })
	return sortedTypeCounts(counts)
}

// SegmentRanking 参考年份内按客户类型计数，按数量升序
func SegmentRanking(rows []YearScopedRow) []model.TypeCount {
	counts := lo.CountValuesBy(rows, func(r YearScopedRow) string { return r.CustomerType })
	return sortedTypeCounts(counts)
}

// 数量相同时按客户类型排序，保证输出稳定
func sortedTypeCounts(counts map[string]int) []model.TypeCount {
	out := make([]model.TypeCount, 0, len(counts))
	for ct, n := range counts {
		out = append(out, model.TypeCount{CustomerType: ct, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count < out[j].Count
		}
		return out[i].CustomerType < out[j].CustomerType
	})
	return out
}

// MonthlySeries 按 (月份, 客户类型) 计数，只包含实际出现的组合，按月份、客户类型排序
func MonthlySeries(rows []YearScopedRow) []model.MonthlyCount {
	counts := make(map[monthTypeKey]int)
	for _, r := range rows {
		counts[monthTypeKey{month: r.Month, customerType: r.CustomerType}]++
	}

	out := make([]model.MonthlyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, model.MonthlyCount{Month: k.month, CustomerType: k.customerType, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Month.Equal(out[j].Month) {
			return out[i].Month.Before(out[j].Month)
		}
		return out[i].CustomerType < out[j].CustomerType
	})
	return out
}

// Heatmap 将月度序列透视为 客户类型 × 月份 矩阵，缺失单元格填 0
func Heatmap(series []model.MonthlyCount) model.HeatmapMatrix {
	types := lo.Uniq(lo.Map(series, func(s model.MonthlyCount, _ int) string { return s.CustomerType }))
	sort.Strings(types)

	months := lo.UniqBy(lo.Map(series, func(s model.MonthlyCount, _ int) time.Time { return s.Month }),
		func(t time.Time) int64 { return t.Unix() })
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	rowIdx := make(map[string]int, len(types))
	for i, ct := range types {
		rowIdx[ct] = i
	}
	colIdx := make(map[int64]int, len(months))
	for j, m := range months {
		colIdx[m.Unix()] = j
	}

	counts := make([][]int, len(types))
	for i := range counts {
		counts[i] = make([]int, len(months))
	}
	for _, s := range series {
		counts[rowIdx[s.CustomerType]][colIdx[s.Month.Unix()]] += s.Count
	}

	return model.HeatmapMatrix{
		CustomerTypes: types,
		Months:        months,
		Counts:        counts,
	}
}

// MonthlyShare 在月度序列上追加当月合计和占比
func MonthlyShare(series []model.MonthlyCount) []model.MonthlyShare {
	totals := make(map[int64]int)
	for _, s := range series {
		totals[s.Month.Unix()] += s.Count
	}

	out := make([]model.MonthlyShare, 0, len(series))
	for _, s := range series {
		total := totals[s.Month.Unix()]
		share := 0.0
		if total > 0 {
			share = float64(s.Count) / float64(total)
		}
		out = append(out, model.MonthlyShare{
			Month:        s.Month,
			CustomerType: s.CustomerType,
			Count:        s.Count,
			MonthTotal:   total,
			Share:        share,
		})
	}
	return out
}

// CumulativeSeries 按 (客户类型, 月份) 排序后，在每个客户类型内累加订单数
func CumulativeSeries(series []model.MonthlyCount) []model.CumulativeCount {
	sorted := make([]model.MonthlyCount, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].CustomerType != sorted[j].CustomerType {
			return sorted[i].CustomerType < sorted[j].CustomerType
		}
		return sorted[i].Month.Before(sorted[j].Month)
	})

	out := make([]model.CumulativeCount, 0, len(sorted))
	running := 0
	for i, s := range sorted {
		if i == 0 || sorted[i-1].CustomerType != s.CustomerType {
			running = 0
		}
		running += s.Count
		out = append(out, model.CumulativeCount{
			CustomerType:    s.CustomerType,
			Month:           s.Month,
			Count:           s.Count,
			CumulativeCount: running,
		})
	}
	return out
}

// PerCustomer 参考年份内按 (客户类型, 客户标识) 计数，再按客户类型汇总
// 标识缺失的行不参与统计
func PerCustomer(rows []YearScopedRow, identityColumn string) *model.PerCustomerStats {
	identified := lo.Filter(rows, func(r YearScopedRow, _ int) bool { return r.HasIdentity })
	byType := lo.GroupBy(identified, func(r YearScopedRow) string { return r.CustomerType })

	segments := make([]model.SegmentCustomerStats, 0, len(byType))
	for ct, typeRows := range byType {
		perCustomer := lo.CountValuesBy(typeRows, func(r YearScopedRow) string { return r.Identity })
		orders := lo.Values(perCustomer)
		segments = append(segments, model.SegmentCustomerStats{
			CustomerType:            ct,
			AvgOrdersPerCustomer:    float64(lo.Sum(orders)) / float64(len(orders)),
			MaxOrdersSingleCustomer: lo.Max(orders),
			CustomerCount:           len(orders),
		})
	}
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].CustomerType < segments[j].CustomerType
	})

	return &model.PerCustomerStats{
		IdentityColumn: identityColumn,
		Segments:       segments,
	}
}

package pipeline

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdash/internal/model"
)

func month(y int, m time.Month) time.Time {
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func table(columns []string, rows ...model.Record) *model.RawTable {
	return &model.RawTable{Columns: columns, Records: rows}
}

func sampleTable() *model.RawTable {
	cols := []string{"Customer Type", "Date", "Customer ID", "Amount"}
	return table(cols,
		model.Record{"Customer Type": "Gallery", "Date": "2025-01-15", "Customer ID": "C1"},
		model.Record{"Customer Type": "Gallery", "Date": "2025-01-20", "Customer ID": "C1"},
		model.Record{"Customer Type": "Museum", "Date": "2025-01-03", "Customer ID": "C2"},
		model.Record{"Customer Type": "  Museum ", "Date": "2025-02-11", "Customer ID": "C3"},
		model.Record{"Customer Type": "Gallery", "Date": "2025-03-01", "Customer ID": "C4"},
		model.Record{"Customer Type": "nan", "Date": "2025-02-02", "Customer ID": "C5"},
		model.Record{"Date": "2025-02-28"},
		model.Record{"Customer Type": "Wholesaler", "Date": "not a date", "Customer ID": "C6"},
		model.Record{"Customer Type": "Wholesaler", "Date": "2024-06-30", "Customer ID": "C6"},
		model.Record{"Customer Type": "Gallery", "Date": "2025-03-09", "Customer ID": "C1"},
	)
}

func TestRun_SpecScenario(t *testing.T) {
	in := table([]string{"CustomerType", "Date"},
		model.Record{"CustomerType": "Gallery", "Date": "2025-01-15"},
		model.Record{"CustomerType": " ", "Date": "2025-01-20"},
		model.Record{"CustomerType": "Gallery", "Date": "2024-12-01"},
	)

	res, err := Run(in, 2025)
	require.NoError(t, err)

	assert.Equal(t, []model.TypeCount{
		{CustomerType: model.NotDefined, Count: 1},
		{CustomerType: "Gallery", Count: 2},
	}, res.CustomerTotals)

	assert.Equal(t, []model.MonthlyCount{
		{Month: month(2025, time.January), CustomerType: "Gallery", Count: 1},
		{Month: month(2025, time.January), CustomerType: model.NotDefined, Count: 1},
	}, res.MonthlySeries)

	assert.Equal(t, 3, res.Summary.TotalRows)
	assert.Equal(t, 2, res.Summary.YearScopedRows)
	assert.Nil(t, res.PerCustomerStats)
}

func TestRun_MissingDateColumn(t *testing.T) {
	in := table([]string{"CustomerType", "Amount"},
		model.Record{"CustomerType": "Gallery", "Amount": "10"},
	)

	res, err := Run(in, 2025)
	require.Error(t, err)
	assert.Nil(t, res)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColumnDate}, schemaErr.Missing)
	assert.Contains(t, err.Error(), "Date")
}

func TestRun_MissingBothColumns(t *testing.T) {
	_, err := Run(table([]string{"Foo"}), 2025)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{ColumnCustomerType, ColumnDate}, schemaErr.Missing)
}

func TestRun_NilTable(t *testing.T) {
	_, err := Run(nil, 2025)

	var schemaErr *SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestRun_EmptyTableWithSchema(t *testing.T) {
	res, err := Run(table([]string{"CustomerType", "Date"}), 2025)
	require.NoError(t, err)

	assert.Empty(t, res.CustomerTotals)
	assert.Empty(t, res.MonthlySeries)
	assert.Empty(t, res.Heatmap.CustomerTypes)
	assert.Empty(t, res.MonthlyShare)
	assert.Empty(t, res.CumulativeSeries)
}

func TestRun_NoIdentityColumn(t *testing.T) {
	in := table([]string{"CustomerType", "Date", "Amount"},
		model.Record{"CustomerType": "Gallery", "Date": "2025-01-15", "Amount": "3"},
	)

	res, err := Run(in, 2025)
	require.NoError(t, err)

	assert.Nil(t, res.PerCustomerStats)
	assert.Empty(t, res.Summary.IdentityColumn)
	assert.Len(t, res.CustomerTotals, 1)
	assert.Len(t, res.MonthlySeries, 1)
	assert.Len(t, res.SegmentRanking, 1)
	assert.Len(t, res.MonthlyShare, 1)
	assert.Len(t, res.CumulativeSeries, 1)
	_, ok := res.Table(model.TablePerCustomerStats)
	assert.False(t, ok)
}

func TestRun_CustomerTotalsCoverAllYears(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)

	sum := 0
	for _, tc := range res.CustomerTotals {
		sum += tc.Count
	}
	assert.Equal(t, res.Summary.TotalRows, sum)
	assert.Equal(t, 10, sum)
	assert.Equal(t, 1, res.Summary.UndatedRows)
	assert.Equal(t, 8, res.Summary.YearScopedRows)

	// 升序
	for i := 1; i < len(res.CustomerTotals); i++ {
		assert.LessOrEqual(t, res.CustomerTotals[i-1].Count, res.CustomerTotals[i].Count)
	}
}

func TestRun_NormalizedDomainOnly(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)

	valid := func(ct string) bool {
		return ct != "" && ct != "nan" && ct != "NaN" && ct == trimmed(ct)
	}

	for _, r := range res.CustomerTotals {
		assert.True(t, valid(r.CustomerType), r.CustomerType)
	}
	for _, r := range res.MonthlySeries {
		assert.True(t, valid(r.CustomerType), r.CustomerType)
	}
	for _, r := range res.SegmentRanking {
		assert.True(t, valid(r.CustomerType), r.CustomerType)
	}
	for _, ct := range res.Heatmap.CustomerTypes {
		assert.True(t, valid(ct), ct)
	}
	for _, r := range res.MonthlyShare {
		assert.True(t, valid(r.CustomerType), r.CustomerType)
	}
	for _, r := range res.CumulativeSeries {
		assert.True(t, valid(r.CustomerType), r.CustomerType)
	}
	for _, s := range res.PerCustomerStats.Segments {
		assert.True(t, valid(s.CustomerType), s.CustomerType)
	}

	assert.Contains(t, res.Heatmap.CustomerTypes, model.NotDefined)
}

func trimmed(s string) string {
	for len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	for len(s) > 0 && (s[len(s)-1] == ' ' || s[len(s)-1] == '\t') {
		s = s[:len(s)-1]
	}
	return s
}

func TestRun_SegmentRanking(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)

	assert.Equal(t, []model.TypeCount{
		{CustomerType: "Museum", Count: 2},
		{CustomerType: model.NotDefined, Count: 2},
		{CustomerType: "Gallery", Count: 4},
	}, res.SegmentRanking)
}

func TestRun_Heatmap(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)

	hm := res.Heatmap
	assert.Equal(t, []string{"Gallery", "Museum", model.NotDefined}, hm.CustomerTypes)
	assert.Equal(t, []time.Time{
		month(2025, time.January),
		month(2025, time.February),
		month(2025, time.March),
	}, hm.Months)
	assert.Equal(t, [][]int{
		{2, 0, 2},
		{1, 1, 0},
		{0, 2, 0},
	}, hm.Counts)
	assert.Equal(t, 0, hm.Cell("Museum", month(2025, time.March)))
	assert.Equal(t, 0, hm.Cell("Unknown", month(2025, time.March)))
}

func TestRun_MonthlyShareSumsToOne(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)

	sums := make(map[time.Time]float64)
	for _, s := range res.MonthlyShare {
		sums[s.Month] += s.Share
		assert.Greater(t, s.MonthTotal, 0)
	}
	require.Len(t, sums, 3)
	for m, total := range sums {
		assert.InDelta(t, 1.0, total, 1e-9, m.String())
	}
}

func TestRun_CumulativeMonotone(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)

	last := map[string]model.CumulativeCount{}
	for _, c := range res.CumulativeSeries {
		if prev, ok := last[c.CustomerType]; ok {
			assert.True(t, c.Month.After(prev.Month))
			assert.GreaterOrEqual(t, c.CumulativeCount, prev.CumulativeCount)
			assert.Equal(t, prev.CumulativeCount+c.Count, c.CumulativeCount)
		} else {
			assert.Equal(t, c.Count, c.CumulativeCount)
		}
		last[c.CustomerType] = c
	}
	assert.Equal(t, 4, last["Gallery"].CumulativeCount)
}

func TestRun_PerCustomerStats(t *testing.T) {
	res, err := Run(sampleTable(), 2025)
	require.NoError(t, err)
	require.NotNil(t, res.PerCustomerStats)

	assert.Equal(t, "Customer ID", res.PerCustomerStats.IdentityColumn)
	assert.Equal(t, "Customer ID", res.Summary.IdentityColumn)

	// 无标识的 "Not Defined" 行被排除，只剩 C5
	assert.Equal(t, []model.SegmentCustomerStats{
		{CustomerType: "Gallery", AvgOrdersPerCustomer: 2, MaxOrdersSingleCustomer: 3, CustomerCount: 2},
		{CustomerType: "Museum", AvgOrdersPerCustomer: 1, MaxOrdersSingleCustomer: 1, CustomerCount: 2},
		{CustomerType: model.NotDefined, AvgOrdersPerCustomer: 1, MaxOrdersSingleCustomer: 1, CustomerCount: 1},
	}, res.PerCustomerStats.Segments)
}

func TestRun_PerCustomerIdentityKeptVerbatim(t *testing.T) {
	in := table([]string{"CustomerType", "Date", "CustomerID"},
		model.Record{"CustomerType": "Gallery", "Date": "2025-01-15", "CustomerID": "C1"},
		model.Record{"CustomerType": "Gallery", "Date": "2025-01-16", "CustomerID": " C1"},
		model.Record{"CustomerType": "Gallery", "Date": "2025-01-17", "CustomerID": "  "},
		model.Record{"CustomerType": "Gallery", "Date": "2025-01-18"},
	)

	res, err := Run(in, 2025)
	require.NoError(t, err)
	require.NotNil(t, res.PerCustomerStats)

	// "C1" 与 " C1" 是不同客户，纯空白标识也算一个客户，缺失标识的行不计入
	assert.Equal(t, []model.SegmentCustomerStats{
		{CustomerType: "Gallery", AvgOrdersPerCustomer: 1, MaxOrdersSingleCustomer: 1, CustomerCount: 3},
	}, res.PerCustomerStats.Segments)
}

func TestRun_Idempotent(t *testing.T) {
	in := sampleTable()

	first, err := Run(in, 2025)
	require.NoError(t, err)
	second, err := Run(in, 2025)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i := range first.MonthlyShare {
		assert.Equal(t, math.Float64bits(first.MonthlyShare[i].Share), math.Float64bits(second.MonthlyShare[i].Share))
	}
}

func TestRun_DoesNotMutateInput(t *testing.T) {
	in := sampleTable()
	before := in.Records[3]["Customer Type"]

	_, err := Run(in, 2025)
	require.NoError(t, err)

	assert.Equal(t, before, in.Records[3]["Customer Type"])
	assert.Len(t, in.Records, 10)
}

func TestRun_ReferenceYearIsParameter(t *testing.T) {
	res, err := Run(sampleTable(), 2024)
	require.NoError(t, err)

	assert.Equal(t, 2024, res.Summary.ReferenceYear)
	assert.Equal(t, []model.MonthlyCount{
		{Month: month(2024, time.June), CustomerType: "Wholesaler", Count: 1},
	}, res.MonthlySeries)
	assert.Len(t, res.CustomerTotals, 4)
}

package importer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderdash/internal/model"
	"orderdash/internal/parser"
	"orderdash/internal/pipeline"
	"orderdash/internal/store"
)

const ordersCSV = `Customer Type,Date,Customer ID,Amount
Gallery,2025-01-15,C1,120
Gallery,2025-01-20,C1,80
Museum,2025-02-03,C2,300
,2025-02-10,C3,15
Wholesaler,2024-11-30,C4,999
Retail Collector,unknown,C5,10
`

func newCoordinator() (*Coordinator, *store.DatasetStore) {
	st := store.NewDatasetStore(store.Options{})
	return NewCoordinator(st, nil), st
}

func TestImport_CSV(t *testing.T) {
	c, st := newCoordinator()

	report, err := c.Import(context.Background(), ImportOptions{
		Filename:      "/tmp/uploads/orders.csv",
		Reader:        strings.NewReader(ordersCSV),
		ReferenceYear: 2025,
	})
	require.NoError(t, err)

	assert.Equal(t, "orders.csv", report.Filename)
	assert.Equal(t, parser.FormatCSV, report.Load.Format)
	assert.Equal(t, 6, report.TotalRows)
	assert.Equal(t, 4, report.YearScopedRows)
	assert.Equal(t, 1, report.UndatedRows)
	assert.Equal(t, "Customer ID", report.IdentityColumn)
	assert.Contains(t, report.Tables, model.TablePerCustomerStats)

	ds, err := st.Get(report.DatasetID)
	require.NoError(t, err)
	assert.Same(t, report.Result, ds.Result)

	latest, err := st.Latest()
	require.NoError(t, err)
	assert.Equal(t, report.DatasetID, latest.ID)
}

func TestImport_SchemaErrorStoresNothing(t *testing.T) {
	c, st := newCoordinator()

	_, err := c.Import(context.Background(), ImportOptions{
		Filename:      "orders.csv",
		Reader:        strings.NewReader("Customer Type,Amount\nGallery,10\n"),
		ReferenceYear: 2025,
	})

	var schemaErr *pipeline.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{pipeline.ColumnDate}, schemaErr.Missing)
	assert.Equal(t, 0, st.Count())
}

func TestImport_LoadError(t *testing.T) {
	c, st := newCoordinator()

	_, err := c.Import(context.Background(), ImportOptions{
		Filename:      "orders.json",
		Reader:        strings.NewReader("{}"),
		ReferenceYear: 2025,
	})

	var loadErr *parser.LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, 0, st.Count())
}

func TestImport_InvalidYear(t *testing.T) {
	c, _ := newCoordinator()

	_, err := c.Import(context.Background(), ImportOptions{
		Filename: "orders.csv",
		Reader:   strings.NewReader(ordersCSV),
	})
	assert.ErrorContains(t, err, "reference year")
}

func TestImport_Cancelled(t *testing.T) {
	c, st := newCoordinator()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Import(ctx, ImportOptions{
		Filename:      "orders.csv",
		Reader:        strings.NewReader(ordersCSV),
		ReferenceYear: 2025,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, st.Count())
}

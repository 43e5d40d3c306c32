package agg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polog/internal/model"
)

func kpiDataset() *model.Dataset {
	return &model.Dataset{
		Fields: model.Capabilities{
			model.FieldAmt:           true,
			model.FieldPOStatus:      true,
			model.FieldVendorName:    true,
			model.FieldRequisitioner: true,
		},
		Records: []model.Record{
			{
				OrderDate: day(2023, time.January, 1), PONumber: "PO1",
				Total: 100, Amt: 100, POStatus: model.StatusOpen,
				VendorName: "Acme", Requisitioner: "jdoe",
			},
			{
				OrderDate: day(2023, time.January, 2), PONumber: "PO1",
				Total: 500, Amt: 50, POStatus: model.StatusOpen,
				VendorName: "Acme", Requisitioner: "jdoe",
			},
			{
				OrderDate: day(2023, time.January, 3), PONumber: "PO2",
				Total: 500, Amt: 900, POStatus: model.StatusReceived,
				VendorName: "Globex", Requisitioner: "asmith",
			},
		},
	}
}

func TestComputeKPIs(t *testing.T) {
	t.Parallel()
	k := ComputeKPIs(kpiDataset())

	assert.Equal(t, 3, k.Lines)
	assert.Equal(t, 2, k.DistinctPOs)
	// Only open-status lines contribute their Amt.
	assert.Equal(t, 150.0, k.OpenOrderAmt)

	// Two lines tie on Total; the first in dataset order wins.
	require.NotNil(t, k.MostExpensive)
	assert.Equal(t, "PO1", k.MostExpensive.PONumber)
	assert.Equal(t, "Acme", k.MostExpensive.VendorName)
	assert.Equal(t, 500.0, k.MostExpensive.Total)
}

func TestComputeKPIsMissingColumns(t *testing.T) {
	t.Parallel()
	ds := kpiDataset()
	delete(ds.Fields, model.FieldAmt)
	delete(ds.Fields, model.FieldVendorName)

	k := ComputeKPIs(ds)
	assert.Equal(t, 0.0, k.OpenOrderAmt)
	assert.Nil(t, k.MostExpensive)
	assert.Equal(t, 2, k.DistinctPOs)
}

func TestComputeKPIsEmpty(t *testing.T) {
	t.Parallel()
	k := ComputeKPIs(&model.Dataset{Fields: model.Capabilities{}})
	assert.Equal(t, 0, k.Lines)
	assert.Equal(t, 0, k.DistinctPOs)
	assert.Nil(t, k.MostExpensive)
}

func TestLastOrderFor(t *testing.T) {
	t.Parallel()
	ds := kpiDataset()

	lo := LastOrderFor(ds, "jdoe")
	require.NotNil(t, lo)
	assert.Equal(t, "2023-01-02", lo.OrderDate)
	assert.Equal(t, "PO1", lo.PONumber)
	assert.Equal(t, model.StatusOpen, lo.Status)

	assert.Nil(t, LastOrderFor(ds, "nobody"))

	delete(ds.Fields, model.FieldRequisitioner)
	assert.Nil(t, LastOrderFor(ds, "jdoe"))
}

func TestLastOrderForTieTakesLastLine(t *testing.T) {
	t.Parallel()
	ds := &model.Dataset{
		Fields: model.Capabilities{model.FieldRequisitioner: true},
		Records: []model.Record{
			{OrderDate: day(2023, time.May, 1), PONumber: "PO1", Requisitioner: "jdoe"},
			{OrderDate: day(2023, time.May, 1), PONumber: "PO2", Requisitioner: "jdoe"},
		},
	}

	lo := LastOrderFor(ds, "jdoe")
	require.NotNil(t, lo)
	assert.Equal(t, "PO2", lo.PONumber)
}

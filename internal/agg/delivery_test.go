package agg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/polog/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayPtr(y int, m time.Month, d int) *time.Time {
	t := day(y, m, d)
	return &t
}

func deliveryCaps() model.Capabilities {
	return model.Capabilities{
		model.FieldRequestDate:     true,
		model.FieldRecDate:         true,
		model.FieldPurchaseAccount: true,
		model.FieldRequisitioner:   true,
	}
}

// Two late lines on one PO plus one on-time PO: the PO-level summary counts
// one late order, while the line-level matrix counts both late lines.
func TestDeliveryPOVersusLineLevel(t *testing.T) {
	t.Parallel()
	ds := &model.Dataset{
		Fields: deliveryCaps(),
		Records: []model.Record{
			{
				PONumber: "PO100", PurchaseAccount: "1000-2000", Total: 50,
				RequestDate: dayPtr(2023, time.January, 10),
				RecDate:     dayPtr(2023, time.January, 15),
			},
			{
				PONumber: "PO100", PurchaseAccount: "1000-2000", Total: 60,
				RequestDate: dayPtr(2023, time.January, 10),
				RecDate:     dayPtr(2023, time.January, 20),
			},
			{
				PONumber: "PO101", PurchaseAccount: "3000-4000", Total: 70,
				RequestDate: dayPtr(2023, time.January, 10),
				RecDate:     dayPtr(2023, time.January, 10),
			},
		},
	}

	sum := Delivery(ds)
	assert.True(t, sum.Ready)
	assert.Equal(t, 1, sum.LatePOs)
	assert.Equal(t, 1, sum.OnTimePOs)
	assert.Equal(t, 2, sum.TotalPOs)
	assert.Equal(t, 50.0, sum.OnTimePct)
	assert.Equal(t, 50.0, sum.LatePct)

	matrix := OnTimeByAccount(ds)
	require.Len(t, matrix, 2)
	assert.Equal(t, "1000-2000", matrix[0].PurchaseAccount)
	assert.Equal(t, 2, matrix[0].Late)
	assert.Equal(t, 0, matrix[0].OnTime)
	assert.Equal(t, 0.0, matrix[0].OnTimePct)
	assert.Equal(t, "3000-4000", matrix[1].PurchaseAccount)
	assert.Equal(t, 1, matrix[1].OnTime)
	assert.Equal(t, 100.0, matrix[1].OnTimePct)
}

func TestDeliveryMixedPOCountsLate(t *testing.T) {
	t.Parallel()
	// One PO with a late line and an on-time line counts as late once.
	ds := &model.Dataset{
		Fields: deliveryCaps(),
		Records: []model.Record{
			{
				PONumber:    "PO1",
				RequestDate: dayPtr(2023, time.March, 1),
				RecDate:     dayPtr(2023, time.March, 1),
			},
			{
				PONumber:    "PO1",
				RequestDate: dayPtr(2023, time.March, 1),
				RecDate:     dayPtr(2023, time.March, 9),
			},
		},
	}

	sum := Delivery(ds)
	assert.Equal(t, 1, sum.LatePOs)
	assert.Equal(t, 0, sum.OnTimePOs)
	assert.Equal(t, 1, sum.TotalPOs)
}

func TestDeliveryNotReady(t *testing.T) {
	t.Parallel()
	// Lines missing either date are excluded; with none left the summary
	// reports not-ready instead of dividing by zero.
	ds := &model.Dataset{
		Fields: deliveryCaps(),
		Records: []model.Record{
			{PONumber: "PO1", RequestDate: dayPtr(2023, time.March, 1)},
			{PONumber: "PO2", RecDate: dayPtr(2023, time.March, 1)},
		},
	}

	sum := Delivery(ds)
	assert.False(t, sum.Ready)
	assert.Equal(t, 0, sum.TotalPOs)
}

func TestDeliveryColumnsAbsent(t *testing.T) {
	t.Parallel()
	ds := &model.Dataset{
		Fields:  model.Capabilities{},
		Records: []model.Record{{PONumber: "PO1"}},
	}

	assert.False(t, Delivery(ds).Ready)
	assert.Nil(t, OnTimeByAccount(ds))
	assert.Nil(t, LateOrderDetail(ds))
}

func TestLateOrderDetailSortedByDelay(t *testing.T) {
	t.Parallel()
	ds := &model.Dataset{
		Fields: deliveryCaps(),
		Records: []model.Record{
			{
				OrderDate: day(2023, time.January, 1), PONumber: "PO1",
				Total:       100,
				RequestDate: dayPtr(2023, time.January, 10),
				RecDate:     dayPtr(2023, time.January, 13),
			},
			{
				OrderDate: day(2023, time.January, 2), PONumber: "PO2",
				Total:       200,
				RequestDate: dayPtr(2023, time.January, 10),
				RecDate:     dayPtr(2023, time.January, 25),
			},
			{
				OrderDate: day(2023, time.January, 3), PONumber: "PO3",
				RequestDate: dayPtr(2023, time.January, 10),
				RecDate:     dayPtr(2023, time.January, 10),
			},
		},
	}

	detail := LateOrderDetail(ds)
	require.Len(t, detail, 2)
	assert.Equal(t, "PO2", detail[0].PONumber)
	assert.Equal(t, 15, detail[0].DaysLate)
	assert.Equal(t, "PO1", detail[1].PONumber)
	assert.Equal(t, 3, detail[1].DaysLate)
	assert.Equal(t, "2023-01-02", detail[0].OrderDate)
	assert.Equal(t, "2023-01-25", detail[0].RecDate)
}

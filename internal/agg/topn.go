package agg

import (
	"math"
	"sort"

	"github.com/sells-group/polog/internal/model"
)

// VendorSpend is one row of the top-vendor ranking.
type VendorSpend struct {
	VendorName string  `json:"vendor_name"`
	OpenSpend  float64 `json:"open_spend"`
}

// TopVendorsByOpenSpend ranks vendors by total value of their open-status
// lines and returns the top n.
func TopVendorsByOpenSpend(ds *model.Dataset, n int) []VendorSpend {
	if !ds.Has(model.FieldVendorName) || !ds.Has(model.FieldPOStatus) {
		return nil
	}

	spend := make(map[string]float64)
	for i := range ds.Records {
		r := &ds.Records[i]
		if r.POStatus != model.StatusOpen {
			continue
		}
		spend[r.VendorName] += r.Total
	}

	out := make([]VendorSpend, 0, len(spend))
	for vendor, v := range spend {
		out = append(out, VendorSpend{VendorName: vendor, OpenSpend: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenSpend != out[j].OpenSpend {
			return out[i].OpenSpend > out[j].OpenSpend
		}
		return out[i].VendorName < out[j].VendorName
	})
	return truncate(out, n)
}

// ItemQty is one row of the top-item ranking.
type ItemQty struct {
	ItemDescription string  `json:"item_description"`
	QtyOrdered      float64 `json:"qty_ordered"`
}

// TopItemsByQty ranks items by summed quantity ordered after excluding
// outlier lines via the IQR rule on the line quantity, and returns the
// top n.
func TopItemsByQty(ds *model.Dataset, n int) []ItemQty {
	if !ds.Has(model.FieldItemDescription) || !ds.Has(model.FieldQtyOrdered) {
		return nil
	}

	qtys := make([]float64, 0, ds.Len())
	for i := range ds.Records {
		qtys = append(qtys, ds.Records[i].QtyOrdered)
	}
	lo, hi := iqrBounds(qtys)

	totals := make(map[string]float64)
	for i := range ds.Records {
		r := &ds.Records[i]
		if r.QtyOrdered < lo || r.QtyOrdered > hi {
			continue
		}
		totals[r.ItemDescription] += r.QtyOrdered
	}

	out := make([]ItemQty, 0, len(totals))
	for item, q := range totals {
		out = append(out, ItemQty{ItemDescription: item, QtyOrdered: q})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QtyOrdered != out[j].QtyOrdered {
			return out[i].QtyOrdered > out[j].QtyOrdered
		}
		return out[i].ItemDescription < out[j].ItemDescription
	})
	return truncate(out, n)
}

// iqrBounds returns the Tukey fences [Q1 - 1.5*IQR, Q3 + 1.5*IQR] for the
// values. Fewer than 4 values produce unbounded fences.
func iqrBounds(values []float64) (lo, hi float64) {
	if len(values) < 4 {
		return -math.MaxFloat64, math.MaxFloat64
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// quantile computes the linear-interpolated quantile of sorted values.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[lo+1]*frac
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

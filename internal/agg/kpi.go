// Package agg computes KPI scalars, delivery classification, rollups, and
// ranked summaries over a filtered canonical dataset. Every function is
// stateless and reads the dataset without mutating it.
package agg

import "github.com/sells-group/polog/internal/model"

// OrderRef identifies a single purchase-order line for display.
type OrderRef struct {
	PONumber      string  `json:"po_number"`
	VendorName    string  `json:"vendor_name"`
	Requisitioner string  `json:"requisitioner"`
	Total         float64 `json:"total"`
}

// KPIs are the headline scalars for the working subset.
type KPIs struct {
	OpenOrderAmt  float64   `json:"open_order_amt"` // sum of Amt where status is OPEN
	DistinctPOs   int       `json:"distinct_pos"`
	Lines         int       `json:"lines"`
	MostExpensive *OrderRef `json:"most_expensive,omitempty"`
}

// ComputeKPIs returns the KPI scalars. OpenOrderAmt is 0 when the Amt or
// POStatus columns are absent. The most-expensive tie-break is the first
// row in dataset order.
func ComputeKPIs(ds *model.Dataset) KPIs {
	k := KPIs{Lines: ds.Len()}

	pos := make(map[string]struct{})
	var maxRec *model.Record
	for i := range ds.Records {
		r := &ds.Records[i]
		pos[r.PONumber] = struct{}{}

		if ds.Has(model.FieldAmt) && ds.Has(model.FieldPOStatus) && r.POStatus == model.StatusOpen {
			k.OpenOrderAmt += r.Amt
		}
		if maxRec == nil || r.Total > maxRec.Total {
			maxRec = r
		}
	}
	k.DistinctPOs = len(pos)

	if maxRec != nil && ds.Has(model.FieldVendorName) && ds.Has(model.FieldRequisitioner) {
		k.MostExpensive = &OrderRef{
			PONumber:      maxRec.PONumber,
			VendorName:    maxRec.VendorName,
			Requisitioner: maxRec.Requisitioner,
			Total:         maxRec.Total,
		}
	}

	return k
}

// LastOrder is the most recent order line for one requisitioner.
type LastOrder struct {
	OrderDate  string         `json:"order_date"`
	PONumber   string         `json:"po_number"`
	VendorName string         `json:"vendor_name"`
	Total      float64        `json:"total"`
	Status     model.POStatus `json:"status"`
}

// LastOrderFor returns the latest order line placed by the requisitioner,
// or nil when they have none in the subset. Ties on order date resolve to
// the last line in dataset order, matching a descending date sort.
func LastOrderFor(ds *model.Dataset, requisitioner string) *LastOrder {
	if !ds.Has(model.FieldRequisitioner) {
		return nil
	}
	var best *model.Record
	for i := range ds.Records {
		r := &ds.Records[i]
		if r.Requisitioner != requisitioner {
			continue
		}
		if best == nil || !r.OrderDate.Before(best.OrderDate) {
			best = r
		}
	}
	if best == nil {
		return nil
	}
	return &LastOrder{
		OrderDate:  best.OrderDate.Format("2006-01-02"),
		PONumber:   best.PONumber,
		VendorName: best.VendorName,
		Total:      best.Total,
		Status:     best.POStatus,
	}
}

// Package filter applies user-chosen predicates to the canonical dataset.
// Application is pure: the input dataset is never mutated.
package filter

import (
	"time"

	"github.com/sells-group/polog/internal/model"
)

// DefaultState builds the widest filter for a dataset: the full order-date
// range and no categorical or numeric restriction.
func DefaultState(ds *model.Dataset) model.FilterState {
	fs := model.FilterState{
		PurchaseAccount: model.SelectAll,
		Requisitioner:   model.SelectAll,
	}
	for i, r := range ds.Records {
		if i == 0 || r.OrderDate.Before(fs.OrderStart) {
			fs.OrderStart = r.OrderDate
		}
		if i == 0 || r.OrderDate.After(fs.OrderEnd) {
			fs.OrderEnd = r.OrderDate
		}
	}
	return fs
}

// Apply returns the subset of records matching every predicate. Predicates
// over absent optional columns are no-ops. An empty result is a valid
// outcome, not an error.
func Apply(ds *model.Dataset, fs model.FilterState) *model.Dataset {
	out := &model.Dataset{Fields: ds.Fields}
	for _, r := range ds.Records {
		if match(ds, r, fs) {
			out.Records = append(out.Records, r)
		}
	}
	return out
}

func match(ds *model.Dataset, r model.Record, fs model.FilterState) bool {
	if !inDateRange(r.OrderDate, fs.OrderStart, fs.OrderEnd) {
		return false
	}

	if fs.RequestEnabled && ds.Has(model.FieldRequestDate) {
		if r.RequestDate == nil || !inDateRange(*r.RequestDate, fs.RequestStart, fs.RequestEnd) {
			return false
		}
	}

	if ds.Has(model.FieldPurchaseAccount) && selected(fs.PurchaseAccount) && r.PurchaseAccount != fs.PurchaseAccount {
		return false
	}
	if ds.Has(model.FieldRequisitioner) && selected(fs.Requisitioner) && r.Requisitioner != fs.Requisitioner {
		return false
	}
	if ds.Has(model.FieldVendorName) && len(fs.Vendors) > 0 && !containsString(fs.Vendors, r.VendorName) {
		return false
	}
	if ds.Has(model.FieldPOStatus) && len(fs.Statuses) > 0 && !containsStatus(fs.Statuses, r.POStatus) {
		return false
	}

	if fs.TotalMin != nil && r.Total < *fs.TotalMin {
		return false
	}
	if fs.TotalMax != nil && r.Total > *fs.TotalMax {
		return false
	}

	return true
}

// inDateRange is inclusive on both ends. Zero bounds are open.
func inDateRange(d, start, end time.Time) bool {
	if !start.IsZero() && d.Before(start) {
		return false
	}
	if !end.IsZero() && d.After(end) {
		return false
	}
	return true
}

func selected(v string) bool {
	return v != "" && v != model.SelectAll
}

func containsString(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

func containsStatus(set []model.POStatus, v model.POStatus) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

package agg

import (
	"sort"

	"github.com/sells-group/polog/internal/model"
)

// LateGroup is the late-order rollup for one grouping key (purchase account
// or requisitioner).
type LateGroup struct {
	Key            string  `json:"key"`
	LateOrders     int     `json:"late_orders"` // distinct late POs
	LateLines      int     `json:"late_lines"`
	AvgDaysLate    float64 `json:"avg_days_late"` // 1 decimal
	MaxDaysLate    int     `json:"max_days_late"`
	LateOrderValue float64 `json:"late_order_value"`
}

// LateByAccount rolls up late records by purchase account, sorted descending
// by (late-order count, late-order value).
func LateByAccount(ds *model.Dataset) []LateGroup {
	if !ds.Has(model.FieldPurchaseAccount) {
		return nil
	}
	return lateRollup(ds, func(r *model.Record) string { return r.PurchaseAccount })
}

// LateByRequisitioner rolls up late records by requisitioner, sorted
// descending by (late-order count, late-order value).
func LateByRequisitioner(ds *model.Dataset) []LateGroup {
	if !ds.Has(model.FieldRequisitioner) {
		return nil
	}
	return lateRollup(ds, func(r *model.Record) string { return r.Requisitioner })
}

func lateRollup(ds *model.Dataset, keyOf func(*model.Record) string) []LateGroup {
	if !ds.Has(model.FieldRecDate) || !ds.Has(model.FieldRequestDate) {
		return nil
	}

	type acc struct {
		pos      map[string]struct{}
		lines    int
		daysSum  int
		daysMax  int
		value    float64
	}
	groups := make(map[string]*acc)
	for i := range ds.Records {
		r := &ds.Records[i]
		ot, days, ok := classify(r)
		if !ok || ot {
			continue
		}
		key := keyOf(r)
		g := groups[key]
		if g == nil {
			g = &acc{pos: make(map[string]struct{})}
			groups[key] = g
		}
		g.pos[r.PONumber] = struct{}{}
		g.lines++
		g.daysSum += days
		if days > g.daysMax {
			g.daysMax = days
		}
		g.value += r.Total
	}

	out := make([]LateGroup, 0, len(groups))
	for key, g := range groups {
		out = append(out, LateGroup{
			Key:            key,
			LateOrders:     len(g.pos),
			LateLines:      g.lines,
			AvgDaysLate:    round1(float64(g.daysSum) / float64(g.lines)),
			MaxDaysLate:    g.daysMax,
			LateOrderValue: g.value,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.LateOrders != b.LateOrders {
			return a.LateOrders > b.LateOrders
		}
		if a.LateOrderValue != b.LateOrderValue {
			return a.LateOrderValue > b.LateOrderValue
		}
		return a.Key < b.Key
	})
	return out
}

// ValueSummary is the per-key value rollup joined with its late rollup.
// Keys with no late orders carry zero-filled late columns.
type ValueSummary struct {
	Key            string  `json:"key"`
	UniquePOs      int     `json:"unique_pos"`
	OrderLines     int     `json:"order_lines"`
	TotalValue     float64 `json:"total_value"`
	OpenAmount     float64 `json:"open_amount"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	LateOrders     int     `json:"late_orders"`
	LateLines      int     `json:"late_lines"`
	AvgDaysLate    float64 `json:"avg_days_late"`
	MaxDaysLate    int     `json:"max_days_late"`
	LateOrderValue float64 `json:"late_order_value"`
}

// AccountValues summarizes spend per purchase account, left-joined with the
// late-order rollup. Sorted by total value descending.
func AccountValues(ds *model.Dataset) []ValueSummary {
	if !ds.Has(model.FieldPurchaseAccount) {
		return nil
	}
	return valueRollup(ds, func(r *model.Record) string { return r.PurchaseAccount }, LateByAccount(ds))
}

// RequisitionerValues summarizes spend per requisitioner, left-joined with
// the late-order rollup. Sorted by total value descending.
func RequisitionerValues(ds *model.Dataset) []ValueSummary {
	if !ds.Has(model.FieldRequisitioner) {
		return nil
	}
	return valueRollup(ds, func(r *model.Record) string { return r.Requisitioner }, LateByRequisitioner(ds))
}

func valueRollup(ds *model.Dataset, keyOf func(*model.Record) string, late []LateGroup) []ValueSummary {
	type acc struct {
		pos   map[string]struct{}
		lines int
		total float64
		open  float64
	}
	groups := make(map[string]*acc)
	for i := range ds.Records {
		r := &ds.Records[i]
		key := keyOf(r)
		g := groups[key]
		if g == nil {
			g = &acc{pos: make(map[string]struct{})}
			groups[key] = g
		}
		g.pos[r.PONumber] = struct{}{}
		g.lines++
		g.total += r.Total
		if ds.Has(model.FieldAmt) {
			g.open += r.Amt
		}
	}

	lateByKey := make(map[string]LateGroup, len(late))
	for _, lg := range late {
		lateByKey[lg.Key] = lg
	}

	out := make([]ValueSummary, 0, len(groups))
	for key, g := range groups {
		v := ValueSummary{
			Key:        key,
			UniquePOs:  len(g.pos),
			OrderLines: g.lines,
			TotalValue: g.total,
			OpenAmount: g.open,
		}
		if v.UniquePOs > 0 {
			v.AvgOrderValue = g.total / float64(v.UniquePOs)
		}
		if lg, ok := lateByKey[key]; ok {
			v.LateOrders = lg.LateOrders
			v.LateLines = lg.LateLines
			v.AvgDaysLate = lg.AvgDaysLate
			v.MaxDaysLate = lg.MaxDaysLate
			v.LateOrderValue = lg.LateOrderValue
		}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalValue != out[j].TotalValue {
			return out[i].TotalValue > out[j].TotalValue
		}
		return out[i].Key < out[j].Key
	})
	return out
}

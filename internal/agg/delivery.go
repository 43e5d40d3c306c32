package agg

import (
	"math"
	"sort"

	"github.com/sells-group/polog/internal/model"
)

// classify reports the on-time classification of a record. Records missing
// either date are excluded from delivery statistics entirely.
func classify(r *model.Record) (onTime bool, daysLate int, ok bool) {
	if r.RecDate == nil || r.RequestDate == nil {
		return false, 0, false
	}
	if r.RecDate.After(*r.RequestDate) {
		days := int(r.RecDate.Sub(*r.RequestDate).Hours() / 24)
		return false, days, true
	}
	return true, 0, true
}

// DeliverySummary holds the PO-level on-time delivery metrics. Ready is
// false when no PO has both dates within the subset; callers report a
// "not ready" state instead of dividing by zero.
type DeliverySummary struct {
	Ready      bool    `json:"ready"`
	OnTimePOs  int     `json:"on_time_pos"`
	LatePOs    int     `json:"late_pos"`
	TotalPOs   int     `json:"total_pos"`
	OnTimePct  float64 `json:"on_time_pct"`
	LatePct    float64 `json:"late_pct"`
}

// Delivery classifies the subset at the purchase-order level: a PO counts
// once no matter how many lines it has, and a PO with any late line counts
// as late.
func Delivery(ds *model.Dataset) DeliverySummary {
	if !ds.Has(model.FieldRecDate) || !ds.Has(model.FieldRequestDate) {
		return DeliverySummary{}
	}

	late := make(map[string]struct{})
	onTime := make(map[string]struct{})
	for i := range ds.Records {
		r := &ds.Records[i]
		ot, _, ok := classify(r)
		if !ok {
			continue
		}
		if ot {
			onTime[r.PONumber] = struct{}{}
		} else {
			late[r.PONumber] = struct{}{}
		}
	}
	// A PO with both late and on-time lines is late.
	for po := range late {
		delete(onTime, po)
	}

	s := DeliverySummary{
		OnTimePOs: len(onTime),
		LatePOs:   len(late),
		TotalPOs:  len(onTime) + len(late),
	}
	if s.TotalPOs == 0 {
		return s
	}
	s.Ready = true
	s.OnTimePct = round2(float64(s.OnTimePOs) / float64(s.TotalPOs) * 100)
	s.LatePct = round2(100 - s.OnTimePct)
	return s
}

// AccountOnTime is one row of the on-time matrix: line-level counts per
// purchase account, unlike the PO-level summary.
type AccountOnTime struct {
	PurchaseAccount string  `json:"purchase_account"`
	OnTime          int     `json:"on_time"`
	Late            int     `json:"late"`
	OnTimePct       float64 `json:"on_time_pct"`
}

// OnTimeByAccount counts on-time and late PO-lines per purchase account.
// Accounts with no classifiable lines are omitted. Sorted by account.
func OnTimeByAccount(ds *model.Dataset) []AccountOnTime {
	if !ds.Has(model.FieldRecDate) || !ds.Has(model.FieldRequestDate) || !ds.Has(model.FieldPurchaseAccount) {
		return nil
	}

	byAccount := make(map[string]*AccountOnTime)
	for i := range ds.Records {
		r := &ds.Records[i]
		ot, _, ok := classify(r)
		if !ok {
			continue
		}
		row := byAccount[r.PurchaseAccount]
		if row == nil {
			row = &AccountOnTime{PurchaseAccount: r.PurchaseAccount}
			byAccount[r.PurchaseAccount] = row
		}
		if ot {
			row.OnTime++
		} else {
			row.Late++
		}
	}

	out := make([]AccountOnTime, 0, len(byAccount))
	for _, row := range byAccount {
		row.OnTimePct = round2(float64(row.OnTime) / float64(row.OnTime+row.Late) * 100)
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PurchaseAccount < out[j].PurchaseAccount
	})
	return out
}

// LateDetail is one late order line with its delay.
type LateDetail struct {
	OrderDate       string  `json:"order_date"`
	RequestDate     string  `json:"request_date"`
	RecDate         string  `json:"rec_date"`
	PONumber        string  `json:"po_number"`
	PurchaseAccount string  `json:"purchase_account"`
	Requisitioner   string  `json:"requisitioner"`
	VendorName      string  `json:"vendor_name"`
	Total           float64 `json:"total"`
	DaysLate        int     `json:"days_late"`
}

// LateOrderDetail lists every late line, worst delay first.
func LateOrderDetail(ds *model.Dataset) []LateDetail {
	if !ds.Has(model.FieldRecDate) || !ds.Has(model.FieldRequestDate) {
		return nil
	}

	var out []LateDetail
	for i := range ds.Records {
		r := &ds.Records[i]
		ot, days, ok := classify(r)
		if !ok || ot {
			continue
		}
		out = append(out, LateDetail{
			OrderDate:       r.OrderDate.Format("2006-01-02"),
			RequestDate:     r.RequestDate.Format("2006-01-02"),
			RecDate:         r.RecDate.Format("2006-01-02"),
			PONumber:        r.PONumber,
			PurchaseAccount: r.PurchaseAccount,
			Requisitioner:   r.Requisitioner,
			VendorName:      r.VendorName,
			Total:           r.Total,
			DaysLate:        days,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DaysLate > out[j].DaysLate
	})
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

package report

import (
	"time"

	"github.com/sells-group/polog/internal/agg"
	"github.com/sells-group/polog/internal/model"
)

// DisplayQtyRemaining is the display name of the remaining-quantity column.
const DisplayQtyRemaining = "Qty On Order/Backordered"

// DefaultTopN is the length of the ranked summary tables.
const DefaultTopN = 10

// Document is the assembled report: scalars plus the typed sections in
// their fixed order. The structure is identical across filter states so a
// rendered document is always comparable to another.
type Document struct {
	Title         string               `json:"title"`
	FilterSummary string               `json:"filter_summary"`
	GeneratedAt   time.Time            `json:"generated_at"`
	KPIs          agg.KPIs             `json:"kpis"`
	Delivery      agg.DeliverySummary  `json:"delivery"`
	Insights      []string             `json:"insights,omitempty"`
	Sections      []model.Section      `json:"sections"`
	Elapsed       time.Duration        `json:"elapsed"`
}

// Build computes every aggregate over the working subset and lays the
// results out as the fixed section list. The subset has already been
// filtered; fs only feeds the header summary and the last-order section.
func Build(ds *model.Dataset, fs model.FilterState, topN int) Document {
	start := time.Now()
	if topN <= 0 {
		topN = DefaultTopN
	}

	delivery := agg.Delivery(ds)
	lateAcct := agg.LateByAccount(ds)
	lateReq := agg.LateByRequisitioner(ds)

	doc := Document{
		Title:         "Purchase Orders Log Report",
		FilterSummary: fs.Summary(),
		GeneratedAt:   time.Now().UTC(),
		KPIs:          agg.ComputeKPIs(ds),
		Delivery:      delivery,
		Insights:      insights(lateAcct, lateReq),
		Sections: []model.Section{
			{ID: model.SectionDeliverySummary, Title: "On-Time Delivery Summary", Table: deliveryTable(delivery)},
			{ID: model.SectionOnTimeByAccount, Title: "On-Time Delivery by Purchase Account", Table: onTimeMatrixTable(agg.OnTimeByAccount(ds))},
			{ID: model.SectionLateByAccount, Title: "Late Orders by Purchase Account", Table: lateGroupTable("Purchase Account", lateAcct)},
			{ID: model.SectionLateByRequisitioner, Title: "Late Orders by Requisitioner", Table: lateGroupTable("Requisitioner", lateReq)},
			{ID: model.SectionLateOrderDetail, Title: "Late Purchase Orders", Table: lateDetailTable(agg.LateOrderDetail(ds))},
			{ID: model.SectionAccountValues, Title: "Order Value by Purchase Account", Table: valueTable("Purchase Account", agg.AccountValues(ds))},
			{ID: model.SectionRequisitionerValues, Title: "Order Value by Requisitioner", Table: valueTable("Requisitioner", agg.RequisitionerValues(ds))},
			{ID: model.SectionTopVendors, Title: "Top Vendors by Open Spend", Table: vendorTable(agg.TopVendorsByOpenSpend(ds, topN))},
			{ID: model.SectionTopItems, Title: "Top Items by Quantity Ordered", Table: itemTable(agg.TopItemsByQty(ds, topN))},
			{ID: model.SectionLastOrder, Title: lastOrderTitle(fs), Table: lastOrderTable(ds, fs)},
		},
	}
	doc.Elapsed = time.Since(start)
	return doc
}

func deliveryTable(d agg.DeliverySummary) model.Table {
	t := model.Table{Columns: []string{"Metric", "Value"}}
	if !d.Ready {
		return t
	}
	t.Rows = [][]string{
		{"On-Time Orders", Count(d.OnTimePOs)},
		{"Late Orders", Count(d.LatePOs)},
		{"Total Orders", Count(d.TotalPOs)},
		{"On-Time %", Percent(d.OnTimePct)},
		{"Late %", Percent(d.LatePct)},
	}
	return t
}

func onTimeMatrixTable(rows []agg.AccountOnTime) model.Table {
	t := model.Table{Columns: []string{"Purchase Account", "On-Time", "Late", "On-Time %"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.PurchaseAccount, itoa(r.OnTime), itoa(r.Late), Percent(r.OnTimePct)})
	}
	return t
}

func lateGroupTable(keyName string, rows []agg.LateGroup) model.Table {
	t := model.Table{Columns: []string{keyName, "Late Orders", "Late Lines", "Avg Days Late", "Max Days Late", "Late Order Value"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Key, itoa(r.LateOrders), itoa(r.LateLines),
			ftoa1(r.AvgDaysLate), itoa(r.MaxDaysLate), Currency(r.LateOrderValue),
		})
	}
	return t
}

func lateDetailTable(rows []agg.LateDetail) model.Table {
	t := model.Table{Columns: []string{
		"Order Date", "Request Date", "Rec Date", "PO Number",
		"Purchase Account", "Requisitioner", "Vendor", "Total Amount", "Days Late",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.OrderDate, r.RequestDate, r.RecDate, r.PONumber,
			r.PurchaseAccount, r.Requisitioner, r.VendorName,
			Currency(r.Total), itoa(r.DaysLate),
		})
	}
	return t
}

func valueTable(keyName string, rows []agg.ValueSummary) model.Table {
	t := model.Table{Columns: []string{
		keyName, "Unique POs", "Order Lines", "Total Value", "Open Amount",
		"Avg Order Value", "Late Orders", "Late Lines", "Avg Days Late",
		"Max Days Late", "Late Order Value",
	}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{
			r.Key, itoa(r.UniquePOs), itoa(r.OrderLines),
			Currency(r.TotalValue), Currency(r.OpenAmount), Currency(r.AvgOrderValue),
			itoa(r.LateOrders), itoa(r.LateLines), ftoa1(r.AvgDaysLate),
			itoa(r.MaxDaysLate), Currency(r.LateOrderValue),
		})
	}
	return t
}

func vendorTable(rows []agg.VendorSpend) model.Table {
	t := model.Table{Columns: []string{"Vendor", "Open Spend"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.VendorName, Currency(r.OpenSpend)})
	}
	return t
}

func itemTable(rows []agg.ItemQty) model.Table {
	t := model.Table{Columns: []string{"Item", "Qty Ordered"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, []string{r.ItemDescription, ftoa(r.QtyOrdered)})
	}
	return t
}

func lastOrderTitle(fs model.FilterState) string {
	if fs.Requisitioner != "" && fs.Requisitioner != model.SelectAll {
		return "Last Order for " + fs.Requisitioner
	}
	return "Last Order"
}

func lastOrderTable(ds *model.Dataset, fs model.FilterState) model.Table {
	t := model.Table{Columns: []string{"Order Date", "PO Number", "Vendor", "Total", "Status"}}
	if fs.Requisitioner == "" || fs.Requisitioner == model.SelectAll {
		return t
	}
	lo := agg.LastOrderFor(ds, fs.Requisitioner)
	if lo == nil {
		return t
	}
	t.Rows = append(t.Rows, []string{lo.OrderDate, lo.PONumber, lo.VendorName, Currency(lo.Total), string(lo.Status)})
	return t
}

// insights produces the headline sentences about the worst late account and
// requisitioner, when the rollups are nonempty.
func insights(lateAcct, lateReq []agg.LateGroup) []string {
	var out []string
	if len(lateAcct) > 0 {
		top := lateAcct[0]
		out = append(out, printer.Sprintf(
			"Purchase Account %s drives %d late orders averaging %.1f days late.",
			top.Key, top.LateOrders, top.AvgDaysLate))
	}
	if len(lateReq) > 0 {
		top := lateReq[0]
		out = append(out, printer.Sprintf(
			"%s has %d late orders with up to %d days delay.",
			top.Key, top.LateOrders, top.MaxDaysLate))
	}
	return out
}

package model

// SectionID is the stable identity of a report section. Section order in the
// assembled document is fixed regardless of filter state.
type SectionID string

const (
	SectionDeliverySummary      SectionID = "delivery_summary"
	SectionOnTimeByAccount      SectionID = "ontime_by_account"
	SectionLateByAccount        SectionID = "late_by_account"
	SectionLateByRequisitioner  SectionID = "late_by_requisitioner"
	SectionLateOrderDetail      SectionID = "late_order_detail"
	SectionAccountValues        SectionID = "account_values"
	SectionRequisitionerValues  SectionID = "requisitioner_values"
	SectionTopVendors           SectionID = "top_vendors"
	SectionTopItems             SectionID = "top_items"
	SectionLastOrder            SectionID = "last_order"
)

// Table is a rendered tabular result: a header row and display values.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the table has no data rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Section is one titled result table of the report.
type Section struct {
	ID    SectionID `json:"id"`
	Title string    `json:"title"`
	Table Table     `json:"table"`
}

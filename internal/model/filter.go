package model

import "time"

// SelectAll is the sentinel selection meaning "do not filter".
const SelectAll = "All"

// FilterState is the full set of user-chosen predicates for one filter pass.
// The UI layer owns defaults and persistence; the core only reads it.
type FilterState struct {
	OrderStart time.Time `json:"order_start"`
	OrderEnd   time.Time `json:"order_end"`

	RequestEnabled bool      `json:"request_enabled"`
	RequestStart   time.Time `json:"request_start,omitempty"`
	RequestEnd     time.Time `json:"request_end,omitempty"`

	PurchaseAccount string     `json:"purchase_account,omitempty"` // "All" or exact match
	Requisitioner   string     `json:"requisitioner,omitempty"`    // "All" or exact match
	Vendors         []string   `json:"vendors,omitempty"`          // empty = all
	Statuses        []POStatus `json:"statuses,omitempty"`         // empty = all

	TotalMin *float64 `json:"total_min,omitempty"`
	TotalMax *float64 `json:"total_max,omitempty"`
}

// Summary renders the order-date range for report headers.
func (f FilterState) Summary() string {
	return f.OrderStart.Format("2006-01-02") + " to " + f.OrderEnd.Format("2006-01-02")
}

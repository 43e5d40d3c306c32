package model

import "time"

// DropReason names a row-level disqualification counted by the ledger.
type DropReason string

const (
	DropMissingOrderDateColumn DropReason = "missing_order_date_column"
	DropMissingOrderDate       DropReason = "missing_order_date"
	DropPriorToCutoff          DropReason = "prior_to_cutoff"
	DropCriticalFieldMissing   DropReason = "critical_field_missing"
	DropDuplicate              DropReason = "duplicate"
	DropInvalidPurchaseAccount DropReason = "invalid_purchase_account"
)

// DropReasons lists all reasons in the order the normalizer applies them.
var DropReasons = []DropReason{
	DropMissingOrderDateColumn,
	DropMissingOrderDate,
	DropPriorToCutoff,
	DropCriticalFieldMissing,
	DropDuplicate,
	DropInvalidPurchaseAccount,
}

// QualityLedger accounts for every row seen by one normalization run.
// It is created fresh per run and immutable once returned.
type QualityLedger struct {
	RunID        string             `json:"run_id"`
	RowsLoaded   int                `json:"rows_loaded"`
	RowsRetained int                `json:"rows_retained"`
	Dropped      map[DropReason]int `json:"dropped"`
	StartedAt    time.Time          `json:"started_at"`
}

// TotalDropped sums all drop counts.
func (l QualityLedger) TotalDropped() int {
	total := 0
	for _, n := range l.Dropped {
		total += n
	}
	return total
}

// Conserved reports whether loaded = retained + dropped, i.e. no row was
// double-counted or lost.
func (l QualityLedger) Conserved() bool {
	return l.RowsLoaded == l.RowsRetained+l.TotalDropped()
}

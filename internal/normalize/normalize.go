// Package normalize merges raw purchase-order tables into the canonical
// dataset, applying the cleaning policy in a fixed order and accounting for
// every dropped row in a quality ledger.
package normalize

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/polog/internal/model"
)

// Canonical column names.
const (
	ColOrderDate       = "OrderDate"
	ColPONumber        = "PONumber"
	ColTotal           = "Total"
	ColAmt             = "Amt"
	ColQtyOrdered      = "QtyOrdered"
	ColQtyRemaining    = "QtyRemaining"
	ColPurchaseAccount = "PurchaseAccount"
	ColRequisitioner   = "Requisitioner"
	ColVendorName      = "VendorName"
	ColPOStatus        = "POStatus"
	ColRequestDate     = "RequestDate"
	ColRecDate         = "RecDate"
	ColItemDescription = "ItemDescription"
)

// DefaultCutoff is the minimum retained order date.
var DefaultCutoff = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)

// Options configures one normalization run.
type Options struct {
	Cutoff  time.Time         // zero value = DefaultCutoff
	Aliases map[string]string // drifted column name -> canonical name; merged over defaults
}

func (o Options) cutoff() time.Time {
	if o.Cutoff.IsZero() {
		return DefaultCutoff
	}
	return o.Cutoff
}

// aliasFor resolves a source header to its canonical column name.
// Matching is case-insensitive on the trimmed header.
func (o Options) aliasFor(header string) string {
	h := strings.TrimSpace(header)
	for from, to := range DefaultAliases {
		if strings.EqualFold(h, from) {
			h = to
		}
	}
	for from, to := range o.Aliases {
		if strings.EqualFold(h, from) {
			h = to
		}
	}
	return h
}

// parsedRow is a row after column reconciliation and date coercion, before
// deduplication and numeric coercion.
type parsedRow struct {
	source string
	cells  map[string]string // canonical column -> raw value
	dates  map[string]*time.Time
}

// Run merges the raw tables into a canonical dataset and returns it together
// with the quality ledger for the run. Given identical inputs the output is
// identical: every step is deterministic and input-order-stable.
func Run(tables []*model.RawTable, opts Options) (*model.Dataset, model.QualityLedger) {
	ledger := model.QualityLedger{
		RunID:     uuid.NewString(),
		Dropped:   make(map[model.DropReason]int),
		StartedAt: time.Now().UTC(),
	}

	// Step 1-3: concatenate, reconcile column names, coerce date columns.
	caps := make(model.Capabilities)
	hasOrderDate := false
	var rows []parsedRow
	for _, t := range tables {
		cols := make([]string, len(t.Header))
		for i, h := range t.Header {
			cols[i] = opts.aliasFor(h)
		}
		for _, c := range cols {
			if c == ColOrderDate {
				hasOrderDate = true
			}
			if f, ok := optionalFields[c]; ok {
				caps[f] = true
			}
		}

		ledger.RowsLoaded += len(t.Rows)
		for _, raw := range t.Rows {
			row := parsedRow{
				source: t.Source,
				cells:  make(map[string]string, len(cols)),
				dates:  make(map[string]*time.Time),
			}
			for i, c := range cols {
				if i >= len(raw) {
					break
				}
				v := strings.TrimSpace(raw[i])
				row.cells[c] = v
				if isDateColumn(c) {
					row.dates[c] = ParseDate(v)
				}
			}
			rows = append(rows, row)
		}
	}

	// Step 4: the order-date column must exist somewhere in the input set.
	if !hasOrderDate {
		ledger.Dropped[model.DropMissingOrderDateColumn] = ledger.RowsLoaded
		zap.L().Warn("normalize: order date column missing, input set rejected",
			zap.String("run_id", ledger.RunID),
			zap.Int("rows_loaded", ledger.RowsLoaded),
		)
		return &model.Dataset{Fields: caps}, ledger
	}

	// Step 5: row-level disqualification, in attribution order.
	cutoff := opts.cutoff()
	seen := make(map[string]struct{})
	var kept []parsedRow
	for _, row := range rows {
		od := row.dates[ColOrderDate]
		switch {
		case od == nil:
			ledger.Dropped[model.DropMissingOrderDate]++
		case od.Before(cutoff):
			ledger.Dropped[model.DropPriorToCutoff]++
		case row.cells[ColPONumber] == "" || row.cells[ColTotal] == "":
			ledger.Dropped[model.DropCriticalFieldMissing]++
		default:
			key := row.dupKey()
			if _, dup := seen[key]; dup {
				ledger.Dropped[model.DropDuplicate]++
				continue
			}
			seen[key] = struct{}{}
			kept = append(kept, row)
		}
	}

	// Steps 6-7: numeric coercion and account formatting.
	records := make([]model.Record, 0, len(kept))
	for _, row := range kept {
		account := ""
		if caps[model.FieldPurchaseAccount] {
			var ok bool
			account, ok = FormatAccount(row.cells[ColPurchaseAccount])
			if !ok {
				ledger.Dropped[model.DropInvalidPurchaseAccount]++
				continue
			}
		}

		rec := model.Record{
			OrderDate:       *row.dates[ColOrderDate],
			PONumber:        row.cells[ColPONumber],
			Total:           toFloat(row.cells[ColTotal]),
			Amt:             toFloat(row.cells[ColAmt]),
			QtyOrdered:      toFloat(row.cells[ColQtyOrdered]),
			QtyRemaining:    toFloat(row.cells[ColQtyRemaining]),
			PurchaseAccount: account,
			Requisitioner:   row.cells[ColRequisitioner],
			VendorName:      row.cells[ColVendorName],
			ItemDescription: row.cells[ColItemDescription],
			RequestDate:     row.dates[ColRequestDate],
			RecDate:         row.dates[ColRecDate],
			SourceName:      row.source,
		}
		if caps[model.FieldPOStatus] {
			rec.POStatus = model.StatusFromCode(row.cells[ColPOStatus])
		}
		records = append(records, rec)
	}

	// Step 8: order by order date ascending, stable on input order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].OrderDate.Before(records[j].OrderDate)
	})

	ledger.RowsRetained = len(records)
	zap.L().Info("normalize: run complete",
		zap.String("run_id", ledger.RunID),
		zap.Int("rows_loaded", ledger.RowsLoaded),
		zap.Int("rows_retained", ledger.RowsRetained),
		zap.Int("rows_dropped", ledger.TotalDropped()),
	)

	return &model.Dataset{Records: records, Fields: caps}, ledger
}

// dupKey builds the exact-duplicate identity of a row: every canonical field
// plus the source tag. Rows from different sources are never duplicates of
// each other.
func (r parsedRow) dupKey() string {
	parts := make([]string, 0, len(canonicalColumns)+1)
	parts = append(parts, r.source)
	for _, c := range canonicalColumns {
		if isDateColumn(c) {
			if d := r.dates[c]; d != nil {
				parts = append(parts, d.Format("2006-01-02"))
			} else {
				parts = append(parts, "")
			}
			continue
		}
		parts = append(parts, r.cells[c])
	}
	return strings.Join(parts, "\x1f")
}

// FormatAccount reduces a raw account value to the canonical NNNN-NNNN form.
// Digits are extracted, zero-padded to 8, and split with a dash. Values with
// fewer than 4 or more than 8 digits cannot be padded unambiguously and are
// invalid.
func FormatAccount(raw string) (string, bool) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) < 4 || len(d) > 8 {
		return "", false
	}
	d = strings.Repeat("0", 8-len(d)) + d
	return d[:4] + "-" + d[4:], true
}

// toFloat coerces a raw numeric value, defaulting to 0 on failure rather
// than dropping the row.
func toFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0
	}
	return f
}

// dateFormats lists accepted source date layouts, most common first. XLSX
// cells come through pre-formatted by the workbook's number format.
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"01-02-06",
	"1/2/06",
}

// ParseDate coerces a raw value to a time-stripped date. Unparseable values
// become nil.
func ParseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	return nil
}

func isDateColumn(name string) bool {
	return strings.Contains(strings.ToLower(name), "date")
}

// optionalFields maps optional canonical columns to their capability flag.
var optionalFields = map[string]model.Field{
	ColPurchaseAccount: model.FieldPurchaseAccount,
	ColAmt:             model.FieldAmt,
	ColQtyOrdered:      model.FieldQtyOrdered,
	ColQtyRemaining:    model.FieldQtyRemaining,
	ColRequisitioner:   model.FieldRequisitioner,
	ColVendorName:      model.FieldVendorName,
	ColItemDescription: model.FieldItemDescription,
	ColPOStatus:        model.FieldPOStatus,
	ColRequestDate:     model.FieldRequestDate,
	ColRecDate:         model.FieldRecDate,
}

// canonicalColumns lists every canonical column in a stable order, used for
// duplicate identity.
var canonicalColumns = []string{
	ColOrderDate, ColPONumber, ColTotal, ColAmt, ColQtyOrdered,
	ColQtyRemaining, ColPurchaseAccount, ColRequisitioner, ColVendorName,
	ColPOStatus, ColRequestDate, ColRecDate, ColItemDescription,
}

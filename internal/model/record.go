// Package model defines the canonical purchase-order dataset and the value
// types shared across the pipeline.
package model

import "time"

// POStatus is the mapped purchase-order status. Raw codes that have no
// mapping pass through unchanged.
type POStatus string

const (
	StatusNew         POStatus = "NEW"
	StatusOpen        POStatus = "OPEN"
	StatusReceived    POStatus = "RECEIVED"
	StatusBackordered POStatus = "BACKORDERED"
)

// statusCodes maps raw source status codes to their canonical status.
var statusCodes = map[string]POStatus{
	"NN": StatusNew,
	"AN": StatusOpen,
	"F":  StatusReceived,
	"BN": StatusBackordered,
}

// StatusFromCode maps a raw status code to its canonical status. Unknown
// codes are kept verbatim.
func StatusFromCode(code string) POStatus {
	if s, ok := statusCodes[code]; ok {
		return s
	}
	return POStatus(code)
}

// Record is one normalized purchase-order line.
type Record struct {
	OrderDate       time.Time  `json:"order_date"`
	PONumber        string     `json:"po_number"`
	Total           float64    `json:"total"`
	Amt             float64    `json:"amt"`
	QtyOrdered      float64    `json:"qty_ordered"`
	QtyRemaining    float64    `json:"qty_remaining"`
	PurchaseAccount string     `json:"purchase_account,omitempty"`
	Requisitioner   string     `json:"requisitioner,omitempty"`
	VendorName      string     `json:"vendor_name,omitempty"`
	ItemDescription string     `json:"item_description,omitempty"`
	POStatus        POStatus   `json:"po_status,omitempty"`
	RequestDate     *time.Time `json:"request_date,omitempty"`
	RecDate         *time.Time `json:"rec_date,omitempty"`
	SourceName      string     `json:"source_name"`
}

// Field identifies an optional canonical column.
type Field string

const (
	FieldPurchaseAccount Field = "purchase_account"
	FieldAmt             Field = "amt"
	FieldQtyOrdered      Field = "qty_ordered"
	FieldQtyRemaining    Field = "qty_remaining"
	FieldRequisitioner   Field = "requisitioner"
	FieldVendorName      Field = "vendor_name"
	FieldItemDescription Field = "item_description"
	FieldPOStatus        Field = "po_status"
	FieldRequestDate     Field = "request_date"
	FieldRecDate         Field = "rec_date"
)

// Capabilities records which optional fields were present in at least one
// source. It is computed once during normalization; downstream consumers
// branch on it instead of probing columns.
type Capabilities map[Field]bool

// Dataset is the canonical dataset produced by normalization. Downstream
// consumers treat it as read-only.
type Dataset struct {
	Records []Record     `json:"records"`
	Fields  Capabilities `json:"fields"`
}

// Has reports whether the optional field was populated for this dataset.
func (d *Dataset) Has(f Field) bool {
	return d != nil && d.Fields[f]
}

// Len returns the line count.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Source is one raw input at the ingestion boundary: a file name and its
// undecoded bytes.
type Source struct {
	Name string
	Data []byte
}

// RawTable is an untyped decoded source table. It exists only between
// decoding and normalization.
type RawTable struct {
	Source string
	Header []string
	Rows   [][]string
}

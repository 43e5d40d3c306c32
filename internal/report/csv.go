package report

import (
	"encoding/csv"
	"io"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/polog/internal/model"
	"github.com/sells-group/polog/internal/normalize"
)

// exportColumns is the header of the dataset export. QtyRemaining carries
// its display name; the reader maps it back on re-ingestion.
var exportColumns = []string{
	normalize.ColOrderDate,
	normalize.ColPONumber,
	normalize.ColTotal,
	normalize.ColAmt,
	normalize.ColQtyOrdered,
	DisplayQtyRemaining,
	normalize.ColPurchaseAccount,
	normalize.ColRequisitioner,
	normalize.ColVendorName,
	normalize.ColPOStatus,
	normalize.ColRequestDate,
	normalize.ColRecDate,
	normalize.ColItemDescription,
}

// ExportCSV writes the dataset as UTF-8 delimited text: a header row, one
// line per record. Dates are ISO; empty optional dates are blank cells.
func ExportCSV(ds *model.Dataset, w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(exportColumns); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}

	for i := range ds.Records {
		r := &ds.Records[i]
		row := []string{
			r.OrderDate.Format("2006-01-02"),
			r.PONumber,
			ftoa(r.Total),
			ftoa(r.Amt),
			ftoa(r.QtyOrdered),
			ftoa(r.QtyRemaining),
			r.PurchaseAccount,
			r.Requisitioner,
			r.VendorName,
			string(r.POStatus),
			dateOrBlank(r.RequestDate),
			dateOrBlank(r.RecDate),
			r.ItemDescription,
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	return nil
}

func dateOrBlank(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

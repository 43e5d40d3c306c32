package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/polog/internal/model"
)

// noDataLine is rendered in place of an empty table so the document keeps
// the same section structure across filter states.
const noDataLine = "No data available for this analysis."

// Render writes the document as markdown: title and filter summary, table
// of contents, KPI bullets, then every section in order. A write failure is
// returned with its cause; no partial result is considered valid.
func Render(doc Document, w io.Writer) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "_%s_\n\n", doc.FilterSummary)

	b.WriteString("## Table of Contents\n\n")
	b.WriteString("1. Key Performance Indicators\n")
	for i, s := range doc.Sections {
		fmt.Fprintf(&b, "%d. %s\n", i+2, s.Title)
	}
	b.WriteString("\n")

	b.WriteString("## Key Performance Indicators\n\n")
	writeKPIs(&b, doc)
	b.WriteString("\n")

	for _, s := range doc.Sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		writeTable(&b, s.Table)
		b.WriteString("\n")
	}

	if len(doc.Insights) > 0 {
		b.WriteString("## Quick Insights\n\n")
		for _, line := range doc.Insights {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "_Generated %s in %.2fs_\n",
		doc.GeneratedAt.Format("2006-01-02 15:04:05 MST"), doc.Elapsed.Seconds())

	if _, err := io.WriteString(w, b.String()); err != nil {
		return eris.Wrap(err, "report: write document")
	}
	return nil
}

func writeKPIs(b *strings.Builder, doc Document) {
	fmt.Fprintf(b, "- **Total Open Orders Amt:** %s\n", Currency(doc.KPIs.OpenOrderAmt))
	fmt.Fprintf(b, "- **Total Orders Placed:** %s\n", Count(doc.KPIs.DistinctPOs))
	fmt.Fprintf(b, "- **Total Lines Ordered:** %s\n", Count(doc.KPIs.Lines))
	if me := doc.KPIs.MostExpensive; me != nil {
		fmt.Fprintf(b, "- **Most Expensive Order:** PO %s, %s, %s, %s\n",
			me.PONumber, me.VendorName, me.Requisitioner, Currency(me.Total))
	} else {
		b.WriteString("- **Most Expensive Order:** N/A\n")
	}
	if doc.Delivery.Ready {
		fmt.Fprintf(b, "- **On-Time Delivery:** %s\n", Percent(doc.Delivery.OnTimePct))
	} else {
		b.WriteString("- **On-Time Delivery:** not ready (no orders with both request and receive dates)\n")
	}
}

func writeTable(b *strings.Builder, t model.Table) {
	if t.Empty() {
		b.WriteString(noDataLine + "\n")
		return
	}

	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	sep := make([]string, len(t.Columns))
	for i := range sep {
		sep[i] = "---"
	}
	b.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range t.Rows {
		cells := make([]string, len(t.Columns))
		for i := range cells {
			if i < len(row) {
				cells[i] = row[i]
			}
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

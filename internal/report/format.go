// Package report assembles the fixed-order report document from computed
// aggregates and handles the delimited-text export of the working subset.
package report

import (
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Currency formats a value as a dollar amount with thousands grouping.
func Currency(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// Percent formats a percentage with two decimals.
func Percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

// Count formats an integer with thousands grouping.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func ftoa1(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) }

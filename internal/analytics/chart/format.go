// Package chart formats aggregates for display: compact axis currency, exact
// tooltip currency and tooltip projections of business/month buckets.
package chart

import (
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.Indonesian)

type magnitude struct {
	threshold float64
	suffix    string
}

var magnitudes = []magnitude{
	{1e3, "rb"},
	{1e6, "jt"},
	{1e9, "M"},
	{1e12, "T"},
}

// FormatCompactCurrency renders value for chart axes, e.g. "Rp 1,5 jt".
func FormatCompactCurrency(value float64) string {
	abs := math.Abs(value)
	tier := -1
	for i, m := range magnitudes {
		if abs >= m.threshold {
			tier = i
		}
	}
	if tier < 0 {
		return "Rp " + strconv.FormatFloat(math.Round(value), 'f', 0, 64)
	}
	scaled := math.Round(value/magnitudes[tier].threshold*10) / 10
	// values just below a threshold can round up to 1000 of the lower suffix
	if math.Abs(scaled) >= 1000 && tier < len(magnitudes)-1 {
		tier++
		scaled = math.Round(value/magnitudes[tier].threshold*10) / 10
	}
	return "Rp " + decimalComma(scaled) + " " + magnitudes[tier].suffix
}

func decimalComma(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	s = strings.TrimSuffix(s, ".0")
	return strings.Replace(s, ".", ",", 1)
}

// FormatCurrency renders the exact rupiah amount with Indonesian digit
// grouping, e.g. "Rp 1.500.000".
func FormatCurrency(value int64) string {
	return printer.Sprintf("Rp %d", value)
}

// FormatPercent renders a contribution percentage with a decimal comma.
func FormatPercent(value float64) string {
	return decimalComma(math.Round(value*10)/10) + "%"
}

// Package sales defines the transaction record model and the sources that load it.
package sales

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"
)

// UnknownLabel is the display label used when a dimension name is absent.
const UnknownLabel = "Tidak Diketahui"

// TransactionRecord is a single normalised sale line. Amounts are whole rupiah.
// A zero Date marks a record whose source date could not be parsed.
type TransactionRecord struct {
	Date            time.Time `json:"date" db:"sale_date"`
	ProductID       string    `json:"productId" db:"product_id"`
	ProductName     string    `json:"productName" db:"product_name"`
	CategoryName    string    `json:"categoryName" db:"category_name"`
	LocationID      string    `json:"locationId" db:"location_id"`
	LocationName    string    `json:"locationName" db:"location_name"`
	LocationAddress string    `json:"locationAddress" db:"location_address"`
	BusinessID      string    `json:"businessId" db:"business_id"`
	BusinessName    string    `json:"businessName" db:"business_name"`
	QuantitySold    int64     `json:"quantitySold" db:"quantity_sold"`
	SaleAmount      int64     `json:"saleAmount" db:"sale_amount"`
	ExpenseAmount   int64     `json:"expenseAmount" db:"expense_amount"`
}

// HasDate reports whether the record carries a usable transaction date.
func (r TransactionRecord) HasDate() bool {
	return !r.Date.IsZero()
}

// FlexibleID accepts identifiers encoded as JSON strings or numbers.
type FlexibleID string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

// RawRecord is the loosely typed shape received from upstream sources.
type RawRecord struct {
	Date            *string    `json:"date"`
	ProductID       FlexibleID `json:"product_id"`
	ProductName     *string    `json:"product_name"`
	CategoryName    *string    `json:"category_name"`
	LocationID      FlexibleID `json:"location_id"`
	LocationName    *string    `json:"location_name"`
	LocationAddress *string    `json:"location_address"`
	BusinessID      FlexibleID `json:"business_id"`
	BusinessName    *string    `json:"business_name"`
	QuantitySold    *float64   `json:"quantity_sold"`
	SaleAmount      *float64   `json:"sale_amount"`
	ExpenseAmount   *float64   `json:"expense_amount"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseDate parses the date formats seen from upstream sources and truncates to
// the calendar day in UTC.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// Normalize converts a raw record into a TransactionRecord. Missing names fall
// back to UnknownLabel, missing or negative amounts to zero and an unparseable
// date to the zero time.
func Normalize(raw RawRecord) TransactionRecord {
	rec := TransactionRecord{
		ProductID:       string(raw.ProductID),
		ProductName:     labelOrUnknown(raw.ProductName),
		CategoryName:    labelOrUnknown(raw.CategoryName),
		LocationID:      string(raw.LocationID),
		LocationName:    labelOrUnknown(raw.LocationName),
		LocationAddress: stringOrEmpty(raw.LocationAddress),
		BusinessID:      string(raw.BusinessID),
		BusinessName:    labelOrUnknown(raw.BusinessName),
		QuantitySold:    wholeAmount(raw.QuantitySold),
		SaleAmount:      wholeAmount(raw.SaleAmount),
		ExpenseAmount:   wholeAmount(raw.ExpenseAmount),
	}
	if raw.Date != nil {
		if d, ok := ParseDate(*raw.Date); ok {
			rec.Date = d
		}
	}
	return rec
}

// NormalizeAll normalises a page of raw records.
func NormalizeAll(raws []RawRecord) []TransactionRecord {
	out := make([]TransactionRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, Normalize(raw))
	}
	return out
}

func labelOrUnknown(v *string) string {
	if v == nil {
		return UnknownLabel
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return UnknownLabel
	}
	return s
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func wholeAmount(v *float64) int64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0
	}
	return int64(math.Round(*v))
}

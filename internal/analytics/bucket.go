package analytics

import (
	"fmt"
	"strings"

	"github.com/umkm-report/umkm-report/internal/sales"
)

// Dimension names a non-time grouping axis.
type Dimension string

const (
	DimensionProduct  Dimension = "product"
	DimensionLocation Dimension = "location"
	DimensionBusiness Dimension = "business"
	DimensionCategory Dimension = "category"
)

// ParseDimension validates a dimension name.
func ParseDimension(value string) (Dimension, error) {
	switch d := Dimension(strings.ToLower(strings.TrimSpace(value))); d {
	case DimensionProduct, DimensionLocation, DimensionBusiness, DimensionCategory:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown dimension %q", ErrInvalidFilter, value)
	}
}

// Bucket is an aggregated group of transaction records.
type Bucket struct {
	Key               string          `json:"key"`
	Label             string          `json:"label"`
	Period            string          `json:"period,omitempty"`
	Month             string          `json:"month,omitempty"`
	Business          string          `json:"business,omitempty"`
	TotalSales        int64           `json:"totalSales"`
	TotalExpense      int64           `json:"totalExpense"`
	TotalQuantitySold int64           `json:"totalQuantitySold"`
	TransactionCount  int             `json:"transactionCount"`
	LocationBreakdown []LocationShare `json:"locationBreakdown,omitempty"`
}

func (b *Bucket) add(rec sales.TransactionRecord) {
	b.TotalSales += rec.SaleAmount
	b.TotalExpense += rec.ExpenseAmount
	b.TotalQuantitySold += rec.QuantitySold
	b.TransactionCount++
}

// LocationShare is one location's slice of a business/month bucket.
type LocationShare struct {
	Key                    string  `json:"key"`
	Label                  string  `json:"label"`
	Address                string  `json:"address,omitempty"`
	TotalSales             int64   `json:"totalSales"`
	TotalExpense           int64   `json:"totalExpense"`
	TotalQuantitySold      int64   `json:"totalQuantitySold"`
	TransactionCount       int     `json:"transactionCount"`
	ContributionPercentage float64 `json:"contributionPercentage"`
}

func (s *LocationShare) add(rec sales.TransactionRecord) {
	s.TotalSales += rec.SaleAmount
	s.TotalExpense += rec.ExpenseAmount
	s.TotalQuantitySold += rec.QuantitySold
	s.TransactionCount++
}

// Summary is the single-level reduction over a record set.
type Summary struct {
	TotalSales        int64   `json:"totalSales"`
	TotalExpense      int64   `json:"totalExpense"`
	TotalQuantitySold int64   `json:"totalQuantitySold"`
	TransactionCount  int     `json:"transactionCount"`
	AverageSale       float64 `json:"averageSale"`
	SkippedRecords    int     `json:"skippedRecords"`
}

// BucketID identifies a business/month bucket.
func BucketID(business, period string) string {
	return business + "|" + period
}

// SplitBucketID reverses BucketID.
func SplitBucketID(id string) (business, period string, ok bool) {
	idx := strings.LastIndex(id, "|")
	if idx < 0 {
		return "", "", false
	}
	return id[:idx], id[idx+1:], true
}

// identity returns the grouping key and display label for a record.
func identity(rec sales.TransactionRecord, dim Dimension) (string, string) {
	switch dim {
	case DimensionProduct:
		return keyed(rec.ProductID, rec.ProductName)
	case DimensionLocation:
		return keyed(rec.LocationID, rec.LocationName)
	case DimensionCategory:
		return keyed("", rec.CategoryName)
	default:
		return keyed("", rec.BusinessName)
	}
}

func keyed(id, name string) (string, string) {
	id = strings.TrimSpace(id)
	name = strings.TrimSpace(name)
	if name == "" {
		name = sales.UnknownLabel
	}
	if id == "" {
		return name, name
	}
	return id, name
}

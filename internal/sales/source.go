package sales

import (
	"context"
	"strings"
	"time"
)

// Granularity selects how much dimension detail a source returns.
type Granularity string

const (
	// GranularityFlat returns records without product and location detail.
	GranularityFlat Granularity = "flat"
	// GranularityPerBusiness returns fully disaggregated records.
	GranularityPerBusiness Granularity = "per-business"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == GranularityFlat || g == GranularityPerBusiness
}

// Query describes the record set requested from a Source. From and To are
// inclusive calendar days.
type Query struct {
	From        time.Time
	To          time.Time
	LocationID  string
	BusinessID  string
	ProductID   string
	Granularity Granularity
}

// CacheKey renders a stable identity for the query.
func (q Query) CacheKey() string {
	g := q.Granularity
	if !g.Valid() {
		g = GranularityFlat
	}
	return strings.Join([]string{
		string(g),
		q.From.Format("2006-01-02"),
		q.To.Format("2006-01-02"),
		token(q.BusinessID),
		token(q.LocationID),
		token(q.ProductID),
	}, ":")
}

// Contains reports whether d falls within the inclusive query range.
func (q Query) Contains(d time.Time) bool {
	if d.IsZero() {
		return false
	}
	if !q.From.IsZero() && d.Before(q.From) {
		return false
	}
	if !q.To.IsZero() && d.After(q.To) {
		return false
	}
	return true
}

// Source loads transaction records for a query.
type Source interface {
	Fetch(ctx context.Context, q Query) ([]TransactionRecord, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, q Query) ([]TransactionRecord, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, q Query) ([]TransactionRecord, error) {
	return f(ctx, q)
}

func token(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "all"
	}
	return v
}

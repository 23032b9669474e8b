package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umkm-report/umkm-report/internal/sales"
)

var (
	// ErrFetchFailed wraps record source failures. It is the only error the
	// pipeline surfaces to users.
	ErrFetchFailed = errors.New("analytics: fetch failed")
	// ErrBucketNotFound is returned when a breakdown is requested for an
	// unknown bucket.
	ErrBucketNotFound = errors.New("analytics: bucket not found")
)

// Service runs the aggregation pipeline for a filter against a record source.
type Service struct {
	source sales.Source
	now    func() time.Time
}

// NewService wires a record source.
func NewService(source sales.Source) *Service {
	return &Service{source: source, now: time.Now}
}

// WithNow overrides the service clock for testing.
func (s *Service) WithNow(fn func() time.Time) {
	if fn != nil {
		s.now = fn
	}
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time {
	return s.now()
}

// SeriesRange returns the record range backing the 12-month axis. Yearly
// filters use the whole window; month and custom ranges are intersected with
// it.
func (f Filter) SeriesRange(now time.Time) (time.Time, time.Time) {
	from, to := f.Window(now).Range()
	if f.PeriodType == PeriodYearly || f.PeriodType == "" {
		return from, to
	}
	fFrom, fTo := f.Range()
	if fFrom.After(from) {
		from = fFrom
	}
	if fTo.Before(to) {
		to = fTo
	}
	return from, to
}

// GetSummary reduces the filter's records to totals.
func (s *Service) GetSummary(ctx context.Context, filter Filter) (Summary, error) {
	from, to := filter.Range()
	recs, err := s.fetch(ctx, filter.Query(from, to, sales.GranularityFlat))
	if err != nil {
		return Summary{}, err
	}
	return ComputeSummary(ClipToRange(recs, from, to)), nil
}

// GetMonthlyBuckets returns the dense month buckets for the filter's window.
func (s *Service) GetMonthlyBuckets(ctx context.Context, filter Filter) ([]Bucket, error) {
	now := s.now()
	from, to := filter.SeriesRange(now)
	recs, err := s.fetch(ctx, filter.Query(from, to, sales.GranularityFlat))
	if err != nil {
		return nil, err
	}
	return GroupByMonth(ClipToRange(recs, from, to), filter.Window(now)), nil
}

// GetMonthlySeries returns the combined total-sales series.
func (s *Service) GetMonthlySeries(ctx context.Context, filter Filter) (SeriesSet, error) {
	months, err := s.GetMonthlyBuckets(ctx, filter)
	if err != nil {
		return SeriesSet{}, err
	}
	return CombinedSeries(months), nil
}

// GetDimensionBreakdown groups the filter's records by dim.
func (s *Service) GetDimensionBreakdown(ctx context.Context, filter Filter, dim Dimension) ([]Bucket, error) {
	granularity := sales.GranularityPerBusiness
	if dim == DimensionBusiness {
		granularity = sales.GranularityFlat
	}
	from, to := filter.Range()
	recs, err := s.fetch(ctx, filter.Query(from, to, granularity))
	if err != nil {
		return nil, err
	}
	return GroupByDimension(ClipToRange(recs, from, to), dim), nil
}

// GetBusinessMonthlyComparison returns (business, month) buckets with their
// location breakdowns across the filter's window.
func (s *Service) GetBusinessMonthlyComparison(ctx context.Context, filter Filter) ([]Bucket, error) {
	from, to := filter.SeriesRange(s.now())
	recs, err := s.fetch(ctx, filter.Query(from, to, sales.GranularityPerBusiness))
	if err != nil {
		return nil, err
	}
	return GroupByBusinessAndMonth(ClipToRange(recs, from, to)), nil
}

// GetBucketBreakdown returns the full location breakdown of one comparison bucket.
func (s *Service) GetBucketBreakdown(ctx context.Context, filter Filter, bucketID string) (Bucket, error) {
	buckets, err := s.GetBusinessMonthlyComparison(ctx, filter)
	if err != nil {
		return Bucket{}, err
	}
	b, ok := FindBucket(buckets, bucketID)
	if !ok {
		return Bucket{}, ErrBucketNotFound
	}
	return b, nil
}

func (s *Service) fetch(ctx context.Context, q sales.Query) ([]sales.TransactionRecord, error) {
	recs, err := s.source.Fetch(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return recs, nil
}

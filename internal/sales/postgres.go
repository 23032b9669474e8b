package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
)

// PostgresSource reads transaction records from the sales_transactions table.
type PostgresSource struct {
	db      pgxscan.Querier
	builder squirrel.StatementBuilderType
}

// NewPostgresSource constructs a source over a pgx pool or transaction.
func NewPostgresSource(db pgxscan.Querier) *PostgresSource {
	return &PostgresSource{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var flatColumns = []string{
	"t.sale_date",
	"COALESCE(b.id::text, '') AS business_id",
	"COALESCE(b.name, '') AS business_name",
	"COALESCE(t.quantity_sold, 0)::bigint AS quantity_sold",
	"COALESCE(t.sale_amount, 0)::bigint AS sale_amount",
	"COALESCE(t.expense_amount, 0)::bigint AS expense_amount",
}

var detailColumns = []string{
	"COALESCE(p.id::text, '') AS product_id",
	"COALESCE(p.name, '') AS product_name",
	"COALESCE(c.name, '') AS category_name",
	"COALESCE(l.id::text, '') AS location_id",
	"COALESCE(l.name, '') AS location_name",
	"COALESCE(l.address, '') AS location_address",
}

// Fetch implements Source.
func (s *PostgresSource) Fetch(ctx context.Context, q Query) ([]TransactionRecord, error) {
	sql, args, err := s.selectQuery(q).ToSql()
	if err != nil {
		return nil, fmt.Errorf("sales: build query: %w", err)
	}
	rows := []TransactionRecord{}
	if err := pgxscan.Select(ctx, s.db, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sales: select transactions: %w", err)
	}
	for i := range rows {
		fillUnknown(&rows[i])
	}
	return rows, nil
}

func (s *PostgresSource) selectQuery(q Query) squirrel.SelectBuilder {
	columns := append([]string{}, flatColumns...)
	if q.Granularity == GranularityPerBusiness {
		columns = append(columns, detailColumns...)
	}
	sb := s.builder.Select(columns...).
		From("sales_transactions t").
		LeftJoin("locations l ON l.id = t.location_id").
		LeftJoin("businesses b ON b.id = l.business_id")
	if q.Granularity == GranularityPerBusiness || q.ProductID != "" {
		sb = sb.LeftJoin("products p ON p.id = t.product_id").
			LeftJoin("categories c ON c.id = p.category_id")
	}
	sb = applyQueryFilters(sb, q)
	return sb.OrderBy("t.sale_date", "t.id")
}

func applyQueryFilters(sb squirrel.SelectBuilder, q Query) squirrel.SelectBuilder {
	if !q.From.IsZero() {
		sb = sb.Where(squirrel.GtOrEq{"t.sale_date": q.From})
	}
	if !q.To.IsZero() {
		sb = sb.Where(squirrel.LtOrEq{"t.sale_date": q.To})
	}
	if q.BusinessID != "" {
		sb = sb.Where(squirrel.Eq{"b.id::text": q.BusinessID})
	}
	if q.LocationID != "" {
		sb = sb.Where(squirrel.Eq{"l.id::text": q.LocationID})
	}
	if q.ProductID != "" {
		sb = sb.Where(squirrel.Eq{"p.id::text": q.ProductID})
	}
	return sb
}

// Businesses lists business identifiers with transactions on or after since.
func (s *PostgresSource) Businesses(ctx context.Context, since time.Time) ([]string, error) {
	sql, args, err := s.builder.Select("DISTINCT l.business_id::text").
		From("sales_transactions t").
		Join("locations l ON l.id = t.location_id").
		Where(squirrel.GtOrEq{"t.sale_date": since}).
		OrderBy("1").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("sales: build business query: %w", err)
	}
	var ids []string
	if err := pgxscan.Select(ctx, s.db, &ids, sql, args...); err != nil {
		return nil, fmt.Errorf("sales: select businesses: %w", err)
	}
	return ids, nil
}

func fillUnknown(rec *TransactionRecord) {
	for _, field := range []*string{&rec.ProductName, &rec.CategoryName, &rec.LocationName, &rec.BusinessName} {
		if *field == "" {
			*field = UnknownLabel
		}
	}
	if !rec.Date.IsZero() {
		y, m, d := rec.Date.Date()
		rec.Date = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
}

package sales

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectQueryFlatOmitsDetailJoins(t *testing.T) {
	src := NewPostgresSource(nil)
	sql, args, err := src.selectQuery(Query{
		From:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
		Granularity: GranularityFlat,
	}).ToSql()
	require.NoError(t, err)
	assert.NotContains(t, sql, "products p")
	assert.NotContains(t, sql, "product_name")
	assert.Contains(t, sql, "t.sale_date >= $1")
	assert.Contains(t, sql, "t.sale_date <= $2")
	assert.Len(t, args, 2)
}

func TestSelectQueryPerBusinessWithFilters(t *testing.T) {
	src := NewPostgresSource(nil)
	sql, args, err := src.selectQuery(Query{
		BusinessID:  "4",
		LocationID:  "9",
		ProductID:   "12",
		Granularity: GranularityPerBusiness,
	}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "LEFT JOIN products p")
	assert.Contains(t, sql, "location_address")
	assert.Equal(t, 1, strings.Count(sql, "LEFT JOIN products p"))
	assert.Equal(t, []interface{}{"4", "9", "12"}, args)
	assert.True(t, strings.HasSuffix(sql, "ORDER BY t.sale_date, t.id"))
}

func TestFillUnknownLabels(t *testing.T) {
	rec := TransactionRecord{BusinessName: "Toko A", Date: time.Date(2024, 5, 1, 13, 0, 0, 0, time.FixedZone("WIB", 7*3600))}
	fillUnknown(&rec)
	assert.Equal(t, UnknownLabel, rec.ProductName)
	assert.Equal(t, UnknownLabel, rec.LocationName)
	assert.Equal(t, "Toko A", rec.BusinessName)
	assert.Equal(t, time.UTC, rec.Date.Location())
}

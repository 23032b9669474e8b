package analytics

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultFilterAndClear(t *testing.T) {
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	store := NewFilterStore(func() time.Time { return now })
	if got := store.Current(); got.Year != 2025 || got.PeriodType != PeriodYearly {
		t.Fatalf("unexpected default filter %#v", got)
	}

	period := PeriodMonthly
	start, end := 2, 4
	business := " 7 "
	f := store.SetFilters(FilterPatch{PeriodType: &period, MonthStart: &start, MonthEnd: &end, BusinessID: &business})
	if f.PeriodType != PeriodMonthly || f.MonthStart != 2 || f.MonthEnd != 4 || f.BusinessID != "7" {
		t.Fatalf("patch not merged: %#v", f)
	}

	year := 2024
	f = store.SetFilters(FilterPatch{Year: &year})
	if f.Year != 2024 || f.MonthStart != 2 || f.BusinessID != "7" {
		t.Fatalf("partial patch lost fields: %#v", f)
	}

	cleared := store.Clear()
	if cleared != DefaultFilter(now) {
		t.Fatalf("expected defaults after clear, got %#v", cleared)
	}
}

func TestFilterValidate(t *testing.T) {
	cases := []struct {
		name   string
		filter Filter
		ok     bool
	}{
		{"default", Filter{PeriodType: PeriodYearly, Year: 2024}, true},
		{"missing period", Filter{Year: 2024}, false},
		{"bad month", Filter{PeriodType: PeriodMonthly, Year: 2024, MonthStart: 13}, false},
		{"reversed months", Filter{PeriodType: PeriodMonthly, Year: 2024, MonthStart: 5, MonthEnd: 2}, false},
		{"custom range", Filter{PeriodType: PeriodCustomRange, Year: 2024, DateRangeStart: "2024-01-01", DateRangeEnd: "2024-02-10"}, true},
		{"custom range missing end", Filter{PeriodType: PeriodCustomRange, Year: 2024, DateRangeStart: "2024-01-01"}, false},
		{"custom range reversed", Filter{PeriodType: PeriodCustomRange, Year: 2024, DateRangeStart: "2024-03-01", DateRangeEnd: "2024-02-10"}, false},
		{"bad date", Filter{PeriodType: PeriodCustomRange, Year: 2024, DateRangeStart: "01/01/2024", DateRangeEnd: "2024-02-10"}, false},
	}
	for _, tc := range cases {
		err := tc.filter.Validate()
		if tc.ok && err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidFilter) {
			t.Fatalf("%s: expected ErrInvalidFilter, got %v", tc.name, err)
		}
	}
}

func TestFilterRange(t *testing.T) {
	from, to := Filter{PeriodType: PeriodYearly, Year: 2024}.Range()
	if !from.Equal(day(2024, 1, 1)) || !to.Equal(day(2024, 12, 31)) {
		t.Fatalf("unexpected yearly range %s..%s", from, to)
	}
	from, to = Filter{PeriodType: PeriodMonthly, Year: 2024, MonthStart: 2, MonthEnd: 2}.Range()
	if !from.Equal(day(2024, 2, 1)) || !to.Equal(day(2024, 2, 29)) {
		t.Fatalf("unexpected monthly range %s..%s", from, to)
	}
	from, to = Filter{PeriodType: PeriodCustomRange, DateRangeStart: "2024-03-05", DateRangeEnd: "2024-04-01"}.Range()
	if !from.Equal(day(2024, 3, 5)) || !to.Equal(day(2024, 4, 1)) {
		t.Fatalf("unexpected custom range %s..%s", from, to)
	}
}

func TestFilterWindow(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name   string
		filter Filter
		start  string
		end    string
	}{
		{"current year trails now", Filter{PeriodType: PeriodYearly, Year: 2025}, "2024-04", "2025-03"},
		{"past year is calendar year", Filter{PeriodType: PeriodYearly, Year: 2023}, "2023-01", "2023-12"},
		{"custom range ends at range end", Filter{PeriodType: PeriodCustomRange, DateRangeStart: "2024-01-01", DateRangeEnd: "2024-08-20"}, "2023-09", "2024-08"},
	}
	for _, tc := range cases {
		w := tc.filter.Window(now)
		if FormatPeriod(w.Start) != tc.start || FormatPeriod(w.End()) != tc.end {
			t.Fatalf("%s: got %s..%s", tc.name, FormatPeriod(w.Start), FormatPeriod(w.End()))
		}
		if len(w.Months()) != WindowMonths {
			t.Fatalf("%s: expected %d months", tc.name, WindowMonths)
		}
	}
}

func TestSeriesRangeIntersectsMonthFilter(t *testing.T) {
	now := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	from, to := Filter{PeriodType: PeriodMonthly, Year: 2025, MonthStart: 1, MonthEnd: 2}.SeriesRange(now)
	if !from.Equal(day(2025, 1, 1)) || !to.Equal(day(2025, 2, 28)) {
		t.Fatalf("unexpected series range %s..%s", from, to)
	}
	from, to = Filter{PeriodType: PeriodYearly, Year: 2025}.SeriesRange(now)
	if !from.Equal(day(2024, 4, 1)) || !to.Equal(day(2025, 3, 31)) {
		t.Fatalf("unexpected yearly series range %s..%s", from, to)
	}
}

func TestParseDimension(t *testing.T) {
	if d, err := ParseDimension(" Product "); err != nil || d != DimensionProduct {
		t.Fatalf("unexpected %v %v", d, err)
	}
	if _, err := ParseDimension("colour"); !errors.Is(err, ErrInvalidFilter) {
		t.Fatalf("expected invalid dimension error, got %v", err)
	}
}

func TestFilterLabel(t *testing.T) {
	cases := []struct {
		filter Filter
		want   string
	}{
		{Filter{PeriodType: PeriodYearly, Year: 2024}, "Tahun 2024"},
		{Filter{PeriodType: PeriodMonthly, Year: 2024, MonthStart: 3, MonthEnd: 5}, "Mar - Mei 2024"},
		{Filter{PeriodType: PeriodMonthly, Year: 2024, MonthStart: 8, MonthEnd: 8}, "Agu 2024"},
		{Filter{PeriodType: PeriodCustomRange, Year: 2024, DateRangeStart: "2024-02-01", DateRangeEnd: "2024-02-15"}, "01/02/2024 s.d. 15/02/2024"},
	}
	for _, tc := range cases {
		if got := tc.filter.Label(); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

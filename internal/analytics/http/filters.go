package analytichttp

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/umkm-report/umkm-report/internal/analytics"
)

type validationError struct {
	field string
}

func (v validationError) Error() string {
	return fmt.Sprintf("invalid %s", v.field)
}

// parseFilter reads the query-string filter on top of the defaults and
// validates the result.
func (h *Handler) parseFilter(r *http.Request) (analytics.Filter, error) {
	q := r.URL.Query()
	var patch analytics.FilterPatch
	if v := strings.TrimSpace(q.Get("period")); v != "" {
		period := analytics.PeriodType(strings.ToLower(v))
		patch.PeriodType = &period
	}
	var err error
	if patch.Year, err = intParam(q, "year"); err != nil {
		return analytics.Filter{}, err
	}
	if patch.MonthStart, err = intParam(q, "month_start"); err != nil {
		return analytics.Filter{}, err
	}
	if patch.MonthEnd, err = intParam(q, "month_end"); err != nil {
		return analytics.Filter{}, err
	}
	patch.DateRangeStart = stringParam(q, "date_start")
	patch.DateRangeEnd = stringParam(q, "date_end")
	patch.LocationID = stringParam(q, "location_id")
	patch.BusinessID = stringParam(q, "business_id")
	patch.ProductID = stringParam(q, "product_id")

	filter := patch.Apply(analytics.DefaultFilter(h.now()))
	if err := filter.Validate(); err != nil {
		return analytics.Filter{}, err
	}
	return filter, nil
}

func intParam(q url.Values, name string) (*int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, validationError{field: name}
	}
	return &v, nil
}

func stringParam(q url.Values, name string) *string {
	if !q.Has(name) {
		return nil
	}
	v := strings.TrimSpace(q.Get(name))
	return &v
}

func topParam(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("top"))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > 1000 {
		return 0, validationError{field: "top"}
	}
	return n, nil
}

// exportFilename builds a download name such as laporan-penjualan-2024.csv.
func exportFilename(f analytics.Filter, ext string) string {
	stem := strconv.Itoa(f.Year)
	switch {
	case f.PeriodType == analytics.PeriodCustomRange:
		stem = f.DateRangeStart + "_" + f.DateRangeEnd
	case f.MonthStart != 0 || f.MonthEnd != 0:
		from, to := f.Range()
		stem = fmt.Sprintf("%d-%02d-%02d", f.Year, int(from.Month()), int(to.Month()))
	}
	return fmt.Sprintf("laporan-penjualan-%s.%s", stem, ext)
}

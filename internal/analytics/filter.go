package analytics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/umkm-report/umkm-report/internal/sales"
)

// PeriodType selects how the reporting period is expressed.
type PeriodType string

const (
	PeriodYearly      PeriodType = "yearly"
	PeriodMonthly     PeriodType = "monthly"
	PeriodCustomRange PeriodType = "custom-range"
)

const dateLayout = "2006-01-02"

// ErrInvalidFilter marks filter values rejected at the request boundary.
var ErrInvalidFilter = errors.New("analytics: invalid filter")

var validate = validator.New()

// Filter is the reporting slice selected by the user.
type Filter struct {
	PeriodType     PeriodType `json:"periodType" validate:"required,oneof=yearly monthly custom-range"`
	Year           int        `json:"year" validate:"required,gte=2000,lte=2100"`
	MonthStart     int        `json:"monthStart,omitempty" validate:"omitempty,min=1,max=12"`
	MonthEnd       int        `json:"monthEnd,omitempty" validate:"omitempty,min=1,max=12"`
	DateRangeStart string     `json:"dateRangeStart,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateRangeEnd   string     `json:"dateRangeEnd,omitempty" validate:"omitempty,datetime=2006-01-02"`
	LocationID     string     `json:"locationId,omitempty" validate:"omitempty,max=64"`
	BusinessID     string     `json:"businessId,omitempty" validate:"omitempty,max=64"`
	ProductID      string     `json:"productId,omitempty" validate:"omitempty,max=64"`
}

// DefaultFilter returns the current year, yearly period and no dimension filters.
func DefaultFilter(now time.Time) Filter {
	return Filter{PeriodType: PeriodYearly, Year: now.Year()}
}

// Validate checks field constraints and the cross-field month and date ranges.
func (f Filter) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s", ErrInvalidFilter, jsonFieldName(verrs[0].Field()))
		}
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	if f.MonthStart != 0 && f.MonthEnd != 0 && f.MonthEnd < f.MonthStart {
		return fmt.Errorf("%w: monthEnd before monthStart", ErrInvalidFilter)
	}
	if f.PeriodType == PeriodCustomRange {
		if f.DateRangeStart == "" || f.DateRangeEnd == "" {
			return fmt.Errorf("%w: custom-range requires dateRangeStart and dateRangeEnd", ErrInvalidFilter)
		}
		start, _ := time.Parse(dateLayout, f.DateRangeStart)
		end, _ := time.Parse(dateLayout, f.DateRangeEnd)
		if end.Before(start) {
			return fmt.Errorf("%w: dateRangeEnd before dateRangeStart", ErrInvalidFilter)
		}
	}
	return nil
}

func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

// Range returns the inclusive calendar-day bounds selected by the filter.
func (f Filter) Range() (time.Time, time.Time) {
	if f.PeriodType == PeriodCustomRange {
		start, okStart := sales.ParseDate(f.DateRangeStart)
		end, okEnd := sales.ParseDate(f.DateRangeEnd)
		if okStart && okEnd {
			return start, end
		}
	}
	startMonth, endMonth := time.January, time.December
	if f.MonthStart != 0 {
		startMonth = time.Month(f.MonthStart)
	}
	if f.MonthEnd != 0 {
		endMonth = time.Month(f.MonthEnd)
	}
	from := time.Date(f.Year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(f.Year, endMonth+1, 0, 0, 0, 0, 0, time.UTC)
	return from, to
}

// Label describes the selected period in Indonesian, e.g. "Tahun 2024",
// "Mar - Mei 2024" or "01/02/2024 s.d. 15/02/2024".
func (f Filter) Label() string {
	from, to := f.Range()
	switch {
	case f.PeriodType == PeriodCustomRange:
		return fmt.Sprintf("%s s.d. %s", from.Format("02/01/2006"), to.Format("02/01/2006"))
	case f.MonthStart == 0 && f.MonthEnd == 0:
		return fmt.Sprintf("Tahun %d", f.Year)
	case from.Month() == to.Month():
		return MonthLabel(from)
	default:
		return fmt.Sprintf("%s - %s", monthShortNames[from.Month()-1], MonthLabel(to))
	}
}

// Window returns the 12-month chart window for the filter relative to now.
func (f Filter) Window(now time.Time) Window {
	now = now.UTC()
	if f.PeriodType == PeriodCustomRange {
		if end, ok := sales.ParseDate(f.DateRangeEnd); ok {
			return WindowEndingAt(end)
		}
	}
	if f.Year == 0 || f.Year == now.Year() {
		return WindowEndingAt(now)
	}
	return WindowEndingAt(time.Date(f.Year, time.December, 1, 0, 0, 0, 0, time.UTC))
}

// Query builds the record query for the filter's dimensions over [from, to].
func (f Filter) Query(from, to time.Time, granularity sales.Granularity) sales.Query {
	return sales.Query{
		From:        from,
		To:          to,
		LocationID:  f.LocationID,
		BusinessID:  f.BusinessID,
		ProductID:   f.ProductID,
		Granularity: granularity,
	}
}

// FilterPatch carries a partial filter update. Nil fields are left untouched;
// an empty string clears a dimension filter.
type FilterPatch struct {
	PeriodType     *PeriodType `json:"periodType,omitempty"`
	Year           *int        `json:"year,omitempty"`
	MonthStart     *int        `json:"monthStart,omitempty"`
	MonthEnd       *int        `json:"monthEnd,omitempty"`
	DateRangeStart *string     `json:"dateRangeStart,omitempty"`
	DateRangeEnd   *string     `json:"dateRangeEnd,omitempty"`
	LocationID     *string     `json:"locationId,omitempty"`
	BusinessID     *string     `json:"businessId,omitempty"`
	ProductID      *string     `json:"productId,omitempty"`
}

// Apply merges the patch into f.
func (p FilterPatch) Apply(f Filter) Filter {
	if p.PeriodType != nil {
		f.PeriodType = *p.PeriodType
	}
	if p.Year != nil {
		f.Year = *p.Year
	}
	if p.MonthStart != nil {
		f.MonthStart = *p.MonthStart
	}
	if p.MonthEnd != nil {
		f.MonthEnd = *p.MonthEnd
	}
	if p.DateRangeStart != nil {
		f.DateRangeStart = strings.TrimSpace(*p.DateRangeStart)
	}
	if p.DateRangeEnd != nil {
		f.DateRangeEnd = strings.TrimSpace(*p.DateRangeEnd)
	}
	if p.LocationID != nil {
		f.LocationID = strings.TrimSpace(*p.LocationID)
	}
	if p.BusinessID != nil {
		f.BusinessID = strings.TrimSpace(*p.BusinessID)
	}
	if p.ProductID != nil {
		f.ProductID = strings.TrimSpace(*p.ProductID)
	}
	return f
}

// FilterStore holds the current filter. It does not fetch and is not safe for
// concurrent use on its own.
type FilterStore struct {
	current Filter
	now     func() time.Time
}

// NewFilterStore constructs a store initialised with DefaultFilter.
func NewFilterStore(now func() time.Time) *FilterStore {
	if now == nil {
		now = time.Now
	}
	return &FilterStore{current: DefaultFilter(now()), now: now}
}

// Current returns a copy of the current filter.
func (s *FilterStore) Current() Filter {
	return s.current
}

// SetFilters merges patch into the current filter and returns the result.
func (s *FilterStore) SetFilters(patch FilterPatch) Filter {
	s.current = patch.Apply(s.current)
	return s.current
}

// Clear resets to the defaults.
func (s *FilterStore) Clear() Filter {
	s.current = DefaultFilter(s.now())
	return s.current
}

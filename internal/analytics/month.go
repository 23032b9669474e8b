package analytics

import (
	"fmt"
	"time"
)

// WindowMonths is the length of the chart time axis.
const WindowMonths = 12

const periodLayout = "2006-01"

var monthShortNames = [...]string{"Jan", "Feb", "Mar", "Apr", "Mei", "Jun", "Jul", "Agu", "Sep", "Okt", "Nov", "Des"}

// MonthLabel renders t as an Indonesian short month and year, e.g. "Agu 2024".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s %d", monthShortNames[t.Month()-1], t.Year())
}

// PeriodLabel converts a "2006-01" period into its display label. Unparseable
// periods are returned unchanged.
func PeriodLabel(period string) string {
	t, err := time.ParseInLocation(periodLayout, period, time.UTC)
	if err != nil {
		return period
	}
	return MonthLabel(t)
}

// FormatPeriod renders the sortable "2006-01" key for t.
func FormatPeriod(t time.Time) string {
	return t.Format(periodLayout)
}

// Window is a run of WindowMonths consecutive months.
type Window struct {
	Start time.Time
}

// WindowEndingAt returns the window whose last month contains end.
func WindowEndingAt(end time.Time) Window {
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Window{Start: last.AddDate(0, -(WindowMonths - 1), 0)}
}

// Months enumerates the first day of each month in the window.
func (w Window) Months() []time.Time {
	return enumerateMonths(w.Start, w.End())
}

// Periods returns the window's "2006-01" keys in ascending order.
func (w Window) Periods() []string {
	months := w.Months()
	periods := make([]string, len(months))
	for i, m := range months {
		periods[i] = FormatPeriod(m)
	}
	return periods
}

// End returns the first day of the window's last month.
func (w Window) End() time.Time {
	return w.Start.AddDate(0, WindowMonths-1, 0)
}

// Range returns the inclusive calendar-day bounds of the window.
func (w Window) Range() (time.Time, time.Time) {
	end := w.End()
	return w.Start, time.Date(end.Year(), end.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}

func enumerateMonths(from, to time.Time) []time.Time {
	if from.After(to) {
		return nil
	}
	var months []time.Time
	current := time.Date(from.Year(), from.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !current.After(end) {
		months = append(months, current)
		current = current.AddDate(0, 1, 0)
	}
	return months
}

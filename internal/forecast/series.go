package forecast

import (
	"time"

	"stockdash/m/domain"
)

const secondsPerDay = 24 * 60 * 60

// DailySeries is a contiguous run of daily totals starting at Start.
type DailySeries struct {
	Start  time.Time
	Values []float64
}

// Len returns the number of days covered.
func (s DailySeries) Len() int { return len(s.Values) }

// End returns the last day of the series.
func (s DailySeries) End() time.Time {
	if len(s.Values) == 0 {
		return s.Start
	}
	return s.Start.AddDate(0, 0, len(s.Values)-1)
}

// Dates returns one entry per day between Start and End inclusive.
func (s DailySeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Values))
	for i := range dates {
		dates[i] = s.Start.AddDate(0, 0, i)
	}
	return dates
}

// BuildDailySeries sums quantity sold per calendar date and fills every
// day between the first and last sale that has no rows with zero.
func BuildDailySeries(sales []domain.Sale) DailySeries {
	if len(sales) == 0 {
		return DailySeries{}
	}

	totals := make(map[time.Time]float64, len(sales))
	first, last := calendarDate(sales[0].Date), calendarDate(sales[0].Date)
	for _, sale := range sales {
		d := calendarDate(sale.Date)
		totals[d] += float64(sale.QuantitySold)
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}

	values := make([]float64, daysBetween(first, last)+1)
	for d, qty := range totals {
		values[daysBetween(first, d)] = qty
	}
	return DailySeries{Start: first, Values: values}
}

// daysBetween counts whole days from a to b, both UTC midnights. It works on
// Unix seconds since time.Duration cannot span more than about 292 years.
func daysBetween(a, b time.Time) int {
	return int(b.Unix()/secondsPerDay - a.Unix()/secondsPerDay)
}

// calendarDate drops the time of day, keeping the wall-clock date.
func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package forecast

import (
	"testing"
	"time"

	"stockdash/m/domain"
)

func sale(id, ts string, qty int64) domain.Sale {
	at, err := time.Parse(domain.TimestampLayout, ts)
	if err != nil {
		panic(err)
	}
	return domain.Sale{Date: at, ID: id, QuantitySold: qty}
}

func TestBuildDailySeries_FillsGaps(t *testing.T) {
	sales := []domain.Sale{
		sale("001", "2025-02-03 09:00:00", 4),
		sale("001", "2025-02-01 09:00:00", 2),
		sale("001", "2025-02-01 17:30:00", 1),
	}

	series := BuildDailySeries(sales)

	want := []float64{3, 0, 4}
	if series.Len() != len(want) {
		t.Fatalf("Expected %d days, got %d", len(want), series.Len())
	}
	for i, v := range want {
		if series.Values[i] != v {
			t.Errorf("day %d: expected %v, got %v", i, v, series.Values[i])
		}
	}

	dates := series.Dates()
	for i := 1; i < len(dates); i++ {
		if gap := dates[i].Sub(dates[i-1]); gap != 24*time.Hour {
			t.Errorf("Expected contiguous days, got gap %v between %v and %v", gap, dates[i-1], dates[i])
		}
	}
	if !series.Start.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected start %v", series.Start)
	}
	if !series.End().Equal(time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected end %v", series.End())
	}
}

func TestBuildDailySeries_SingleDay(t *testing.T) {
	sales := make([]domain.Sale, 10)
	for i := range sales {
		sales[i] = sale("009", "2025-03-01 12:00:00", 0)
	}

	series := BuildDailySeries(sales)
	if series.Len() != 1 || series.Values[0] != 0 {
		t.Fatalf("Expected a single zero day, got %v", series.Values)
	}
}

func TestBuildDailySeries_Empty(t *testing.T) {
	if series := BuildDailySeries(nil); series.Len() != 0 {
		t.Fatalf("Expected empty series, got %v", series.Values)
	}
}

func TestBuildDailySeries_SpanBeyondDurationRange(t *testing.T) {
	sales := []domain.Sale{sale("001", "1500-01-01 10:00:00", 7)}
	for d := 0; d < 10; d++ {
		at := time.Date(2025, 2, 1+d, 9, 0, 0, 0, time.UTC)
		sales = append(sales, domain.Sale{Date: at, ID: "001", QuantitySold: int64(d + 1)})
	}

	series := BuildDailySeries(sales)

	first := time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)
	if !series.Start.Equal(first) || !series.End().Equal(last) {
		t.Fatalf("Expected %v..%v, got %v..%v", first, last, series.Start, series.End())
	}
	nonzero := 0
	for _, v := range series.Values {
		if v != 0 {
			nonzero++
		}
	}
	if nonzero != 11 {
		t.Errorf("Expected 11 nonzero days, got %d", nonzero)
	}
	if got := series.Values[series.Len()-1]; got != 10 {
		t.Errorf("Expected 10 on the last day, got %v", got)
	}
	if dates := series.Dates(); !dates[len(dates)-1].Equal(last) {
		t.Errorf("Expected last date %v, got %v", last, dates[len(dates)-1])
	}
}

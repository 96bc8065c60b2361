package pipeline

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReconcileDifference(t *testing.T) {
	tests := []struct {
		name string
		nav  string
		spot string
		want string
	}{
		{"nav above spot", "93500.00", "90000.00", "3500"},
		{"nav below spot", "88000.00", "90000.50", "-2000.5"},
		{"equal", "90000", "90000", "0"},
		{"fractional exactness", "100.10", "100.00", "0.1"},
		{"no float drift", "0.30", "0.10", "0.2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nav := NavRecord{Value: dec(tt.nav), AsOf: date("2024-03-18"), Source: NavSourceCSV}
			spot := PriceQuote{Value: dec(tt.spot), Currency: "USD"}
			rec := Reconcile(nav, spot, AuxIndexQuote{}, time.Now())
			if !rec.Difference.Equal(dec(tt.want)) {
				t.Errorf("Difference = %s, want %s", rec.Difference, tt.want)
			}
		})
	}
}

func TestReconcileCarriesFields(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 30, 0, 0, time.UTC)
	price := dec("62000.55")
	aux := AuxIndexQuote{Price: &price}

	rec := Reconcile(
		NavRecord{Value: dec("93500"), AsOf: date("2024-03-18"), Source: NavSourceHTML},
		PriceQuote{Value: dec("90000"), Currency: "USD"},
		aux, now,
	)

	if !rec.Timestamp.Equal(now) {
		t.Errorf("Timestamp = %v, want %v", rec.Timestamp, now)
	}
	if !rec.NavDate.Equal(date("2024-03-18")) {
		t.Errorf("NavDate = %v", rec.NavDate)
	}
	if rec.AuxPrice == nil || !rec.AuxPrice.Equal(price) {
		t.Errorf("AuxPrice = %v, want %s", rec.AuxPrice, price)
	}
	if rec.AuxChangeAbs != nil || rec.AuxChangePct != nil {
		t.Error("absent aux fields should stay nil")
	}
}

func TestExceedsInclusiveBoundary(t *testing.T) {
	threshold := dec("3000")
	tests := []struct {
		name string
		diff string
		want bool
	}{
		{"above", "3500", true},
		{"exactly at threshold fires", "3000", true},
		{"just below", "2999.99", false},
		{"negative above", "-3500", true},
		{"negative exactly at threshold fires", "-3000", true},
		{"negative just below", "-2999.99", false},
		{"zero", "0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ComparisonRecord{Difference: dec(tt.diff)}
			if got := rec.Exceeds(threshold); got != tt.want {
				t.Errorf("Exceeds(%s) with diff %s = %v, want %v", threshold, tt.diff, got, tt.want)
			}
		})
	}
}

func TestAuxIndexQuoteEmpty(t *testing.T) {
	if !(AuxIndexQuote{}).Empty() {
		t.Error("zero quote should be empty")
	}
	v := dec("1")
	if (AuxIndexQuote{ChangePct: &v}).Empty() {
		t.Error("quote with one field should not be empty")
	}
}

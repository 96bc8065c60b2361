package sources

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

const auxWidget = `<html><body><ul>
<li>
  <span class="mod-ui-data-list__label">Price (USD)</span>
  <span class="mod-ui-data-list__value">67,195.28</span>
</li>
<li>
  <span class="mod-ui-data-list__label">Today's Change</span>
  <span class="mod-ui-data-list__value">-3,078.00 / -2.63%</span>
</li>
</ul></body></html>`

func TestAuxIndexFullExtraction(t *testing.T) {
	srv := htmlServer(t, auxWidget)

	aux := NewAuxIndex(testFetchClient(), slog.Default(), srv.URL)
	q := aux.FetchQuote(context.Background())

	if q.Price == nil || q.Price.String() != "67195.28" {
		t.Errorf("Price = %v, want 67195.28", q.Price)
	}
	if q.ChangeAbs == nil || q.ChangeAbs.String() != "-3078" {
		t.Errorf("ChangeAbs = %v, want -3078", q.ChangeAbs)
	}
	if q.ChangePct == nil || q.ChangePct.String() != "-2.63" {
		t.Errorf("ChangePct = %v, want -2.63", q.ChangePct)
	}
}

func TestAuxIndexChangeWithoutSlash(t *testing.T) {
	srv := htmlServer(t, `<ul><li>
<span class="mod-ui-data-list__label">Today's Change</span>
<span class="mod-ui-data-list__value">-3,078.00</span>
</li></ul>`)

	aux := NewAuxIndex(testFetchClient(), slog.Default(), srv.URL)
	q := aux.FetchQuote(context.Background())

	if q.ChangeAbs != nil || q.ChangePct != nil {
		t.Errorf("single-part change must yield absent fields, got abs=%v pct=%v", q.ChangeAbs, q.ChangePct)
	}
}

func TestAuxIndexPartialExtraction(t *testing.T) {
	// Only the price label exists; the change fields stay absent without
	// blocking the price.
	srv := htmlServer(t, `<ul><li>
<span class="mod-ui-data-list__label">Price (USD)</span>
<span class="mod-ui-data-list__value">67,195.28</span>
</li></ul>`)

	aux := NewAuxIndex(testFetchClient(), slog.Default(), srv.URL)
	q := aux.FetchQuote(context.Background())

	if q.Price == nil || q.Price.String() != "67195.28" {
		t.Errorf("Price = %v, want 67195.28", q.Price)
	}
	if q.ChangeAbs != nil || q.ChangePct != nil {
		t.Error("change fields should be absent")
	}
}

func TestAuxIndexHalfParseableChange(t *testing.T) {
	srv := htmlServer(t, `<ul><li>
<span class="mod-ui-data-list__label">Today's Change</span>
<span class="mod-ui-data-list__value">n/a / -2.63%</span>
</li></ul>`)

	aux := NewAuxIndex(testFetchClient(), slog.Default(), srv.URL)
	q := aux.FetchQuote(context.Background())

	if q.ChangeAbs != nil {
		t.Errorf("ChangeAbs = %v, want absent", q.ChangeAbs)
	}
	if q.ChangePct != nil {
		t.Errorf("ChangePct = %v, want absent (three-part split)", q.ChangePct)
	}
}

func TestAuxIndexTotalFailureYieldsEmptyQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	aux := NewAuxIndex(testFetchClient(), slog.Default(), srv.URL)
	q := aux.FetchQuote(context.Background())
	if !q.Empty() {
		t.Errorf("quote should be empty on total failure, got %+v", q)
	}
}

func TestParseChange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantAbs string
		wantPct string
	}{
		{"negative pair", "-3,078.00 / -2.63%", "-3078", "-2.63"},
		{"positive pair", "1,200.50 / 1.85%", "1200.5", "1.85"},
		{"no slash", "-3,078.00", "", ""},
		{"too many parts", "1 / 2 / 3", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			abs, pct := parseChange(tt.input)
			if tt.wantAbs == "" {
				if abs != nil {
					t.Errorf("abs = %v, want absent", abs)
				}
			} else if abs == nil || abs.String() != tt.wantAbs {
				t.Errorf("abs = %v, want %s", abs, tt.wantAbs)
			}
			if tt.wantPct == "" {
				if pct != nil {
					t.Errorf("pct = %v, want absent", pct)
				}
			} else if pct == nil || pct.String() != tt.wantPct {
				t.Errorf("pct = %v, want %s", pct, tt.wantPct)
			}
		})
	}
}

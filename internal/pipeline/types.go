package pipeline

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// NAV source kinds, recorded on every NavRecord.
const (
	NavSourceCSV  = "csv_feed"
	NavSourceHTML = "html_table"
)

// PriceQuote is a live spot price observation. Ephemeral, never persisted
// on its own.
type PriceQuote struct {
	Value     decimal.Decimal
	Currency  string
	FetchedAt time.Time
}

// NavRecord is the most recent fund valuation a NAV source could resolve.
// AsOf is a calendar date; two records with the same AsOf describe the same
// valuation.
type NavRecord struct {
	Value  decimal.Decimal
	AsOf   time.Time
	Source string
}

// AuxIndexQuote is the best-effort secondary index reading. Each field is
// independently nullable; a partially filled quote is a valid result.
type AuxIndexQuote struct {
	Price     *decimal.Decimal
	ChangeAbs *decimal.Decimal
	ChangePct *decimal.Decimal
}

// Empty reports whether nothing could be extracted.
func (q AuxIndexQuote) Empty() bool {
	return q.Price == nil && q.ChangeAbs == nil && q.ChangePct == nil
}

// ComparisonRecord is one persisted NAV-vs-spot comparison. Immutable once
// appended to history.
type ComparisonRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	NavDate      time.Time        `json:"nav_date"`
	NavValue     decimal.Decimal  `json:"nav_value"`
	SpotValue    decimal.Decimal  `json:"spot_value"`
	Difference   decimal.Decimal  `json:"difference"`
	AuxPrice     *decimal.Decimal `json:"aux_price,omitempty"`
	AuxChangeAbs *decimal.Decimal `json:"aux_change_abs,omitempty"`
	AuxChangePct *decimal.Decimal `json:"aux_change_pct,omitempty"`
}

// Exceeds is the alert predicate: |difference| >= threshold, inclusive.
func (r ComparisonRecord) Exceeds(threshold decimal.Decimal) bool {
	return r.Difference.Abs().GreaterThanOrEqual(threshold)
}

// SpotSource fetches the mandatory live spot price. An error here is fatal
// for the run.
type SpotSource interface {
	FetchSpot(ctx context.Context) (PriceQuote, error)
}

// NavSource resolves the latest available NAV. ok=false means the source is
// degraded; err then carries the reason for logging. A degraded NAV ends the
// run gracefully without writing history.
type NavSource interface {
	Name() string
	FetchLatest(ctx context.Context) (rec NavRecord, ok bool, err error)
}

// AuxSource extracts the optional secondary index. It never fails the run;
// on total failure it returns an empty quote.
type AuxSource interface {
	FetchQuote(ctx context.Context) AuxIndexQuote
}

package pipeline

import "time"

// Reconcile combines a NAV record and a spot quote into a ComparisonRecord.
// Difference is always NAV minus spot. The NAV is denominated in the fund
// currency (PLN) and the spot in USD; the two are compared numerically
// without conversion, matching the monitored product's behavior.
func Reconcile(nav NavRecord, spot PriceQuote, aux AuxIndexQuote, now time.Time) ComparisonRecord {
	return ComparisonRecord{
		Timestamp:    now,
		NavDate:      nav.AsOf,
		NavValue:     nav.Value,
		SpotValue:    spot.Value,
		Difference:   nav.Value.Sub(spot.Value),
		AuxPrice:     aux.Price,
		AuxChangeAbs: aux.ChangeAbs,
		AuxChangePct: aux.ChangePct,
	}
}

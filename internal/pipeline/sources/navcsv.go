package sources

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/makaron79/monitor-inpzu-btc/internal/fetch"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

// Column name aliases, lowercase. Stooq serves Polish headers depending on
// the request locale.
var (
	dateAliases  = []string{"date", "data"}
	closeAliases = []string{"close", "zamkniecie", "kurs"}
)

// NavCSV resolves the latest NAV from a delimited table with a header row.
// All failures degrade to "unavailable": the caller decides that no NAV
// means no run.
type NavCSV struct {
	client *fetch.Client
	logger *slog.Logger
	url    string
}

func NewNavCSV(client *fetch.Client, logger *slog.Logger, url string) *NavCSV {
	return &NavCSV{client: client, logger: logger, url: url}
}

func (n *NavCSV) Name() string { return "nav_csv" }

func (n *NavCSV) FetchLatest(ctx context.Context) (pipeline.NavRecord, bool, error) {
	body, err := n.client.Get(ctx, n.url)
	if err != nil {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav csv fetch: %w", err)
	}

	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav csv parse: %w", err)
	}
	if len(rows) < 2 {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav csv has no data rows")
	}

	dateIdx := resolveColumn(rows[0], dateAliases)
	closeIdx := resolveColumn(rows[0], closeAliases)
	if dateIdx < 0 || closeIdx < 0 {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav csv columns unresolved (header: %v)", rows[0])
	}

	// Deduplicate by calendar date; the last row for a date wins, and the
	// chronologically latest date is the record we return.
	type entry struct {
		date  time.Time
		value decimal.Decimal
	}
	byDate := make(map[string]entry)
	var latest time.Time
	for _, row := range rows[1:] {
		if len(row) <= dateIdx || len(row) <= closeIdx {
			continue
		}
		date, err := parseDate(row[dateIdx])
		if err != nil {
			n.logger.Debug("nav csv row skipped", "reason", err)
			continue
		}
		value, err := parseNumber(row[closeIdx])
		if err != nil {
			n.logger.Debug("nav csv row skipped", "reason", err)
			continue
		}
		key := date.Format("2006-01-02")
		byDate[key] = entry{date: date, value: value}
		if date.After(latest) {
			latest = date
		}
	}

	if latest.IsZero() {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav csv has no parseable rows")
	}

	e := byDate[latest.Format("2006-01-02")]
	return pipeline.NavRecord{
		Value:  e.value,
		AsOf:   e.date,
		Source: pipeline.NavSourceCSV,
	}, true, nil
}

// resolveColumn matches header names case-insensitively against an alias
// set and returns the first matching column index, or -1.
func resolveColumn(header []string, aliases []string) int {
	for _, alias := range aliases {
		for i, name := range header {
			if strings.EqualFold(strings.TrimSpace(name), alias) {
				return i
			}
		}
	}
	return -1
}

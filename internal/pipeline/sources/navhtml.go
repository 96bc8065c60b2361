package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/makaron79/monitor-inpzu-btc/internal/fetch"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

// NavHTML resolves the latest NAV by scanning every <table> in an HTML
// document. A row qualifies when one cell holds a date-shaped token and
// another a numeric-shaped token; rows dated outside the trailing window
// are rejected so stale tables and false matches cannot produce a NAV.
type NavHTML struct {
	client     *fetch.Client
	logger     *slog.Logger
	url        string
	windowDays int
	now        func() time.Time
}

func NewNavHTML(client *fetch.Client, logger *slog.Logger, url string, windowDays int) *NavHTML {
	return &NavHTML{
		client:     client,
		logger:     logger,
		url:        url,
		windowDays: windowDays,
		now:        time.Now,
	}
}

func (n *NavHTML) Name() string { return "nav_html" }

func (n *NavHTML) FetchLatest(ctx context.Context) (pipeline.NavRecord, bool, error) {
	body, err := n.client.Get(ctx, n.url)
	if err != nil {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav html fetch: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return pipeline.NavRecord{}, false, fmt.Errorf("nav html parse: %w", err)
	}

	today := truncateToDay(n.now())
	oldest := today.AddDate(0, 0, -n.windowDays)

	type entry struct {
		date  time.Time
		value decimal.Decimal
	}
	byDate := make(map[string]entry)
	var latest time.Time

	for _, table := range findAll(doc, func(nd *html.Node) bool { return nd.Data == "table" }) {
		for _, row := range findAll(table, func(nd *html.Node) bool { return nd.Data == "tr" }) {
			date, value, ok := extractRow(row)
			if !ok {
				continue
			}
			if date.Before(oldest) || date.After(today) {
				continue
			}
			byDate[date.Format("2006-01-02")] = entry{date: date, value: value}
			if date.After(latest) {
				latest = date
			}
		}
	}

	if latest.IsZero() {
		return pipeline.NavRecord{}, false, fmt.Errorf("no table row with a date in the last %d days", n.windowDays)
	}

	e := byDate[latest.Format("2006-01-02")]
	return pipeline.NavRecord{
		Value:  e.value,
		AsOf:   e.date,
		Source: pipeline.NavSourceHTML,
	}, true, nil
}

// extractRow scans the cells of a <tr> for a date token and a numeric
// token. The first date-shaped cell and the first numeric cell after it
// are used; a row without both does not qualify.
func extractRow(row *html.Node) (time.Time, decimal.Decimal, bool) {
	cells := findAll(row, func(nd *html.Node) bool { return nd.Data == "td" || nd.Data == "th" })

	dateIdx := -1
	var date time.Time
	for i, cell := range cells {
		txt := textContent(cell)
		if !looksLikeDate(txt) {
			continue
		}
		d, err := parseDate(txt)
		if err != nil {
			continue
		}
		dateIdx = i
		date = d
		break
	}
	if dateIdx < 0 {
		return time.Time{}, decimal.Decimal{}, false
	}

	for _, cell := range cells[dateIdx+1:] {
		txt := textContent(cell)
		// Only a cell that parses as an actual date is skipped; prices like
		// "93500.00" share the rough shape of a date and must stay eligible.
		if _, err := parseDate(txt); err == nil {
			continue
		}
		if v, err := parseNumber(txt); err == nil {
			return date, v, true
		}
	}
	return time.Time{}, decimal.Decimal{}, false
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

package sources

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/makaron79/monitor-inpzu-btc/internal/fetch"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

const (
	auxPriceLabel  = "Price (USD)"
	auxChangeLabel = "Today's Change"
	auxValueClass  = "mod-ui-data-list__value"
)

// AuxIndex scrapes the FT tearsheet widget for the reference index: a
// labeled current price and a labeled daily change formatted as
// "<number> / <percent>%". Everything here is best-effort; the worst
// outcome is an empty quote.
type AuxIndex struct {
	client *fetch.Client
	logger *slog.Logger
	url    string
}

func NewAuxIndex(client *fetch.Client, logger *slog.Logger, url string) *AuxIndex {
	return &AuxIndex{client: client, logger: logger, url: url}
}

func (a *AuxIndex) FetchQuote(ctx context.Context) pipeline.AuxIndexQuote {
	body, err := a.client.Get(ctx, a.url)
	if err != nil {
		a.logger.Warn("aux index fetch failed", "error", err)
		return pipeline.AuxIndexQuote{}
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		a.logger.Warn("aux index html parse failed", "error", err)
		return pipeline.AuxIndexQuote{}
	}

	var quote pipeline.AuxIndexQuote

	if txt, ok := labeledValue(doc, auxPriceLabel); ok {
		if v, err := parseNumber(txt); err == nil {
			quote.Price = &v
		} else {
			a.logger.Warn("aux index price unparseable", "text", txt, "error", err)
		}
	}

	if txt, ok := labeledValue(doc, auxChangeLabel); ok {
		quote.ChangeAbs, quote.ChangePct = parseChange(txt)
		if quote.ChangeAbs == nil && quote.ChangePct == nil {
			a.logger.Warn("aux index change unparseable", "text", txt)
		}
	}

	if quote.Empty() {
		a.logger.Warn("aux index yielded no data", "url", a.url)
	}
	return quote
}

// labeledValue locates a <span> whose text contains label, then reads the
// value span inside the same <li>.
func labeledValue(doc *html.Node, label string) (string, bool) {
	for _, span := range findAll(doc, func(n *html.Node) bool { return n.Data == "span" }) {
		if !strings.Contains(textContent(span), label) {
			continue
		}
		li := closestAncestor(span, "li")
		if li == nil {
			continue
		}
		for _, v := range findAll(li, func(n *html.Node) bool { return n.Data == "span" && hasClass(n, auxValueClass) }) {
			return textContent(v), true
		}
	}
	return "", false
}

// parseChange splits a "today's change" value on "/". Only an exact two-part
// split is considered; each side is parsed independently so one malformed
// half does not discard the other.
func parseChange(txt string) (abs, pct *decimal.Decimal) {
	parts := strings.Split(txt, "/")
	if len(parts) != 2 {
		return nil, nil
	}
	if v, err := parseNumber(parts[0]); err == nil {
		abs = &v
	}
	if v, err := parseNumber(strings.ReplaceAll(parts[1], "%", "")); err == nil {
		pct = &v
	}
	return abs, pct
}

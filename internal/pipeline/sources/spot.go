package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/makaron79/monitor-inpzu-btc/internal/fetch"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

// Spot fetches the live spot price from a CoinGecko-style simple price
// endpoint: { "<asset>": { "<currency>": <number> } }. There is no
// comparison without a live price, so every failure here is fatal for
// the run.
type Spot struct {
	client   *fetch.Client
	url      string
	asset    string
	currency string
}

func NewSpot(client *fetch.Client, url, asset, currency string) *Spot {
	return &Spot{
		client:   client,
		url:      url,
		asset:    asset,
		currency: strings.ToLower(currency),
	}
}

func (s *Spot) FetchSpot(ctx context.Context) (pipeline.PriceQuote, error) {
	body, err := s.client.Get(ctx, s.url)
	if err != nil {
		return pipeline.PriceQuote{}, fmt.Errorf("spot API: %w", err)
	}

	var doc map[string]map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&doc); err != nil {
		return pipeline.PriceQuote{}, fmt.Errorf("decode spot response: %w", err)
	}

	asset, ok := doc[s.asset]
	if !ok {
		return pipeline.PriceQuote{}, fmt.Errorf("spot response missing asset %q", s.asset)
	}
	raw, ok := asset[s.currency]
	if !ok {
		return pipeline.PriceQuote{}, fmt.Errorf("spot response missing currency %q for %q", s.currency, s.asset)
	}

	value, err := decimal.NewFromString(raw.String())
	if err != nil {
		return pipeline.PriceQuote{}, fmt.Errorf("parse spot price %q: %w", raw.String(), err)
	}

	return pipeline.PriceQuote{
		Value:     value,
		Currency:  strings.ToUpper(s.currency),
		FetchedAt: time.Now(),
	}, nil
}

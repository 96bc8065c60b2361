package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/makaron79/monitor-inpzu-btc/internal/metrics"
)

// HistoryAppender persists one comparison per run.
type HistoryAppender interface {
	Append(rec ComparisonRecord) error
}

// Notifier delivers an alert message for a comparison.
type Notifier interface {
	Send(ctx context.Context, rec ComparisonRecord) error
}

// Deduper suppresses repeat alerts. May be nil (dedup disabled).
type Deduper interface {
	AlreadySent(ctx context.Context, key string) bool
	Record(ctx context.Context, key string)
}

// Pipeline runs one synchronous NAV-vs-spot comparison: fetch sources,
// reconcile, append history, and alert when the difference crosses the
// threshold. A run either completes, skips gracefully (NAV unavailable),
// or fails (spot or persistence error).
type Pipeline struct {
	logger    *slog.Logger
	spot      SpotSource
	nav       NavSource
	aux       AuxSource
	history   HistoryAppender
	notifier  Notifier
	dedup     Deduper
	threshold decimal.Decimal
	now       func() time.Time

	mu     sync.RWMutex
	latest *ComparisonRecord
}

func New(logger *slog.Logger, spot SpotSource, nav NavSource, aux AuxSource, history HistoryAppender, notifier Notifier, dedup Deduper, threshold decimal.Decimal) *Pipeline {
	return &Pipeline{
		logger:    logger,
		spot:      spot,
		nav:       nav,
		aux:       aux,
		history:   history,
		notifier:  notifier,
		dedup:     dedup,
		threshold: threshold,
		now:       time.Now,
	}
}

// Latest returns the most recent comparison of this process, or nil before
// the first completed run.
func (p *Pipeline) Latest() *ComparisonRecord {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Run executes a single pass. A nil return means the run either completed
// or skipped gracefully because no NAV was available; a non-nil error means
// nothing was persisted (spot failure) or the comparison was lost
// (persistence failure).
func (p *Pipeline) Run(ctx context.Context) error {
	nav, ok, err := p.nav.FetchLatest(ctx)
	if !ok {
		p.logger.Warn("nav unavailable, skipping run", "source", p.nav.Name(), "reason", err)
		metrics.RunsTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	spot, err := p.spot.FetchSpot(ctx)
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("fetch spot price: %w", err)
	}

	aux := p.aux.FetchQuote(ctx)

	rec := Reconcile(nav, spot, aux, p.now())
	diff, _ := rec.Difference.Float64()
	metrics.Difference.Set(diff)

	p.logger.Info("comparison",
		"nav_date", rec.NavDate.Format("2006-01-02"),
		"nav_value", rec.NavValue.String(),
		"spot_value", rec.SpotValue.String(),
		"difference", rec.Difference.String(),
		"aux_present", !aux.Empty(),
	)

	if err := p.history.Append(rec); err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("append history: %w", err)
	}

	p.mu.Lock()
	p.latest = &rec
	p.mu.Unlock()

	if rec.Exceeds(p.threshold) {
		p.alert(ctx, rec)
	} else {
		p.logger.Info("difference below threshold, no alert",
			"difference", rec.Difference.String(),
			"threshold", p.threshold.String(),
		)
	}

	metrics.RunsTotal.WithLabelValues("ok").Inc()
	metrics.LastRunSuccess.SetToCurrentTime()
	return nil
}

func (p *Pipeline) alert(ctx context.Context, rec ComparisonRecord) {
	key := "alert:" + rec.NavDate.Format("2006-01-02")
	if p.dedup != nil && p.dedup.AlreadySent(ctx, key) {
		p.logger.Info("alert suppressed by dedup", "key", key)
		metrics.AlertsDeduplicatedTotal.Inc()
		return
	}

	// Notification is best-effort: the history row is already written and a
	// delivery failure must not fail the run. The dedup key is recorded only
	// after a successful send so a transient outage cannot suppress the next
	// attempt for this NAV date.
	if err := p.notifier.Send(ctx, rec); err != nil {
		p.logger.Error("alert delivery failed", "error", err)
		metrics.AlertsFailedTotal.Inc()
		return
	}
	if p.dedup != nil {
		p.dedup.Record(ctx, key)
	}
	metrics.AlertsSentTotal.Inc()
	p.logger.Info("alert sent", "difference", rec.Difference.String())
}

// RunLoop runs once immediately and then on every tick until ctx is done.
// Per-run errors are logged, never fatal for the loop.
func (p *Pipeline) RunLoop(ctx context.Context, interval time.Duration) {
	if err := p.Run(ctx); err != nil {
		p.logger.Error("pipeline run failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Run(ctx); err != nil {
				p.logger.Error("pipeline run failed", "error", err)
			}
		}
	}
}

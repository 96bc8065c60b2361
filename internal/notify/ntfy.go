package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/makaron79/monitor-inpzu-btc/internal/fetch"
	"github.com/makaron79/monitor-inpzu-btc/internal/pipeline"
)

// Ntfy posts plain-text alerts to a topic-addressed ntfy endpoint. Delivery
// is best-effort: the caller logs a failure and moves on.
type Ntfy struct {
	client  *fetch.Client
	logger  *slog.Logger
	baseURL string
	topic   string
}

func New(client *fetch.Client, logger *slog.Logger, baseURL, topic string) *Ntfy {
	return &Ntfy{
		client:  client,
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		topic:   strings.TrimSpace(topic),
	}
}

// Send builds the alert text and posts it as raw UTF-8. An empty topic
// disables delivery; the message is logged instead.
func (n *Ntfy) Send(ctx context.Context, rec pipeline.ComparisonRecord) error {
	msg := BuildMessage(rec)
	if n.topic == "" {
		n.logger.Info("ntfy topic not configured, alert not sent", "message", msg)
		return nil
	}

	url := n.baseURL + "/" + n.topic
	if _, err := n.client.Post(ctx, url, "text/plain; charset=utf-8", []byte(msg)); err != nil {
		return fmt.Errorf("ntfy publish: %w", err)
	}
	n.logger.Info("ntfy alert published", "topic", n.topic)
	return nil
}

// BuildMessage renders the human-readable alert body: NAV date and value,
// spot value, the signed difference, and whichever aux index fields were
// extracted this run.
func BuildMessage(rec pipeline.ComparisonRecord) string {
	var b strings.Builder
	b.WriteString("🚨 inPZU vs BTC alert 🚨\n\n")
	fmt.Fprintf(&b, "NAV inPZU (%s): %s PLN\n", rec.NavDate.Format("2006-01-02"), rec.NavValue.StringFixed(4))
	fmt.Fprintf(&b, "BTC now: %s USD\n", rec.SpotValue.StringFixed(4))
	fmt.Fprintf(&b, "Difference: %s", rec.Difference.StringFixed(4))

	if rec.AuxPrice != nil {
		fmt.Fprintf(&b, "\nFT BITCOIN:IOM Price (USD): %s", rec.AuxPrice.StringFixed(2))
	}
	if rec.AuxChangeAbs != nil && rec.AuxChangePct != nil {
		fmt.Fprintf(&b, "\nFT BITCOIN:IOM Today's Change: %s USD / %s%%",
			rec.AuxChangeAbs.StringFixed(2), rec.AuxChangePct.StringFixed(2))
	}
	return b.String()
}

package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var dueReviewsDesc = prometheus.NewDesc(
	namespace+"_due_reviews",
	"Items due for review at scrape time, by ledger.",
	[]string{"ledger"},
	nil,
)

// DueCounter counts items due at an instant across all learners.
type DueCounter interface {
	CountAllDue(ctx context.Context, now time.Time) (int, error)
}

// DueCollector reads due-review counts from the store on each scrape.
// Nothing is scheduled; due-ness is evaluated only when scraped.
type DueCollector struct {
	skills     DueCounter
	vocabulary DueCounter
	now        func() time.Time
	timeout    time.Duration
	logger     *slog.Logger
}

// NewDueCollector creates a collector over the skill and vocabulary stores.
func NewDueCollector(skills, vocabulary DueCounter, logger *slog.Logger) *DueCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &DueCollector{
		skills:     skills,
		vocabulary: vocabulary,
		now:        func() time.Time { return time.Now().UTC() },
		timeout:    5 * time.Second,
		logger:     logger.With(slog.String("component", "due_collector")),
	}
}

// Describe implements prometheus.Collector.
func (c *DueCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- dueReviewsDesc
}

// Collect implements prometheus.Collector.
func (c *DueCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	now := c.now()

	for _, src := range []struct {
		ledger  string
		counter DueCounter
	}{
		{LedgerSkill, c.skills},
		{LedgerVocabulary, c.vocabulary},
	} {
		if src.counter == nil {
			continue
		}
		n, err := src.counter.CountAllDue(ctx, now)
		if err != nil {
			c.logger.Error("failed to collect due reviews",
				slog.String("ledger", src.ledger),
				slog.String("error", err.Error()))
			continue
		}
		ch <- prometheus.MustNewConstMetric(dueReviewsDesc, prometheus.GaugeValue, float64(n), src.ledger)
	}
}

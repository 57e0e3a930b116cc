package sql

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

const AttemptsByOutcomeQuery = `SELECT outcome, COUNT(*) FROM ledger.attempts GROUP BY outcome`

// AttemptsByOutcomeCollector reports verification attempt counts per outcome.
type AttemptsByOutcomeCollector struct {
	db       *sql.DB
	attempts *prometheus.Desc
}

func NewAttemptsByOutcomeCollector(db *sql.DB) *AttemptsByOutcomeCollector {
	return &AttemptsByOutcomeCollector{
		db: db,
		attempts: prometheus.NewDesc(
			prometheus.BuildFQName("vicore", "verification", "attempts_total"),
			"Number of verification attempts by outcome",
			[]string{"outcome"},
			prometheus.Labels{"source": "postgres"},
		),
	}
}

func (c *AttemptsByOutcomeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.attempts
}

func (c *AttemptsByOutcomeCollector) Collect(ch chan<- prometheus.Metric) {
	rows, err := c.db.Query(AttemptsByOutcomeQuery)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.attempts, err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			ch <- prometheus.NewInvalidMetric(c.attempts, err)
			return
		}
		ch <- prometheus.MustNewConstMetric(c.attempts, prometheus.CounterValue, float64(count), outcome)
	}
	if err := rows.Err(); err != nil {
		ch <- prometheus.NewInvalidMetric(c.attempts, err)
	}
}

func init() {
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewAttemptsByOutcomeCollector(db), nil
	})
}

package sql

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

const VotesTotalQuery = `SELECT COUNT(*) FROM ledger.blocks WHERE id > 0`

// VotesTotalCollector reports the number of ballots on the chain, genesis
// excluded.
type VotesTotalCollector struct {
	db         *sql.DB
	votesTotal *prometheus.Desc
}

func NewVotesTotalCollector(db *sql.DB) *VotesTotalCollector {
	return &VotesTotalCollector{
		db: db,
		votesTotal: prometheus.NewDesc(
			prometheus.BuildFQName("vicore", "ledger", "votes_total"),
			"Total ballots recorded on the vote ledger",
			nil,
			prometheus.Labels{"source": "postgres"},
		),
	}
}

func (c *VotesTotalCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.votesTotal
}

func (c *VotesTotalCollector) Collect(ch chan<- prometheus.Metric) {
	var count int64
	err := c.db.QueryRow(VotesTotalQuery).Scan(&count)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.votesTotal, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.votesTotal, prometheus.CounterValue, float64(count))
}

func init() {
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewVotesTotalCollector(db), nil
	})
}

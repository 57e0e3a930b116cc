package sql

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

const ChainHeightQuery = `SELECT COALESCE(MAX(id) + 1, 0) FROM ledger.blocks`

// ChainHeightCollector reports the chain height, genesis included.
type ChainHeightCollector struct {
	db          *sql.DB
	chainHeight *prometheus.Desc
}

func NewChainHeightCollector(db *sql.DB) *ChainHeightCollector {
	return &ChainHeightCollector{
		db: db,
		chainHeight: prometheus.NewDesc(
			prometheus.BuildFQName("vicore", "ledger", "chain_height"),
			"Number of blocks on the vote ledger",
			nil,
			prometheus.Labels{"source": "postgres"},
		),
	}
}

func (c *ChainHeightCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.chainHeight
}

func (c *ChainHeightCollector) Collect(ch chan<- prometheus.Metric) {
	var height int64
	err := c.db.QueryRow(ChainHeightQuery).Scan(&height)
	if err != nil {
		ch <- prometheus.NewInvalidMetric(c.chainHeight, err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.chainHeight, prometheus.GaugeValue, float64(height))
}

func init() {
	RegisterCollectorFactory(func(db *sql.DB) (prometheus.Collector, error) {
		return NewChainHeightCollector(db), nil
	})
}

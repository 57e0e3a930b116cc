// Package collectors holds Prometheus collectors that read a live ledger
// service. Embedders register them into their own registry.
package collectors

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ChainSource is the ledger view the collector scrapes. The ledger service
// satisfies it.
type ChainSource interface {
	Height() uint64
	Halted() bool
}

// LedgerStatsCollector exposes chain height, recorded votes and the halted
// flag from an in-process ledger.
type LedgerStatsCollector struct {
	source      ChainSource
	chainHeight *prometheus.Desc
	votesTotal  *prometheus.Desc
	halted      *prometheus.Desc
}

func NewLedgerStatsCollector(source ChainSource) *LedgerStatsCollector {
	return &LedgerStatsCollector{
		source: source,
		chainHeight: prometheus.NewDesc(
			prometheus.BuildFQName("vicore", "ledger", "chain_height"),
			"Number of blocks on the vote ledger",
			nil,
			prometheus.Labels{"source": "memory"},
		),
		votesTotal: prometheus.NewDesc(
			prometheus.BuildFQName("vicore", "ledger", "votes_total"),
			"Number of votes recorded on the ledger",
			nil,
			prometheus.Labels{"source": "memory"},
		),
		halted: prometheus.NewDesc(
			prometheus.BuildFQName("vicore", "ledger", "halted"),
			"Whether the ledger refuses writes after an integrity failure",
			nil,
			nil,
		),
	}
}

func (c *LedgerStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.chainHeight
	ch <- c.votesTotal
	ch <- c.halted
}

func (c *LedgerStatsCollector) Collect(ch chan<- prometheus.Metric) {
	height := c.source.Height()

	votes := uint64(0)
	if height > 0 {
		votes = height - 1
	}

	haltedValue := 0.0
	if c.source.Halted() {
		haltedValue = 1.0
	}

	ch <- prometheus.MustNewConstMetric(c.chainHeight, prometheus.GaugeValue, float64(height))
	ch <- prometheus.MustNewConstMetric(c.votesTotal, prometheus.GaugeValue, float64(votes))
	ch <- prometheus.MustNewConstMetric(c.halted, prometheus.GaugeValue, haltedValue)
}

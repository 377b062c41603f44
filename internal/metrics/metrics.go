// Package metrics exposes Prometheus counters and gauges for the exchange.
// Nothing in this package wires up an HTTP exporter — transport is out of
// scope — a caller embedding the exchange registers Collector with its own
// registry/exporter.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector groups every counter/gauge the exchange updates.
type Collector struct {
	BetsPlaced    *prometheus.CounterVec
	BetsMatched   prometheus.Counter
	BetsCancelled prometheus.Counter
	BetsSettled   prometheus.Counter
	BookDepth     *prometheus.GaugeVec
}

// NewCollector builds a Collector with its metrics registered under ns.
func NewCollector(ns string) *Collector {
	c := &Collector{
		BetsPlaced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bets_placed_total",
			Help:      "Number of bets placed, labelled by back/lay.",
		}, []string{"type"}),
		BetsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bets_matched_total",
			Help:      "Number of matching events produced by the matching algorithm.",
		}),
		BetsCancelled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bets_cancelled_total",
			Help:      "Number of bet cancellations, user- or market-initiated.",
		}),
		BetsSettled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "bets_settled_total",
			Help:      "Number of bets resolved at market settlement, whether or not they were paid out.",
		}),
		BookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "book_depth",
			Help:      "Resting bet count per market and side.",
		}, []string{"market", "side"}),
	}
	return c
}

// Register adds every metric in c to reg.
func (c *Collector) Register(reg *prometheus.Registry) {
	reg.MustRegister(c.BetsPlaced, c.BetsMatched, c.BetsCancelled, c.BetsSettled, c.BookDepth)
}

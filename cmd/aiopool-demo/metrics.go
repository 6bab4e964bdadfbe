package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainlens/aiopool/pool"
)

// poolCollector exposes a Pool's Stats() snapshot as Prometheus gauges
// (concurrency, queue depth) and counters (completed, failed jobs),
// scraped on demand rather than updated eagerly — grounded on the pattern
// in ChuLiYu-raft-recovery/internal/metrics/metrics.go, adapted from
// eagerly-updated counters to a pull-based Collector since Pool.Stats()
// is already a cheap, consistent snapshot.
type poolCollector struct {
	p *pool.Pool[int]

	maxConcurrency *prometheus.Desc
	queuedJobs     *prometheus.Desc
	completedJobs  *prometheus.Desc
	failedJobs     *prometheus.Desc
}

func newPoolCollector(p *pool.Pool[int]) *poolCollector {
	return &poolCollector{
		p:              p,
		maxConcurrency: prometheus.NewDesc("aiopool_max_concurrency", "Configured worker count", nil, nil),
		queuedJobs:     prometheus.NewDesc("aiopool_queued_jobs", "Jobs currently staged in the queue", nil, nil),
		completedJobs:  prometheus.NewDesc("aiopool_completed_jobs_total", "Jobs completed successfully", nil, nil),
		failedJobs:     prometheus.NewDesc("aiopool_failed_jobs_total", "Jobs completed with an error", nil, nil),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.maxConcurrency
	ch <- c.queuedJobs
	ch <- c.completedJobs
	ch <- c.failedJobs
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.p.Stats()
	ch <- prometheus.MustNewConstMetric(c.maxConcurrency, prometheus.GaugeValue, float64(stats.MaxConcurrency))
	ch <- prometheus.MustNewConstMetric(c.queuedJobs, prometheus.GaugeValue, float64(stats.QueuedJobs))
	ch <- prometheus.MustNewConstMetric(c.completedJobs, prometheus.CounterValue, float64(stats.CompletedJobs))
	ch <- prometheus.MustNewConstMetric(c.failedJobs, prometheus.CounterValue, float64(stats.FailedJobs))
}

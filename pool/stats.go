package pool

// Stats is a point-in-time snapshot of pool activity, intended for
// observability surfaces (see cmd/aiopool-demo's /stats endpoint and
// Prometheus collector) — not for synchronization.
type Stats struct {
	MaxConcurrency int
	QueuedJobs     int
	CompletedJobs  uint64
	FailedJobs     uint64
	Closed         bool
}

// Stats returns a snapshot of the pool's current activity.
func (p *Pool[T]) Stats() Stats {
	return Stats{
		MaxConcurrency: p.cfg.MaxConcurrency,
		QueuedJobs:     len(p.jobs),
		CompletedJobs:  p.completed.Load(),
		FailedJobs:     p.failed.Load(),
		Closed:         p.closed.Load(),
	}
}

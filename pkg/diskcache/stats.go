package diskcache

import "sync/atomic"

// Stats is a snapshot of operation counters since open or the last
// [Cache.ResetStats].
type Stats struct {
	Hits    uint64
	Misses  uint64
	Puts    uint64
	Deletes uint64
}

// HitRatio returns hits as a percentage (0-100) of all lookups.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total) * 100
}

type counters struct {
	hits    atomic.Uint64
	misses  atomic.Uint64
	puts    atomic.Uint64
	deletes atomic.Uint64
}

// Stats returns the current counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.stats.hits.Load(),
		Misses:  c.stats.misses.Load(),
		Puts:    c.stats.puts.Load(),
		Deletes: c.stats.deletes.Load(),
	}
}

// ResetStats zeroes the counters.
func (c *Cache) ResetStats() {
	c.stats.hits.Store(0)
	c.stats.misses.Store(0)
	c.stats.puts.Store(0)
	c.stats.deletes.Store(0)
}

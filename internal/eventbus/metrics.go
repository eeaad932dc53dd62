package eventbus

import "sync"

// Collector aggregates per-type event counts for the stats endpoint.
type Collector struct {
	mu     sync.Mutex
	counts map[EventType]int64
}

// NewCollector creates an empty collector
func NewCollector() *Collector {
	return &Collector{
		counts: make(map[EventType]int64),
	}
}

// Attach subscribes the collector to every event on the bus and returns the
// subscription id.
func (c *Collector) Attach(bus Bus) string {
	return bus.SubscribeAll(c.record)
}

func (c *Collector) record(event *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[event.Type]++
}

// Counts returns a copy of the aggregated counters
func (c *Collector) Counts() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]int64, len(c.counts))
	for eventType, count := range c.counts {
		out[string(eventType)] = count
	}
	return out
}

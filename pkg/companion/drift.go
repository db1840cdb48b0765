package companion

import (
	"context"
	"log"
	"time"
)

// RunDriftLoop applies drift to every loaded companion on each tick, using the
// wall-clock hours since that companion last drifted. It returns when ctx ends.
func (r *Registry) RunDriftLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.DriftAll()
		}
	}
}

// DriftAll applies one elapsed-time drift tick to every loaded companion.
func (r *Registry) DriftAll() {
	drifted := 0
	for _, identity := range r.Identities() {
		e, err := r.acquire(identity)
		if err != nil {
			return
		}
		hours := r.now().Sub(e.lastDrift).Hours()
		if hours > 0 {
			r.drift(identity, e, hours)
			drifted++
		}
		e.mu.Unlock()
	}

	if drifted > 0 {
		log.Printf("[Drift] Applied drift to %d companions", drifted)
	}
}

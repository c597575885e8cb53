package ai

import (
	"context"
	"log"
	"sync"
	"time"
)

//
// MODEL AVAILABILITY TRACKING
//

// healthProbeInterval memoizes the probe result so an unreachable model
// runtime is hit at most once per window instead of once per request.
const healthProbeInterval = 5 * time.Minute

// HealthTracker gates AI calls behind a cached availability probe: a model
// listing followed by a 1-token generation test.
type HealthTracker struct {
	client *GeminiClient

	mu        sync.Mutex
	available bool
	checkedAt time.Time
	interval  time.Duration
}

func NewHealthTracker(client *GeminiClient) *HealthTracker {
	return &HealthTracker{
		client:   client,
		interval: healthProbeInterval,
	}
}

// Available reports whether the model runtime answered its last probe,
// re-probing when the cached result has aged out.
func (h *HealthTracker) Available() bool {
	if h == nil || h.client == nil {
		return false
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if time.Since(h.checkedAt) < h.interval {
		return h.available
	}

	h.available = h.probe()
	h.checkedAt = time.Now()
	return h.available
}

func (h *HealthTracker) probe() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	models, err := h.client.ListModels(ctx)
	cancel()
	if err != nil || len(models) == 0 {
		log.Printf("[AI] model runtime unavailable (list models): %v", err)
		return false
	}

	ctx, cancel = context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if err := h.client.GenerateProbe(ctx); err != nil {
		log.Printf("[AI] model runtime unavailable (generation test): %v", err)
		return false
	}

	return true
}

package analyzer

import (
	"sync"
	"time"

	"linktrust/trust"
)

//
// INCREMENTAL UPDATE DELIVERY
//

// Update is one refined verdict for one original batch position.
type Update struct {
	Index   int                `json:"index"`
	Verdict trust.TrustVerdict `json:"verdict"`
}

// batchMaxAge drops batches whose caller never polls at all; the poll
// budget alone only fires when polling happens.
const batchMaxAge = 10 * time.Minute

// updateRegistry buffers refinements per batch until the caller polls them.
// A batch is dropped once every expected update was delivered, the caller
// has exhausted its poll budget, or the batch outlives batchMaxAge.
type updateRegistry struct {
	mu       sync.Mutex
	batches  map[string]*batchUpdates
	maxPolls int
	maxAge   time.Duration
	now      func() time.Time
}

type batchUpdates struct {
	pending   []Update
	expecting int
	polls     int
	createdAt time.Time
}

func newUpdateRegistry(maxPolls int) *updateRegistry {
	return &updateRegistry{
		batches:  map[string]*batchUpdates{},
		maxPolls: maxPolls,
		maxAge:   batchMaxAge,
		now:      time.Now,
	}
}

// Expect registers how many refinements a batch will eventually produce.
func (r *updateRegistry) Expect(batchID string, n int) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeExpired()
	r.batches[batchID] = &batchUpdates{expecting: n, createdAt: r.now()}
}

// Record buffers refined verdicts for later polling. Unknown batch IDs are
// dropped silently; the caller stopped listening.
func (r *updateRegistry) Record(batchID string, updates ...Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeExpired()
	b, ok := r.batches[batchID]
	if !ok {
		return
	}
	b.pending = append(b.pending, updates...)
	b.expecting -= len(updates)
}

// Drain returns and clears the pending updates for a batch. done reports
// that no further updates will come, either because all arrived or because
// the poll budget ran out.
func (r *updateRegistry) Drain(batchID string) (updates []Update, done bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.purgeExpired()

	b, ok := r.batches[batchID]
	if !ok {
		return nil, true
	}

	updates = b.pending
	b.pending = nil
	b.polls++

	if b.expecting <= 0 || b.polls >= r.maxPolls {
		delete(r.batches, batchID)
		return updates, true
	}
	return updates, false
}

// purgeExpired drops abandoned batches. Callers hold r.mu.
func (r *updateRegistry) purgeExpired() {
	cutoff := r.now().Add(-r.maxAge)
	for id, b := range r.batches {
		if b.createdAt.Before(cutoff) {
			delete(r.batches, id)
		}
	}
}

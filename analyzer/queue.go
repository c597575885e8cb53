package analyzer

import (
	"sync"

	"linktrust/trust"
)

//
// SEQUENTIAL AI WORK QUEUE
//

// aiJob is one unit of AI refinement work: a deduplicated URL plus every
// batch position that shares it.
type aiJob struct {
	batchID   string
	url       string // normalized
	linkText  string
	indices   []int
	verdict   *trust.TrustVerdict
	input     judgeInput
	heurScore float64
}

type judgeInput struct {
	rawURL        string
	sourceDomain  string
	sourceContext string
	issues        []trust.IssueTag
}

// workQueue is an ordered list drained by a single consumer. Jobs run one
// at a time: parallel model calls were found to cross-contaminate outputs.
// Promote moves a URL's job to the front when the user is about to click it.
type workQueue struct {
	mu     sync.Mutex
	items  []*aiJob
	wake   chan struct{}
	closed bool
}

func newWorkQueue() *workQueue {
	return &workQueue{wake: make(chan struct{}, 1)}
}

func (q *workQueue) Push(jobs ...*aiJob) {
	q.mu.Lock()
	q.items = append(q.items, jobs...)
	q.mu.Unlock()
	q.signal()
}

// Promote moves the job for the given normalized URL to the front.
func (q *workQueue) Promote(url string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, job := range q.items {
		if job.url == url && i > 0 {
			q.items = append(q.items[:i], q.items[i+1:]...)
			q.items = append([]*aiJob{job}, q.items...)
			return
		}
	}
}

// Pop blocks until a job is available or the queue is closed.
func (q *workQueue) Pop() (*aiJob, bool) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			job := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			return job, true
		}
		closed := q.closed
		q.mu.Unlock()
		if closed {
			return nil, false
		}
		<-q.wake
	}
}

func (q *workQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *workQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *workQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

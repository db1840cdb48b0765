package companion

import "sync"

// jobQueue is one identity's pending persistence work. push never blocks,
// so callers may hold the entry lock while queueing.
//
// When the queue is at capacity, pending saves are dropped in favor of the
// incoming one: each save carries the full state, so the newest supersedes
// them. Memory appends and deletes are never dropped.
type jobQueue struct {
	mu       sync.Mutex
	jobs     []persistJob
	capacity int
	closed   bool
	wake     chan struct{}
}

func newJobQueue(capacity int) *jobQueue {
	return &jobQueue{
		capacity: capacity,
		wake:     make(chan struct{}, 1),
	}
}

// push appends job and reports how many superseded saves were dropped.
// Pushing to a closed queue is a no-op.
func (q *jobQueue) push(job persistJob) (dropped int) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return 0
	}
	if job.op == opSave && len(q.jobs) >= q.capacity {
		kept := q.jobs[:0]
		for _, j := range q.jobs {
			if j.op == opSave {
				dropped++
				continue
			}
			kept = append(kept, j)
		}
		clear(q.jobs[len(kept):])
		q.jobs = kept
	}
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	q.signal()
	return dropped
}

// pop returns the oldest job. done is true once the queue is closed and empty.
func (q *jobQueue) pop() (job persistJob, ok bool, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.jobs) > 0 {
		job = q.jobs[0]
		q.jobs[0] = persistJob{}
		q.jobs = q.jobs[1:]
		return job, true, false
	}
	return persistJob{}, false, q.closed
}

func (q *jobQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

func (q *jobQueue) close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()
}

func (q *jobQueue) isClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

func (q *jobQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

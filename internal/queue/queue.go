package queue

import (
	"sync"
)

// Queue is a thread-safe work queue of company slugs. A slug is accepted at
// most once, whether it is still pending or already handed out.
type Queue struct {
	slugs []string
	seen  map[string]bool
	taken int
	mu    sync.Mutex
}

// New creates a Queue holding the given slugs in order.
func New(slugs ...string) *Queue {
	q := &Queue{
		slugs: make([]string, 0, len(slugs)),
		seen:  make(map[string]bool, len(slugs)),
	}
	for _, s := range slugs {
		q.Add(s)
	}
	return q
}

// Add appends a slug unless it was queued before
func (q *Queue) Add(slug string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if slug == "" || q.seen[slug] {
		return false
	}

	q.seen[slug] = true
	q.slugs = append(q.slugs, slug)
	return true
}

// Next returns the next slug to process
func (q *Queue) Next() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.slugs) == 0 {
		return "", false
	}

	slug := q.slugs[0]
	q.slugs = q.slugs[1:]
	q.taken++

	return slug, true
}

// Len returns the number of pending slugs
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.slugs)
}

// Taken returns how many slugs have been handed out
func (q *Queue) Taken() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.taken
}

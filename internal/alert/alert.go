package alert

import (
	"context"
	"sync"
)

// Options describes a single user-facing alert.
type Options struct {
	Title       string
	Description string
	Traceback   string // optional technical detail
}

// ID identifies one queued alert. IDs increase in queue order.
type ID uint64

// Shown is the alert at the head of the queue.
type Shown struct {
	ID ID
	Options
}

type pending struct {
	id   ID
	opts Options
	done chan struct{}
}

// Service is a process-wide alert queue. Only the head of the queue is
// visible; alerts opened while another one is showing wait their turn.
type Service struct {
	mu      sync.Mutex
	nextID  ID
	queue   []*pending
	changes chan struct{}
}

// NewService creates an empty alert queue.
func NewService() *Service {
	return &Service{
		changes: make(chan struct{}, 1), // Buffered so signalling never blocks
	}
}

// Open enqueues an alert and blocks until the user dismisses it. If ctx ends
// first the alert is withdrawn and ctx.Err() is returned.
func (s *Service) Open(ctx context.Context, opts Options) error {
	s.mu.Lock()
	s.nextID++
	p := &pending{id: s.nextID, opts: opts, done: make(chan struct{})}
	s.queue = append(s.queue, p)
	s.mu.Unlock()
	s.signal()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		if s.withdraw(p) {
			s.signal()
			return ctx.Err()
		}
		// Dismissed concurrently with the cancellation.
		return nil
	}
}

// Current returns the alert that should be displayed, if any.
func (s *Service) Current() (Shown, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.queue) == 0 {
		return Shown{}, false
	}
	return Shown{ID: s.queue[0].id, Options: s.queue[0].opts}, true
}

// Pending returns the number of alerts waiting, including the visible one.
func (s *Service) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Dismiss resolves the visible alert and promotes the next one. It is a
// no-op unless id is the alert at the head of the queue. It reports whether
// an alert was dismissed.
func (s *Service) Dismiss(id ID) bool {
	s.mu.Lock()
	if len(s.queue) == 0 || s.queue[0].id != id {
		s.mu.Unlock()
		return false
	}
	head := s.queue[0]
	s.queue[0] = nil
	s.queue = s.queue[1:]
	s.mu.Unlock()

	close(head.done)
	s.signal()
	return true
}

// Changes returns a channel that receives a value whenever the visible alert
// changes. Signals are coalesced.
func (s *Service) Changes() <-chan struct{} {
	return s.changes
}

func (s *Service) withdraw(p *pending) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, q := range s.queue {
		if q == p {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Service) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

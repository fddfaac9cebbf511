package session

import "sync"

// queue is an unbounded FIFO shared by any number of senders and one
// receiver.
type queue struct {
	mu      sync.Mutex
	pending []Command
	closed  bool
}

// Sender enqueues commands. Senders are cheap to copy and safe for
// concurrent use.
type Sender struct {
	q *queue
}

// Receiver drains commands. There is exactly one Receiver per queue and it
// must only be used from the goroutine that owns the session.
type Receiver struct {
	q *queue
}

// NewQueue creates a queue and returns its two ends.
func NewQueue() (Sender, *Receiver) {
	q := &queue{}
	return Sender{q: q}, &Receiver{q: q}
}

// Send appends cmd to the queue. It never blocks. Commands sent after the
// queue is closed, or through a zero Sender, are dropped.
func (s Sender) Send(cmd Command) {
	if s.q == nil || cmd == nil {
		return
	}
	s.q.mu.Lock()
	defer s.q.mu.Unlock()
	if s.q.closed {
		return
	}
	s.q.pending = append(s.q.pending, cmd)
}

// Drain returns every command sent since the previous Drain, in send
// order. It returns nil when nothing is pending and never waits.
func (r *Receiver) Drain() []Command {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	if len(r.q.pending) == 0 {
		return nil
	}
	cmds := r.q.pending
	r.q.pending = nil
	return cmds
}

// Len returns the number of pending commands.
func (r *Receiver) Len() int {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return len(r.q.pending)
}

// Close discards pending commands and makes later sends no-ops.
func (r *Receiver) Close() {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	r.q.closed = true
	r.q.pending = nil
}

// Closed reports whether Close has been called.
func (r *Receiver) Closed() bool {
	r.q.mu.Lock()
	defer r.q.mu.Unlock()
	return r.q.closed
}

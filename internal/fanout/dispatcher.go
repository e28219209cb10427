// Package fanout delivers one event to all live connections of a set of
// users. Delivery is at most once with no confirmation: a user with no
// connections is skipped, a failing emit is logged and dropped.
package fanout

import (
	"context"
	"log"
	"sync"
)

const queueSize = 256

// Emitter pushes a single event to a single connection. Implemented by the
// WebSocket hub.
type Emitter interface {
	Emit(connectionID, event string, payload any) error
}

// Router resolves a user to their live connection ids. Implemented by the
// presence directory.
type Router interface {
	Route(ctx context.Context, userID int64) []string
}

type task struct {
	userIDs []int64
	event   string
	payload any
}

// Dispatcher runs fanout on a bounded queue with a single worker, so the
// request that triggered an event never blocks on delivery. Wait lets tests
// observe completion instead of racing a background goroutine.
type Dispatcher struct {
	router  Router
	emitter Emitter

	mu     sync.Mutex
	closed bool

	tasks   chan task
	pending sync.WaitGroup
}

func NewDispatcher(router Router, emitter Emitter) *Dispatcher {
	d := &Dispatcher{
		router:  router,
		emitter: emitter,
		tasks:   make(chan task, queueSize),
	}
	go d.run()
	return d
}

// Dispatch enqueues one event for every live connection of the given users.
// It never blocks the caller: when the queue is full the event is dropped
// and logged.
func (d *Dispatcher) Dispatch(userIDs []int64, event string, payload any) {
	// Enqueueing happens under the mutex so Close cannot close the tasks
	// channel between the closed check and the send.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	d.pending.Add(1)
	select {
	case d.tasks <- task{userIDs: userIDs, event: event, payload: payload}:
	default:
		d.pending.Done()
		log.Printf("fanout: queue full, dropping %s for %d users", event, len(userIDs))
	}
}

// Wait blocks until every event enqueued so far has been delivered or dropped.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}

// Close stops the worker after the queue drains.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	d.pending.Wait()
	close(d.tasks)
}

func (d *Dispatcher) run() {
	for t := range d.tasks {
		d.deliver(t)
		d.pending.Done()
	}
}

func (d *Dispatcher) deliver(t task) {
	ctx := context.Background()
	for _, userID := range t.userIDs {
		for _, connID := range d.router.Route(ctx, userID) {
			if err := d.emitter.Emit(connID, t.event, t.payload); err != nil {
				log.Printf("fanout: emit %s to connection %s: %v", t.event, connID, err)
			}
		}
	}
}

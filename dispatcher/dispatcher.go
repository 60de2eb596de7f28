// Package dispatcher provides the synchronous event dispatcher behind the
// "dispatcher" service. Listeners run in priority order on the caller's
// goroutine, so a listener can mutate the event and the dispatching code
// observes the result immediately.
package dispatcher

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marciopocebon/bolt-1/logger"
)

// Event names dispatched by the storage and access layers.
const (
	PreSave    = "preSave"
	PostSave   = "postSave"
	PreDelete  = "preDelete"
	PostDelete = "postDelete"
	Login      = "login"
	Logout     = "logout"
)

// Event is the payload passed to listeners. Subject carries the record or
// user the event is about; Data carries free-form context.
type Event struct {
	ID      string
	Name    string
	Subject interface{}
	Data    map[string]interface{}
	Time    time.Time

	stopped bool
}

// NewEvent creates an event with a fresh ID and timestamp.
func NewEvent(name string, subject interface{}) *Event {
	return &Event{
		ID:      uuid.NewString(),
		Name:    name,
		Subject: subject,
		Data:    make(map[string]interface{}),
		Time:    time.Now(),
	}
}

// StopPropagation prevents listeners later in the order from running.
func (e *Event) StopPropagation() { e.stopped = true }

// IsPropagationStopped reports whether a listener stopped the event.
func (e *Event) IsPropagationStopped() bool { return e.stopped }

// Listener handles a dispatched event.
type Listener func(*Event)

type registration struct {
	id       string
	priority int
	seq      int
	fn       Listener
}

// Dispatcher routes named events to registered listeners.
type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]registration
	seq       int
	log       *logger.Logger
}

// New creates an empty dispatcher. A nil log falls back to the global logger.
func New(log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Dispatcher{
		listeners: make(map[string][]registration),
		log:       log.WithComponent("dispatcher"),
	}
}

// On registers a listener for the named event at priority 0 and returns
// a registration ID usable with Off.
func (d *Dispatcher) On(name string, fn Listener) string {
	return d.OnPriority(name, 0, fn)
}

// OnPriority registers a listener with an explicit priority. Higher
// priorities run first; equal priorities run in registration order.
func (d *Dispatcher) OnPriority(name string, priority int, fn Listener) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seq++
	reg := registration{
		id:       uuid.NewString(),
		priority: priority,
		seq:      d.seq,
		fn:       fn,
	}
	regs := append(d.listeners[name], reg)
	sort.SliceStable(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority > regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
	d.listeners[name] = regs
	return reg.id
}

// Off removes the listener registered under id for the named event.
func (d *Dispatcher) Off(name, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	regs := d.listeners[name]
	for i, reg := range regs {
		if reg.id == id {
			d.listeners[name] = append(regs[:i:i], regs[i+1:]...)
			return
		}
	}
}

// HasListeners reports whether any listener is registered for name.
func (d *Dispatcher) HasListeners(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name]) > 0
}

// ListenerCount returns the number of listeners registered for name.
func (d *Dispatcher) ListenerCount(name string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name])
}

// Dispatch runs all listeners for event.Name in order and returns the
// event afterwards. A panicking listener is logged and skipped rather
// than unwinding the caller.
func (d *Dispatcher) Dispatch(event *Event) *Event {
	d.mu.RLock()
	regs := make([]registration, len(d.listeners[event.Name]))
	copy(regs, d.listeners[event.Name])
	d.mu.RUnlock()

	for _, reg := range regs {
		if event.IsPropagationStopped() {
			break
		}
		d.invoke(reg, event)
	}
	return event
}

func (d *Dispatcher) invoke(reg registration, event *Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Listener panicked", map[string]interface{}{
				"event":    event.Name,
				"listener": reg.id,
				"panic":    fmt.Sprintf("%v", r),
			})
		}
	}()
	reg.fn(event)
}

package state

import (
	"sync/atomic"

	"github.com/google/uuid"
)

// Listener receives session notifications. Listeners run synchronously
// on the goroutine that drives the session and must not call back into
// it.
type Listener func(Event)

// emitter stamps events with the session id and a sequence number, then
// fans them out. Remote peers use the sequence to spot dropped notices.
type emitter struct {
	session   string
	seq       atomic.Uint64
	listeners []Listener
}

func newEmitter() *emitter {
	return &emitter{session: uuid.NewString()}
}

func (e *emitter) subscribe(l Listener) {
	e.listeners = append(e.listeners, l)
}

func (e *emitter) emit(ev Event) {
	ev.Seq = e.seq.Add(1)
	ev.Session = e.session
	for _, l := range e.listeners {
		l(ev)
	}
}

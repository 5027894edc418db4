// Package event defines the values emitted by the ledger, the sale engine and payment assets.
package event

import (
	"github.com/gaze-network/token-sale/common"
)

// Event is a fact emitted by a successful state change.
type Event interface {
	// Name is the stable event name, e.g. "Transfer".
	Name() string

	// Source is the address of the component that emitted the event.
	Source() common.Address

	// Accounts lists the accounts the event concerns. Used for indexing.
	Accounts() []common.Address
}

// Emitter receives events from the core components.
type Emitter interface {
	Emit(Event)
}

// Recorder buffers emitted events until the caller decides to keep or drop them.
type Recorder struct {
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.events = append(r.events, e)
}

// Flush returns buffered events in emission order and clears the buffer.
func (r *Recorder) Flush() []Event {
	events := r.events
	r.events = nil
	return events
}

// Discard drops buffered events.
func (r *Recorder) Discard() {
	r.events = nil
}

func (r *Recorder) Len() int {
	return len(r.events)
}

type nopEmitter struct{}

func (nopEmitter) Emit(Event) {}

// Nop is an [Emitter] that drops every event.
var Nop Emitter = nopEmitter{}

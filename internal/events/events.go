// Package events carries report lifecycle notifications from the services to
// whoever is listening (the websocket hub, Slack).
package events

import (
	"time"

	"github.com/citywatch/citywatch/internal/database"
)

// Type names a lifecycle event
type Type string

const (
	IncidentCreated   Type = "incident.created"
	IncidentUpdated   Type = "incident.updated"
	IncidentOverdue   Type = "incident.overdue"
	IncidentCompleted Type = "incident.completed"
	IncidentFlagged   Type = "incident.flagged"
	IncidentsMerged   Type = "incident.merged"
	MessagePosted     Type = "message.posted"
)

// Event is a single lifecycle notification
type Event struct {
	Type       Type                   `json:"type"`
	IncidentID string                 `json:"incidentId"`
	Incident   *database.Incident     `json:"incident,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	At         time.Time              `json:"at"`
}

// Publisher receives events. Implementations must not block the caller.
type Publisher interface {
	Publish(Event)
}

// Multi fans an event out to several publishers
type Multi []Publisher

// Publish implements Publisher
func (m Multi) Publish(e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(e)
		}
	}
}

// Discard drops every event
type Discard struct{}

// Publish implements Publisher
func (Discard) Publish(Event) {}

// Recorder keeps events in memory, for tests
type Recorder struct {
	Events []Event
}

// Publish implements Publisher
func (r *Recorder) Publish(e Event) {
	r.Events = append(r.Events, e)
}

// OfType returns the recorded events of type t
func (r *Recorder) OfType(t Type) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

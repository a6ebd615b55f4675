package fanout

import "time"

// Subscriber is a registered downstream webhook endpoint.
//
// Scoping: an empty AgentIDs set means the subscriber receives matching
// events for calls on any agent; a non-empty set restricts delivery to
// those agents only.
type Subscriber struct {
	ID  string `json:"id" db:"id"`
	URL string `json:"url" db:"url"`

	// Secret, when set, enables HMAC-SHA256 signing of the payload bytes.
	Secret string `json:"-" db:"secret"`

	Active bool `json:"active" db:"active"`

	// Events is the set of normalized event names the subscriber wants
	// (call.started, call.ended).
	Events []string `json:"events" db:"events"`

	AgentIDs []string `json:"agent_ids,omitempty" db:"agent_ids"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WantsEvent reports whether the subscriber's event set contains name.
func (s Subscriber) WantsEvent(name string) bool {
	for _, e := range s.Events {
		if e == name {
			return true
		}
	}
	return false
}

// CoversAgent reports whether the subscriber's agent scope admits agentID.
func (s Subscriber) CoversAgent(agentID string) bool {
	if len(s.AgentIDs) == 0 {
		return true
	}
	for _, id := range s.AgentIDs {
		if id == agentID {
			return true
		}
	}
	return false
}

// DeliveryLogEntry is an append-only audit row, one per fan-out attempt,
// written unconditionally after every attempt regardless of outcome.
type DeliveryLogEntry struct {
	ID           string `json:"id" db:"id"`
	SubscriberID string `json:"subscriber_id" db:"subscriber_id"`
	Event        string `json:"event" db:"event"`

	// Payload is the exact serialized body that was (or would have been)
	// transmitted.
	Payload []byte `json:"payload" db:"payload"`

	// ResponseStatus is 0 when the attempt failed before receiving a
	// response; ErrorMessage then carries the reason.
	ResponseStatus int    `json:"response_status,omitempty" db:"response_status"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Normalized event names emitted by the relay. Nothing else reaches
// fan-out.
const (
	EventCallStarted = "call.started"
	EventCallEnded   = "call.ended"
)

package relay

import (
	"encoding/json"

	"call-relay/internal/provider"
)

// Envelope is the canonical inbound event after unwrapping. Everything past
// the boundary works with this one shape.
type Envelope struct {
	Type         string                         `json:"type"`
	Call         *provider.Call                 `json:"call,omitempty"`
	Conversation []provider.ConversationMessage `json:"conversation,omitempty"`
}

// Provider message types the dispatcher distinguishes. Anything else takes
// the default branch.
const (
	typeAssistantRequest   = "assistant-request"
	typeCallStarted        = "call-started"
	typeAssistantStarted   = "assistant.started"
	typeSpeechUpdate       = "speech-update"
	typeStatusUpdate       = "status-update"
	typeConversationUpdate = "conversation-update"
	typeEndOfCallReport    = "end-of-call-report"
)

// statusEnded is the provider status that routes a status-update into the
// termination path.
const statusEnded = "ended"

// ParseEnvelope unwraps a raw webhook body into an Envelope. Deliveries
// arrive as {message: {...}}, double-wrapped as {body: {message: {...}}},
// or as a completely bare message object; the deeper shape is probed first.
// A body carrying none of the expected fields yields a zero Envelope, not
// an error.
func ParseEnvelope(data []byte) (Envelope, error) {
	var outer struct {
		Body    json.RawMessage `json:"body"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &outer); err != nil {
		return Envelope{}, err
	}

	if len(outer.Body) > 0 {
		var inner struct {
			Message json.RawMessage `json:"message"`
		}
		// A non-object body is not an error; fall back to the outer message.
		if err := json.Unmarshal(outer.Body, &inner); err == nil && isPresent(inner.Message) {
			outer.Message = inner.Message
		}
	}
	if !isPresent(outer.Message) {
		// No wrapper at all: treat the top-level object as the message.
		outer.Message = data
	}

	var env Envelope
	if err := json.Unmarshal(outer.Message, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func isPresent(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}

package provider

import "time"

// Call is the provider's call object as it appears in webhook events and in
// the REST API. Webhook deliveries carry a subset of these fields depending
// on the event type; all pointers/empty values must be tolerated.
//
// Timestamps are RFC 3339 and decode directly into time.Time.
type Call struct {
	ID          string `json:"id"`
	OrgID       string `json:"orgId"`
	AssistantID string `json:"assistantId,omitempty"`

	// Status is an opaque provider status string (ringing, in-progress,
	// forwarding, ended, ...). Do not enumerate it; store verbatim.
	Status      string `json:"status"`
	EndedReason string `json:"endedReason,omitempty"`

	// Type is the call direction (inbound/outbound variants).
	Type string `json:"type,omitempty"`

	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`

	Transcript string `json:"transcript,omitempty"`

	Customer *Customer  `json:"customer,omitempty"`
	Costs    []CostItem `json:"costs,omitempty"`
	Analysis *Analysis  `json:"analysis,omitempty"`
}

type Customer struct {
	Number string `json:"number,omitempty"`
}

type CostItem struct {
	Type string  `json:"type"`
	Cost float64 `json:"cost"`
}

// Analysis is the provider's post-call analysis block.
type Analysis struct {
	Summary        string          `json:"summary,omitempty"`
	StructuredData *StructuredData `json:"structuredData,omitempty"`
}

// StructuredData carries provider-side extraction results. The provider
// emits either the plain or the caller_-prefixed field names depending on
// the configured analysis plan, so both are read.
type StructuredData struct {
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	CallerName  string `json:"caller_name,omitempty"`
	CallerEmail string `json:"caller_email,omitempty"`
}

// PrimaryName returns the best available extracted name.
func (d *StructuredData) PrimaryName() string {
	if d == nil {
		return ""
	}
	if d.Name != "" {
		return d.Name
	}
	return d.CallerName
}

// PrimaryEmail returns the best available extracted email.
func (d *StructuredData) PrimaryEmail() string {
	if d == nil {
		return ""
	}
	if d.Email != "" {
		return d.Email
	}
	return d.CallerEmail
}

// CustomerNumber returns the customer phone number, or "" when absent.
func (c *Call) CustomerNumber() string {
	if c == nil || c.Customer == nil {
		return ""
	}
	return c.Customer.Number
}

// Summary returns the analysis summary, or "" when absent.
func (c *Call) Summary() string {
	if c == nil || c.Analysis == nil {
		return ""
	}
	return c.Analysis.Summary
}

// Structured returns the analysis structured data, possibly nil.
func (c *Call) Structured() *StructuredData {
	if c == nil || c.Analysis == nil {
		return nil
	}
	return c.Analysis.StructuredData
}

// ConversationMessage is one turn of the live conversation history.
// Depending on the event, the text arrives in either "content" or "message".
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content,omitempty"`
	Message string `json:"message,omitempty"`
}

// Text returns the message body regardless of which field carried it.
func (m ConversationMessage) Text() string {
	if m.Content != "" {
		return m.Content
	}
	return m.Message
}

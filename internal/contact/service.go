package contact

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"call-relay/internal/normalize"
	"call-relay/internal/provider"

	"github.com/google/uuid"
)

// Repository is the persistence contract for contacts and their call
// history.
type Repository interface {
	FindByPhone(ctx context.Context, tenantID, phone string) (Contact, bool, error)
	Create(ctx context.Context, c Contact) (Contact, error)
	InsertCallRecord(ctx context.Context, rec CallRecord) error

	// FetchIdentity re-reads the currently stored name/email. The
	// first-write-wins backfill re-reads immediately before writing so a
	// concurrent termination for the same contact cannot be overwritten.
	FetchIdentity(ctx context.Context, contactID string) (name, email string, err error)

	// ApplyCallResult persists the counter increment, last-call timestamp,
	// and any filled fields in one update.
	ApplyCallResult(ctx context.Context, contactID string, u CallResult) error
}

// CallResult is the single post-call contact update.
// Nil pointers mean "leave unchanged".
type CallResult struct {
	TotalCalls int
	LastCallAt time.Time
	UpdatedAt  time.Time

	ConversationSummary *string
	Name                *string
	Email               *string
}

// Extractor pulls caller identity out of a transcript. Implementations must
// enforce their own hard timeout; enrichment treats any failure as "nothing
// extracted".
type Extractor interface {
	Extract(ctx context.Context, transcript string) (Identity, error)
}

// minTranscriptForExtraction gates the AI fallback; shorter transcripts
// rarely contain spelled-out contact details and are not worth the latency.
const minTranscriptForExtraction = 100

// Service enriches contact records with call outcomes and builds the
// contact context injected into live AI sessions.
//
// All enrichment is best-effort relative to the webhook response deadline:
// failures are logged and never abort the surrounding event handling.
type Service struct {
	repo      Repository
	extractor Extractor
	log       *slog.Logger
	clock     func() time.Time
}

func NewService(repo Repository, extractor Extractor, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, extractor: extractor, log: log, clock: time.Now}
}

// RecordCallEnd appends call history and updates the contact for a
// terminated call. No-op without a customer phone number.
func (s *Service) RecordCallEnd(ctx context.Context, tenantID string, call provider.Call) error {
	phone := call.CustomerNumber()
	if phone == "" || tenantID == "" {
		return nil
	}

	c, err := s.findOrCreate(ctx, tenantID, phone, call.Structured())
	if err != nil {
		return err
	}

	now := s.clock().UTC()
	calledAt := now
	if call.StartedAt != nil {
		calledAt = call.StartedAt.UTC()
	}

	duration := normalize.ComputeDuration(call.StartedAt, call.EndedAt)
	outcome := call.EndedReason
	if outcome == "" {
		outcome = call.Status
	}

	rec := CallRecord{
		ID:              uuid.NewString(),
		ContactID:       c.ID,
		ProviderCallID:  call.ID,
		Summary:         call.Summary(),
		Transcript:      call.Transcript,
		Outcome:         outcome,
		DurationSeconds: duration,
		CalledAt:        calledAt,
	}
	if err := s.repo.InsertCallRecord(ctx, rec); err != nil {
		// History append failing must not block the contact update.
		s.log.Error("contact call record insert failed", "contact_id", c.ID, "err", err)
	}

	result := CallResult{
		TotalCalls: c.TotalCalls + 1,
		LastCallAt: calledAt,
		UpdatedAt:  now,
	}

	if summary := call.Summary(); summary != "" {
		rolled := RollSummary(c.ConversationSummary, summary, calledAt)
		result.ConversationSummary = &rolled
	}

	name, email := s.resolveIdentity(ctx, call)

	// Re-read before each write: first write wins even across concurrent
	// terminations resolving out of order.
	if name != "" || email != "" {
		currentName, currentEmail, err := s.repo.FetchIdentity(ctx, c.ID)
		if err != nil {
			s.log.Warn("contact identity re-read failed", "contact_id", c.ID, "err", err)
		} else {
			if name != "" && currentName == "" {
				result.Name = &name
			}
			if email != "" && currentEmail == "" {
				result.Email = &email
			}
		}
	}

	return s.repo.ApplyCallResult(ctx, c.ID, result)
}

// resolveIdentity applies the tiered extraction strategy: provider
// structured data first, AI fallback only for fields still missing and only
// when the transcript is substantial.
func (s *Service) resolveIdentity(ctx context.Context, call provider.Call) (name, email string) {
	sd := call.Structured()
	name = sd.PrimaryName()
	email = sd.PrimaryEmail()

	if (name != "" && email != "") || s.extractor == nil {
		return name, email
	}
	if len(call.Transcript) <= minTranscriptForExtraction {
		return name, email
	}

	extracted, err := s.extractor.Extract(ctx, call.Transcript)
	if err != nil {
		s.log.Warn("transcript identity extraction failed", "call_id", call.ID, "err", err)
		return name, email
	}
	if name == "" {
		name = extracted.Name
	}
	if email == "" {
		email = extracted.Email
	}
	return name, email
}

// BuildContext assembles the variable map injected into the live AI session
// for an assistant-request. Returns an empty map when the call carries no
// phone number or the contact cannot be loaded.
func (s *Service) BuildContext(ctx context.Context, tenantID string, call provider.Call) map[string]any {
	phone := call.CustomerNumber()
	if phone == "" || tenantID == "" {
		return map[string]any{}
	}

	c, err := s.findOrCreate(ctx, tenantID, phone, nil)
	if err != nil {
		s.log.Error("contact context lookup failed", "tenant_id", tenantID, "phone", phone, "err", err)
		return map[string]any{}
	}

	returning := c.TotalCalls > 0

	var b strings.Builder
	if returning {
		name := c.Name
		if name == "" {
			name = "Unknown"
		}
		email := c.Email
		if email == "" {
			email = "Not provided"
		}
		lastCall := "Unknown"
		if c.LastCallAt != nil {
			lastCall = localeDate(*c.LastCallAt)
		}
		history := c.ConversationSummary
		if history == "" {
			history = "No previous conversation summary."
		}
		fmt.Fprintf(&b, "RETURNING CALLER DETECTED\nName: %s\nPhone: %s\nEmail: %s\nPrevious Calls: %d\nLast Call: %s\n\nCONVERSATION HISTORY:\n%s\n\nUse this context to personalize the conversation.",
			name, phone, email, c.TotalCalls, lastCall, history)
	} else {
		fmt.Fprintf(&b, "NEW CALLER\nPhone: %s\nThis is their first time calling. Be welcoming and gather basic information.", phone)
	}

	return map[string]any{
		"customer_name":        c.Name,
		"customer_phone":       phone,
		"customer_email":       c.Email,
		"customer_context":     b.String(),
		"is_returning_caller":  returning,
		"total_previous_calls": c.TotalCalls,
		"contact_id":           c.ID,
	}
}

func (s *Service) findOrCreate(ctx context.Context, tenantID, phone string, sd *provider.StructuredData) (Contact, error) {
	c, ok, err := s.repo.FindByPhone(ctx, tenantID, phone)
	if err != nil {
		return Contact{}, err
	}
	if ok {
		return c, nil
	}

	now := s.clock().UTC()
	fresh := Contact{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		Phone:      phone,
		Name:       sd.PrimaryName(),
		Email:      sd.PrimaryEmail(),
		TotalCalls: 0,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return s.repo.Create(ctx, fresh)
}

// RollSummary appends a dated entry to the newline-pair-delimited summary
// list and evicts from the front past MaxSummaryEntries.
func RollSummary(existing, newSummary string, callDate time.Time) string {
	entry := fmt.Sprintf("[%s] %s", localeDate(callDate), newSummary)

	var entries []string
	for _, e := range strings.Split(existing, "\n\n") {
		if e != "" {
			entries = append(entries, e)
		}
	}
	entries = append(entries, entry)
	if len(entries) > MaxSummaryEntries {
		entries = entries[len(entries)-MaxSummaryEntries:]
	}
	return strings.Join(entries, "\n\n")
}

func localeDate(t time.Time) string {
	return t.Format("1/2/2006")
}

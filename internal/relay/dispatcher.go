package relay

import (
	"context"
	"log/slog"

	"call-relay/internal/activecall"
	"call-relay/internal/contact"
	"call-relay/internal/fanout"
	"call-relay/internal/normalize"
	"call-relay/internal/provider"
	"call-relay/internal/tenant"
	"call-relay/internal/usage"
)

// Result is the outcome of handling one inbound event.
type Result struct {
	// VariableValues is non-nil only for assistant-request events; it is the
	// synchronous context payload returned to the provider.
	VariableValues map[string]any

	// Fanned reports whether the event reached fan-out, in which case
	// Forwarded/Total carry the delivery counts.
	Fanned    bool
	Forwarded int
	Total     int
}

// Dispatcher is the event state machine: it classifies each inbound
// envelope and drives the tracker, enrichment, usage recording, and fan-out.
//
// Everything here is best-effort relative to the webhook response deadline.
// Sub-step failures are logged and never abort sibling steps; the provider
// gets an acknowledgment as long as the envelope itself was readable.
type Dispatcher struct {
	tenants  *tenant.Resolver
	tracker  *activecall.Tracker
	contacts *contact.Service
	usage    *usage.Recorder
	fanout   *fanout.Engine
	log      *slog.Logger
}

func NewDispatcher(
	tenants *tenant.Resolver,
	tracker *activecall.Tracker,
	contacts *contact.Service,
	recorder *usage.Recorder,
	engine *fanout.Engine,
	log *slog.Logger,
) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		tenants:  tenants,
		tracker:  tracker,
		contacts: contacts,
		usage:    recorder,
		fanout:   engine,
		log:      log,
	}
}

// Handle routes one envelope through the dispatch table. An envelope without
// a call object is acknowledged and ignored.
func (d *Dispatcher) Handle(ctx context.Context, env Envelope) Result {
	if env.Call == nil {
		return Result{}
	}
	call := *env.Call

	tenantID := d.resolveTenant(ctx, call.OrgID)

	switch env.Type {
	case typeAssistantRequest:
		d.ensureStarted(ctx, tenantID, env)
		vals := d.contacts.BuildContext(ctx, tenantID, call)
		return Result{VariableValues: vals}

	case typeCallStarted, typeAssistantStarted, typeSpeechUpdate:
		d.ensureStarted(ctx, tenantID, env)
		return Result{}

	case typeStatusUpdate:
		if call.Status == statusEnded {
			d.terminate(ctx, tenantID, call)
			return Result{}
		}
		d.ensureStarted(ctx, tenantID, env)
		d.applyUpdate(ctx, env)
		if call.Status == "in-progress" {
			return d.dispatchEvent(ctx, fanout.EventCallStarted, call)
		}
		return Result{}

	case typeConversationUpdate:
		d.ensureStarted(ctx, tenantID, env)
		d.applyUpdate(ctx, env)
		return Result{}

	case typeEndOfCallReport:
		d.terminate(ctx, tenantID, call)
		return d.dispatchEvent(ctx, fanout.EventCallEnded, call)

	default:
		// Unrecognized but call-bearing events still surface as active.
		d.ensureStarted(ctx, tenantID, env)
		return Result{}
	}
}

// terminate runs the termination path. Removal comes first so a failure in
// enrichment cannot leave a stuck active-call row.
func (d *Dispatcher) terminate(ctx context.Context, tenantID string, call provider.Call) {
	if err := d.tracker.Remove(ctx, call.ID); err != nil {
		d.log.Error("active call removal failed", "call_id", call.ID, "err", err)
	}

	if err := d.contacts.RecordCallEnd(ctx, tenantID, call); err != nil {
		d.log.Error("contact enrichment failed", "call_id", call.ID, "err", err)
	}

	if seconds := normalize.ComputeDuration(call.StartedAt, call.EndedAt); seconds > 0 && tenantID != "" {
		if err := d.usage.Record(ctx, tenantID, call.ID, seconds); err != nil {
			d.log.Error("usage recording failed", "call_id", call.ID, "tenant_id", tenantID, "err", err)
		}
	}
}

func (d *Dispatcher) dispatchEvent(ctx context.Context, event string, call provider.Call) Result {
	res, err := d.fanout.Dispatch(ctx, event, call)
	if err != nil {
		d.log.Error("fan-out failed", "event", event, "call_id", call.ID, "err", err)
		return Result{Fanned: true}
	}
	return Result{Fanned: true, Forwarded: res.Forwarded, Total: res.Total}
}

func (d *Dispatcher) ensureStarted(ctx context.Context, tenantID string, env Envelope) {
	if err := d.tracker.EnsureStarted(ctx, tenantID, *env.Call); err != nil {
		d.log.Error("active call tracking failed", "call_id", env.Call.ID, "err", err)
	}
}

func (d *Dispatcher) applyUpdate(ctx context.Context, env Envelope) {
	if err := d.tracker.ApplyUpdate(ctx, *env.Call, env.Conversation); err != nil {
		d.log.Error("active call update failed", "call_id", env.Call.ID, "err", err)
	}
}

// resolveTenant maps the provider org to a tenant id, "" when unknown. A
// miss is routine (events for orgs that were never onboarded) and only
// logged at debug.
func (d *Dispatcher) resolveTenant(ctx context.Context, orgID string) string {
	t, ok, err := d.tenants.ResolveByOrgID(ctx, orgID)
	if err != nil {
		d.log.Error("tenant resolution failed", "org_id", orgID, "err", err)
		return ""
	}
	if !ok {
		d.log.Debug("no tenant for provider org", "org_id", orgID)
		return ""
	}
	return t.ID
}

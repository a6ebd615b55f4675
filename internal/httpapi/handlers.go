package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"call-relay/internal/activecall"
	"call-relay/internal/auth"
	"call-relay/internal/fanout"
	"call-relay/internal/provider"
	"call-relay/internal/tenant"
	"call-relay/internal/usage"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth        *auth.Manager
	Tenants     *tenant.Resolver
	Tracker     *activecall.Tracker
	Subscribers fanout.SubscriberRepository
	Usage       *usage.Recorder
	Provider    *provider.Client
	Log         *slog.Logger

	clock func() time.Time
}

func NewHandlers(
	authManager *auth.Manager,
	tenants *tenant.Resolver,
	tracker *activecall.Tracker,
	subscribers fanout.SubscriberRepository,
	recorder *usage.Recorder,
	providerClient *provider.Client,
	log *slog.Logger,
) Handlers {
	if log == nil {
		log = slog.Default()
	}
	return Handlers{
		Auth:        authManager,
		Tenants:     tenants,
		Tracker:     tracker,
		Subscribers: subscribers,
		Usage:       recorder,
		Provider:    providerClient,
		Log:         log,
		clock:       time.Now,
	}
}

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.TenantID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, tenant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(h.clock(), req.UserID, req.TenantID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Active calls ---

// ListActiveCalls returns the caller's live call view.
func (h Handlers) ListActiveCalls(c *gin.Context) {
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	calls, err := h.Tracker.ListByTenant(c.Request.Context(), tenantID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "active call lookup failed"})
		return
	}
	if calls == nil {
		calls = []activecall.ActiveCall{}
	}
	c.JSON(http.StatusOK, gin.H{"calls": calls, "count": len(calls)})
}

// TerminateCall ends a live call at the provider and clears the local row.
// Failures are reported in-band: the response is always 200 with a success
// flag, matching the dashboard's fire-and-display contract.
func (h Handlers) TerminateCall(c *gin.Context) {
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	callID := c.Param("call_id")
	if callID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "call_id required"})
		return
	}

	t, ok, err := h.Tenants.Get(c.Request.Context(), tenantID)
	if err != nil || !ok {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "tenant credential lookup failed"})
		return
	}
	if t.ProviderAPIKey == "" {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "tenant has no provider API key"})
		return
	}

	if err := h.Provider.EndCall(c.Request.Context(), t.ProviderAPIKey, callID); err != nil {
		h.Log.Warn("provider call termination failed", "tenant_id", tenantID, "call_id", callID, "err", err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "provider terminate failed"})
		return
	}

	if err := h.Tracker.Remove(c.Request.Context(), callID); err != nil {
		// The provider-side call is already gone; the stale reaper will catch
		// the leftover row.
		h.Log.Error("active call cleanup failed after terminate", "call_id", callID, "err", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// --- Subscribers ---

type createSubscriberRequest struct {
	URL      string   `json:"url"`
	Secret   string   `json:"secret"`
	Events   []string `json:"events"`
	AgentIDs []string `json:"agent_ids"`
}

func (h Handlers) CreateSubscriber(c *gin.Context) {
	var req createSubscriberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.URL == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "url required"})
		return
	}
	if len(req.Events) == 0 {
		req.Events = []string{fanout.EventCallStarted, fanout.EventCallEnded}
	}
	for _, e := range req.Events {
		if e != fanout.EventCallStarted && e != fanout.EventCallEnded {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unknown event name: " + e})
			return
		}
	}

	now := h.clock().UTC()
	sub := fanout.Subscriber{
		ID:        uuid.NewString(),
		URL:       req.URL,
		Secret:    req.Secret,
		Active:    true,
		Events:    req.Events,
		AgentIDs:  req.AgentIDs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.Subscribers.Create(c.Request.Context(), sub); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "subscriber create failed"})
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h Handlers) ListSubscribers(c *gin.Context) {
	subs, err := h.Subscribers.List(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "subscriber list failed"})
		return
	}
	if subs == nil {
		subs = []fanout.Subscriber{}
	}
	c.JSON(http.StatusOK, gin.H{"subscribers": subs, "count": len(subs)})
}

func (h Handlers) DeactivateSubscriber(c *gin.Context) {
	id := c.Param("subscriber_id")
	if id == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "subscriber_id required"})
		return
	}
	ok, err := h.Subscribers.Deactivate(c.Request.Context(), id)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "subscriber deactivate failed"})
		return
	}
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "subscriber not found or already inactive"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}

// --- Usage ---

// GetUsage returns the caller's usage rollup for a period (query param
// "period" as YYYY-MM, defaulting to the current month).
func (h Handlers) GetUsage(c *gin.Context) {
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil || tenantID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	period := c.Query("period")

	roll, ok, err := h.Usage.RollupFor(c.Request.Context(), tenantID, period)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "usage lookup failed"})
		return
	}
	if !ok {
		if period == "" {
			period = usage.PeriodOf(h.clock())
		}
		c.JSON(http.StatusOK, gin.H{"tenant_id": tenantID, "period": period, "total_seconds": 0, "call_count": 0})
		return
	}
	c.JSON(http.StatusOK, roll)
}

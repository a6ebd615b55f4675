package main

import (
	"database/sql"
	"time"

	"call-relay/internal/httpapi"
	"call-relay/internal/rbac"
	"call-relay/internal/relay"
	"call-relay/pkg/utils"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, db *sql.DB, webhook *relay.Handler, h httpapi.Handlers, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded"})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhooks (public). The provider does not sign deliveries;
	// tenancy is resolved from the org id carried on each call object.
	r.POST("/webhooks/voice", webhook.HandleWebhook)

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		// AUTH routes (token issuance).
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/login", h.Login)
		}

		// CALLS routes: live view and operator termination.
		calls := v1.Group("/calls")
		calls.Use(rbac.RequireTenant())
		calls.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleViewer, rbac.RoleSuperAdmin))
		{
			calls.GET("/active", h.ListActiveCalls)
			calls.POST("/:call_id/terminate",
				rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleSuperAdmin),
				h.TerminateCall)
		}

		// USAGE routes
		usageGroup := v1.Group("/usage")
		usageGroup.Use(rbac.RequireTenant())
		usageGroup.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleOperator, rbac.RoleViewer, rbac.RoleSuperAdmin))
		{
			usageGroup.GET("", h.GetUsage)
		}

		// ADMIN routes: subscriber management is cross-tenant and restricted.
		admin := v1.Group("/admin")
		admin.Use(rbac.RequireTenant())
		admin.Use(rbac.RequireAnyRole(rbac.RoleOwner, rbac.RoleSuperAdmin))
		{
			admin.POST("/subscribers", h.CreateSubscriber)
			admin.GET("/subscribers", h.ListSubscribers)
			admin.DELETE("/subscribers/:subscriber_id", h.DeactivateSubscriber)
		}
	}
}

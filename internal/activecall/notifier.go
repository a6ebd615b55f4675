package activecall

import (
	"context"
	"log/slog"

	"call-relay/pkg/utils"

	"github.com/redis/go-redis/v9"
)

// RedisNotifier publishes active-call change notifications to a per-tenant
// Redis channel. The dashboard's realtime transport subscribes to these; the
// webhook core only signals "something changed for tenant X" and never
// carries payloads, so subscribers re-read the store as the source of truth.
type RedisNotifier struct {
	rdb *redis.Client
	log *slog.Logger
}

func NewRedisNotifier(rdb *redis.Client, log *slog.Logger) *RedisNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &RedisNotifier{rdb: rdb, log: log}
}

// CallsChanged is best-effort: a dropped notification degrades dashboard
// freshness, never correctness.
func (n *RedisNotifier) CallsChanged(ctx context.Context, tenantID string) {
	if n.rdb == nil {
		return
	}
	if err := utils.NotifyChannel(ctx, n.rdb, utils.ActiveCallsChannel(tenantID), "changed"); err != nil {
		n.log.Warn("active-call notify failed", "tenant_id", tenantID, "err", err)
	}
}

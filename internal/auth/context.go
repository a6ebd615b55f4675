package auth

import (
	"context"
	"errors"
)

// identity is carried on the request context as one value rather than three
// separate keys so a partially populated identity cannot be observed.
type identity struct {
	userID   string
	tenantID string
	role     string
}

type ctxKey struct{}

func WithIdentity(ctx context.Context, userID, tenantID, role string) context.Context {
	return context.WithValue(ctx, ctxKey{}, identity{userID: userID, tenantID: tenantID, role: role})
}

func UserID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(ctxKey{}).(identity)
	if !ok || id.userID == "" {
		return "", errors.New("user_id not in context")
	}
	return id.userID, nil
}

func TenantID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(ctxKey{}).(identity)
	if !ok || id.tenantID == "" {
		return "", errors.New("tenant_id not in context")
	}
	return id.tenantID, nil
}

func Role(ctx context.Context) (string, error) {
	id, ok := ctx.Value(ctxKey{}).(identity)
	if !ok || id.role == "" {
		return "", errors.New("role not in context")
	}
	return id.role, nil
}

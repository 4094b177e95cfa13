package middleware

import (
	"context"

	"github.com/jaradmin/jar-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID       contextKey = "user_id"
	ctxRole         contextKey = "actor_role"
	ctxCapabilities contextKey = "capabilities"
	ctxAccessID     contextKey = "access_id"
)

// AccessIDFromContext returns the session identifier (JWT jti) of the caller.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func CapabilitiesFromContext(ctx context.Context) enums.CapabilitySet {
	if ctx == nil {
		return enums.NewCapabilitySet()
	}
	if v, ok := ctx.Value(ctxCapabilities).(enums.CapabilitySet); ok {
		return v
	}
	return enums.NewCapabilitySet()
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithCapabilities injects the capability set into the context.
func WithCapabilities(ctx context.Context, caps enums.CapabilitySet) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCapabilities, caps)
}

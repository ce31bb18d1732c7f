package core

import "context"

type contextKey string

const (
	ctxKeyActor     contextKey = "actor"
	ctxKeyIPAddress contextKey = "client_ip"
)

// ContextWithActor records who is making a change, for mutation logs.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ctxKeyActor, actor)
}

// ContextWithIPAddress records the client address, for mutation logs.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ActorFromContext returns the actor, or "system" when none was set.
func ActorFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyActor).(string); ok && v != "" {
		return v
	}
	return "system"
}

// IPAddressFromContext returns the client address, or "".
func IPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values, services read them. Keeping this package free of
// net/http lets domain services import only what they need.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, requestcontext.ActorInfo{ID: "u1", Name: "Dana"})
package requestcontext

import (
	"context"
	"time"
)

// ActorInfo carries the acting user's identity for audit attribution. The
// identity provider is external; these values arrive via validated claims.
type ActorInfo struct {
	ID   string
	Name string
}

type (
	actorKey       struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	deviceKey      struct{}
)

// Actor retrieves the acting user from the context. Zero value when unset.
func Actor(ctx context.Context) ActorInfo {
	if a, ok := ctx.Value(actorKey{}).(ActorInfo); ok {
		return a
	}
	return ActorInfo{}
}

// WithActor injects the acting user into the context.
func WithActor(ctx context.Context, actor ActorInfo) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// RequestID retrieves the correlation id set by middleware. Empty when unset.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a correlation id into the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// Now returns the request time when one was injected, falling back to the
// wall clock. Every time-dependent rule in the engine reads time through
// here so tests can pin it.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime pins the request time, typically at request ingress or in tests.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}

// Device retrieves the client device summary ("Chrome on Windows") captured
// by middleware for history metadata. Empty when unknown.
func Device(ctx context.Context) string {
	if d, ok := ctx.Value(deviceKey{}).(string); ok {
		return d
	}
	return ""
}

// WithDevice injects the client device summary.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

package domain

import "context"

// Identity is the tenant scope of a push or pull. It is an immutable value:
// swapping tokens produces a new Identity instead of mutating shared state.
type Identity struct {
	TenantID  string
	ProjectID string
	Token     string
}

// Established reports whether the identity carries both a token and a tenant
func (i Identity) Established() bool {
	return i.Token != "" && i.TenantID != ""
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the identity in the context
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored in the context, if any
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey).(Identity)
	return id
}

package domain

import "context"

// ContextKey is a type for context keys to avoid magic strings
type ContextKey string

const (
	// ContextKeySubject is the key for the subject (user ID) in the context
	ContextKeySubject ContextKey = "sub"
	// ContextKeyScope is the key for the granted scope in the context
	ContextKeyScope ContextKey = "scope"
	// ContextKeyClientID is the key for the presenting client in the context
	ContextKeyClientID ContextKey = "client_id"
	// ContextKeyRoles is the key for the user roles in the context
	ContextKeyRoles ContextKey = "roles"
)

// WithSubject adds the subject (user ID) to the context
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ContextKeySubject, subject)
}

// WithScope adds the granted scope to the context
func WithScope(ctx context.Context, scope string) context.Context {
	return context.WithValue(ctx, ContextKeyScope, scope)
}

// WithClientID adds the presenting client id to the context
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, ContextKeyClientID, clientID)
}

// WithRoles adds the user roles to the context
func WithRoles(ctx context.Context, roles []string) context.Context {
	return context.WithValue(ctx, ContextKeyRoles, roles)
}

// GetSubject retrieves the subject (user ID) from the context
func GetSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(ContextKeySubject).(string)
	return subject, ok
}

// GetScope retrieves the granted scope from the context
func GetScope(ctx context.Context) (string, bool) {
	scope, ok := ctx.Value(ContextKeyScope).(string)
	return scope, ok
}

// GetClientID retrieves the presenting client id from the context
func GetClientID(ctx context.Context) (string, bool) {
	clientID, ok := ctx.Value(ContextKeyClientID).(string)
	return clientID, ok
}

// GetRoles retrieves the user roles from the context
func GetRoles(ctx context.Context) ([]string, bool) {
	roles, ok := ctx.Value(ContextKeyRoles).([]string)
	return roles, ok
}

package model

import "time"

// Token scopes for the back-office API.
const (
	ScopeRead  = "read"
	ScopeAdmin = "admin"
)

// APIToken represents a back-office API token.
// Only the argon2id hash is stored; the plaintext is shown once at creation.
type APIToken struct {
	ID         string     `json:"id"` // UUID
	Name       string     `json:"name"`
	Prefix     string     `json:"prefix"` // visible prefix for lookup
	TokenHash  string     `json:"-"`
	Scope      string     `json:"scope"` // "read" or "admin"
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
}

// IsActive reports whether the token can still be used.
func (t *APIToken) IsActive() bool {
	return t.RevokedAt == nil
}

// AuthContext is the resolved identity of an authenticated API request.
type AuthContext struct {
	TokenID string `json:"token_id"`
	Name    string `json:"name"`
	Scope   string `json:"scope"`
}

// CanWrite reports whether the context allows mutations.
func (a *AuthContext) CanWrite() bool {
	return a.Scope == ScopeAdmin
}

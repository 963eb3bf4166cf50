// Package identity extracts routing claims from bearer tokens.
//
// Tokens are never verified here. The issuer (or the remote store that
// receives the token) is responsible for authenticity; this package only
// reads the claims that decide which tenant namespace a call targets.
package identity

import (
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"pos-cloud-sync/internal/domain"
)

// Claims are the routing claims read from a token payload
type Claims struct {
	UserID   string           `json:"user_id"`
	Subject  string           `json:"sub"`
	Audience jwt.ClaimStrings `json:"aud"`
}

// TenantID returns user_id, falling back to sub
func (c Claims) TenantID() string {
	if c.UserID != "" {
		return c.UserID
	}
	return c.Subject
}

// Scope returns the first audience entry
func (c Claims) Scope() string {
	if len(c.Audience) == 0 {
		return ""
	}
	return c.Audience[0]
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// ParseClaims decodes the middle segment of a three-part token. Anything that
// is not a base64url JSON object yields empty claims.
func ParseClaims(token string) Claims {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return Claims{}
	}
	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return Claims{}
	}
	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return Claims{}
	}
	return claims
}

// Resolver applies tokens to identities
type Resolver struct {
	// DefaultAudience is the issuer's shared audience; it never replaces a
	// configured project scope
	DefaultAudience string
}

// NewResolver creates a resolver
func NewResolver(defaultAudience string) Resolver {
	return Resolver{DefaultAudience: defaultAudience}
}

// WithToken returns a copy of current carrying token, with tenant and scope
// taken from the token's claims when present
func (r Resolver) WithToken(current domain.Identity, token string) domain.Identity {
	next := current
	next.Token = strings.TrimSpace(token)

	claims := ParseClaims(next.Token)
	if tenant := claims.TenantID(); tenant != "" {
		next.TenantID = tenant
	}
	if scope := claims.Scope(); scope != "" && scope != r.DefaultAudience {
		next.ProjectID = scope
	}
	return next
}

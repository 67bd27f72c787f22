// internal/pkg/jwt/claims.go
package jwt

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Roles carried in access tokens.
const (
	RoleUser   = "user"
	RoleArtist = "artist"
	RoleAdmin  = "admin"
)

// Claims represents the JWT claims. IdentityID is the user or artist ID the
// token was issued for.
type Claims struct {
	IdentityID string   `json:"identity_id"`
	Roles      []string `json:"roles,omitempty"`
	Purpose    string   `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

func (c *Claims) IsAdmin() bool {
	return c.HasRole(RoleAdmin)
}

// CanActFor reports whether the bearer may act on behalf of identityID.
func (c *Claims) CanActFor(identityID string) bool {
	return c.IsAdmin() || (identityID != "" && c.IdentityID == identityID)
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}
	return slices.Contains(c.Audience, audience)
}

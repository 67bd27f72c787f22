// internal/middleware/helpers.go
package middleware

import (
	"slices"

	"fanbase-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// GetIdentityID returns the authenticated caller's ID.
func GetIdentityID(c *gin.Context) (string, bool) {
	id := c.GetString(ctxIdentityID)
	return id, id != ""
}

// MustGetIdentityID gets identity ID from context or panics
func MustGetIdentityID(c *gin.Context) string {
	identityID, exists := GetIdentityID(c)
	if !exists {
		panic("identity_id not found in context")
	}
	return identityID
}

func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(ctxClaims)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// GetRoles gets user roles from context
func GetRoles(c *gin.Context) []string {
	roles, exists := c.Get(ctxRoles)
	if !exists {
		return []string{}
	}

	rolesList, ok := roles.([]string)
	if !ok {
		return []string{}
	}

	return rolesList
}

func HasRole(c *gin.Context, role string) bool {
	return slices.Contains(GetRoles(c), role)
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	return HasRole(c, jwt.RoleAdmin)
}

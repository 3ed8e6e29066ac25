// README: Auth middleware: verifies the Firebase ID token and resolves the caller's profile role.
package middleware

import (
	"context"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"gazflow/internal/infra"
	"gazflow/internal/modules/profile"
	"gazflow/internal/types"
)

const (
	ctxUID  = "caller_uid"
	ctxRole = "caller_role"
)

// ProfileResolver maps a verified uid to its profile, creating one on first sight.
type ProfileResolver interface {
	Resolve(ctx context.Context, id types.ID, email string) (*profile.Profile, error)
}

// Auth rejects requests without a valid "Authorization: Bearer <idToken>"
// header. The role comes from the profiles table, never from token claims.
func Auth(verifier infra.TokenVerifier, profiles ProfileResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		id, err := verifier.VerifyIDToken(c.Request.Context(), strings.TrimSpace(raw))
		if err != nil || id == nil || id.UID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		p, err := profiles.Resolve(c.Request.Context(), types.ID(id.UID), id.Email)
		if err != nil {
			log.Printf("auth: resolve profile %s: %v", id.UID, err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.Set(ctxUID, string(p.ID))
		c.Set(ctxRole, string(p.Role))
		c.Next()
	}
}

func CallerUID(c *gin.Context) string {
	return c.GetString(ctxUID)
}

func CallerRole(c *gin.Context) types.Role {
	return types.Role(c.GetString(ctxRole))
}

// Caller is the authenticated actor for service calls.
func Caller(c *gin.Context) types.Actor {
	return types.Actor{ID: types.ID(CallerUID(c)), Role: CallerRole(c)}
}

// RequireRole aborts with 403 unless the caller has one of roles.
func RequireRole(roles ...types.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Caller(c)
		for _, r := range roles {
			if actor.Is(r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

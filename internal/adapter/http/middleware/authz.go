package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Koneum/sissansissan-api/configs"
	domain "github.com/Koneum/sissansissan-api/internal/entity"
	"github.com/Koneum/sissansissan-api/internal/usecase"
)

const actorKey = "actor"

// Authz verifies bearer tokens minted by the external auth service and
// exposes the caller as a usecase.Actor. Per-order authorization (admins
// cancel anything, customers only their own PENDING orders) lives in the
// use case, not here.
type Authz struct {
	cfg configs.Config
}

func NewAuthz(cfg configs.Config) *Authz {
	return &Authz{cfg: cfg}
}

// Authenticate requires a valid JWT and stashes the Actor in the context.
func (a *Authz) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauth(c, "invalid_request", "missing bearer token")
			return
		}

		raw := strings.TrimPrefix(auth, "Bearer ")
		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(a.cfg.Security.JWTSecret), nil
		}, jwt.WithLeeway(30*time.Second)) // small clock skew

		if err != nil || !token.Valid {
			unauth(c, "invalid_token", "invalid jwt")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauth(c, "invalid_token", "claims parsing error")
			return
		}

		if claims["iss"] != a.cfg.Security.Issuer || claims["aud"] != a.cfg.Security.Audience {
			unauth(c, "invalid_token", "iss/aud mismatch")
			return
		}

		c.Set(actorKey, actorFromClaims(claims))
		c.Next()
	}
}

// Require builds on Authenticate and additionally demands permissions.
// Admins pass regardless of their permission list.
func (a *Authz) Require(requiredPerms ...string) gin.HandlerFunc {
	authn := a.Authenticate()
	return func(c *gin.Context) {
		authn(c)
		if c.IsAborted() {
			return
		}
		actor := ActorFrom(c)
		if actor.Role == domain.RoleAdmin {
			c.Next()
			return
		}
		for _, r := range requiredPerms {
			if !hasPerm(actor, r) {
				forbidden(c, "insufficient_scope", "missing required permissions")
				return
			}
		}
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or a zero Actor when the route
// skipped authentication.
func ActorFrom(c *gin.Context) usecase.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(usecase.Actor); ok {
			return a
		}
	}
	return usecase.Actor{}
}

func actorFromClaims(claims jwt.MapClaims) usecase.Actor {
	a := usecase.Actor{}
	if sub, ok := claims["sub"].(string); ok {
		a.ID = sub
	}
	if role, ok := claims["role"].(string); ok {
		a.Role = role
	}
	if arr, ok := claims["perms"].([]any); ok {
		for _, v := range arr {
			if s, ok := v.(string); ok && s != "" {
				a.Perms = append(a.Perms, s)
			}
		}
	}
	return a
}

func hasPerm(a usecase.Actor, perm string) bool {
	for _, p := range a.Perms {
		if p == perm {
			return true
		}
	}
	return false
}

func unauth(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": code, "error_description": desc})
}

func forbidden(c *gin.Context, code, desc string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`", error_description="`+desc+`"`)
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": code, "error_description": desc})
}

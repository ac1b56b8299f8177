package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront-replica/internal/auth"
	"storefront-replica/internal/identity"
)

const (
	ctxSession = "session"
	ctxStore   = "identityStore"
)

// requireSession resolves the bearer token into a session, mirrors it into
// the user's identity store and stashes both on the request context.
func (h handlers) requireSession(c *gin.Context) {
	token, ok := cutBearer(c.GetHeader("Authorization"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	sess, err := h.deps.Auth.GetSession(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, auth.Translate(err))
		return
	}

	c.Set(ctxSession, sess)
	c.Set(ctxStore, h.deps.Identity.StoreForSession(c.Request.Context(), sess))
	c.Next()
}

// requireRoute gates a handler on the admin route table.
func (h handlers) requireRoute(route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !storeFrom(c).CanAccess(route) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// requirePermission gates a handler on a single resource/action grant.
func (h handlers) requirePermission(resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !storeFrom(c).HasPermission(resource, action) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

func cutBearer(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

func sessionFrom(c *gin.Context) *auth.Session {
	return c.MustGet(ctxSession).(*auth.Session)
}

func storeFrom(c *gin.Context) *identity.Store {
	return c.MustGet(ctxStore).(*identity.Store)
}

package adminauth

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// Middleware guards admin routes with ADMIN_API_KEY, sent as X-API-Key or
// as a Bearer token.
type Middleware struct {
	apiKey string
}

func New(key string) *Middleware { return &Middleware{apiKey: strings.TrimSpace(key)} }

func NewFromEnv() *Middleware { return New(os.Getenv("ADMIN_API_KEY")) }

func (m *Middleware) checkKey(r *http.Request) bool {
	if m.apiKey == "" {
		return false
	}
	got := strings.TrimSpace(r.Header.Get("X-API-Key"))
	if got == "" {
		const pfx = "Bearer "
		if auth := strings.TrimSpace(r.Header.Get("Authorization")); strings.HasPrefix(auth, pfx) {
			got = strings.TrimSpace(auth[len(pfx):])
		}
	}
	return got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(m.apiKey)) == 1
}

func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.apiKey == "" {
			c.AbortWithStatusJSON(http.StatusInternalServerError,
				gin.H{"error": "server not configured (ADMIN_API_KEY is empty)"})
			return
		}
		if !m.checkKey(c.Request) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

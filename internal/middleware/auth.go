package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"insurance-dms/internal/auth"
)

// RequireAuth пускает только залогиненных сотрудников; остальных
// отправляет на /login.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !u.IsStaff && !u.IsSuperuser {
			c.String(http.StatusForbidden, "access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}

func RequireSuperuser() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !u.IsSuperuser {
			c.String(http.StatusForbidden, "access denied")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireToken проверяет Bearer JWT для /api. Ответы только JSON.
func RequireToken(cfg auth.Config, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled() {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "token auth is disabled"})
			return
		}
		header := c.GetHeader("Authorization")
		tok, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tok == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		uid, err := auth.ParseToken(cfg, tok)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		u, err := users.Get(c.Request.Context(), uid)
		if err != nil || !u.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		SetCurrentUser(c, u)
		c.Next()
	}
}

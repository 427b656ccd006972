package middleware

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/logger"
	"github.com/d60-Lab/yatube/pkg/response"
)

const userKey = "current_user"

// Session resolves the current user from the session cookie or a Bearer token.
// Requests without a valid session continue anonymously.
func Session(auth service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token, _ = c.Cookie(cookieName)
		}
		if token == "" {
			c.Next()
			return
		}
		id, err := auth.ParseToken(token)
		if err != nil {
			c.Next()
			return
		}
		user, err := auth.GetUser(c.Request.Context(), id)
		if err != nil {
			if !errors.Is(err, service.ErrNotFound) {
				logger.Warn("load session user failed", zap.Uint("user_id", id), zap.Error(err))
			}
			c.Next()
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated user or nil.
func CurrentUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

// SetUser attaches user to the request; login handlers use it right after
// issuing a session.
func SetUser(c *gin.Context, user *model.User) { c.Set(userKey, user) }

// LoginRequired redirects anonymous visitors to loginURL?next=<request uri>.
func LoginRequired(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		target := loginURL + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// APIAuthRequired rejects anonymous API calls with 401.
func APIAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			response.Unauthorized(c, "authentication credentials were not provided")
			return
		}
		c.Next()
	}
}

// StaffRequired must run after APIAuthRequired.
func StaffRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := CurrentUser(c); u == nil || !u.IsStaff {
			response.Forbidden(c, "staff only")
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

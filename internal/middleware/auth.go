package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"videotube/internal/apperr"
	"videotube/internal/models"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"

	currentUserKey = "current_user"
)

type userContextKey struct{}

// AccessResolver maps an access token to the user it was issued for.
type AccessResolver interface {
	ResolveAccessToken(ctx context.Context, token string) (models.User, error)
}

// Auth admits requests carrying a valid access token, read from the
// accessToken cookie or else the Authorization bearer header.
func Auth(resolver AccessResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractAccessToken(c)
		if token == "" {
			AbortWithError(c, apperr.Auth("unauthorized request"))
			return
		}

		user, err := resolver.ResolveAccessToken(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), userContextKey{}, user))

		c.Next()
	}
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && strings.TrimSpace(cookie) != "" {
		return strings.TrimSpace(cookie)
	}

	header := c.GetHeader("Authorization")
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

// CurrentUser returns the user admitted by Auth.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(models.User)
	return user, ok
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/linkcircle/pkg/helpers"
	"github.com/oksasatya/linkcircle/pkg/response"
)

const (
	CtxUserIDKey    = "userID"
	CtxSessionIDKey = "sessionID"
)

// SessionValidator confirms that a session has not been revoked.
type SessionValidator interface {
	Validate(ctx context.Context, userID, sid string) error
}

// Session reads the access token from the access_token cookie or a Bearer
// header and puts userID and sessionID into the Gin context. With required
// unset, requests without a valid session pass through anonymously.
func Session(jwt *helpers.JWTManager, sessions SessionValidator, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := accessToken(c)
		if token == "" {
			if required {
				response.Abort(c, http.StatusUnauthorized, "missing access token", response.ErrorBody{Code: "UNAUTHENTICATED"})
				return
			}
			c.Next()
			return
		}
		claims, err := jwt.ParseAccessToken(token)
		if err == nil && sessions != nil {
			err = sessions.Validate(c.Request.Context(), claims.UserID, claims.SessionID)
		}
		if err != nil {
			if required {
				response.Abort(c, http.StatusUnauthorized, "invalid session", response.ErrorBody{Code: "UNAUTHENTICATED"})
				return
			}
			c.Next()
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxSessionIDKey, claims.SessionID)
		c.Next()
	}
}

// RequireOwner rejects requests whose session user differs from the path
// parameter param. It does nothing unless enforce is set.
func RequireOwner(param string, enforce bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enforce {
			c.Next()
			return
		}
		uid := c.GetString(CtxUserIDKey)
		if uid == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", response.ErrorBody{Code: "UNAUTHENTICATED"})
			return
		}
		if uid != c.Param(param) {
			response.Abort(c, http.StatusForbidden, "not allowed to modify another user", response.ErrorBody{Code: "FORBIDDEN"})
			return
		}
		c.Next()
	}
}

func accessToken(c *gin.Context) string {
	if t, err := c.Cookie(helpers.AccessCookie); err == nil && t != "" {
		return t
	}
	if h := c.GetHeader("Authorization"); len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

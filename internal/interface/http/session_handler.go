package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/linkcircle/internal/application"
	"github.com/oksasatya/linkcircle/pkg/helpers"
	"github.com/oksasatya/linkcircle/pkg/response"
)

type SessionHandler struct {
	Sessions *application.SessionService
	Profiles *application.ProfileService
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewSessionHandler(sessions *application.SessionService, profiles *application.ProfileService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *SessionHandler {
	return &SessionHandler{Sessions: sessions, Profiles: profiles, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

type signInRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

func expiryMeta(p application.TokenPair) map[string]any {
	return map[string]any{"access_expires_at": p.AccessTokenExpiry, "refresh_expires_at": p.RefreshTokenExpiry}
}

// SignIn exchanges an identity-provider token for session cookies.
func (h *SessionHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if !bindJSON(c, &req) {
		return
	}
	u, pair, err := h.Sessions.SignIn(c.Request.Context(), req.IDToken)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, toUser(u), "signed in", expiryMeta(pair))
}

// Current returns the session user.
func (h *SessionHandler) Current(c *gin.Context) {
	u, err := h.Profiles.GetByID(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUser(u), "session", nil)
}

func (h *SessionHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie(helpers.RefreshCookie)
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", response.ErrorBody{Code: "UNAUTHENTICATED"})
		return
	}
	pair, err := h.Sessions.Refresh(c.Request.Context(), refresh)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", expiryMeta(pair))
}

func (h *SessionHandler) SignOut(c *gin.Context) {
	if err := h.Sessions.SignOut(c.Request.Context(), c.GetString("sessionID")); err != nil && h.Logger != nil {
		h.Logger.WithError(err).Warn("failed to revoke session")
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

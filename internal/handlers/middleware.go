package handlers

import (
	"strings"

	"user_accounts/internal/apperr"
	"user_accounts/internal/models"
	"user_accounts/internal/service"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// sessionGuard authenticates the request from the Bearer header or, failing
// that, the accessToken cookie, and stores the user in the context.
func (h *Handler) sessionGuard(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token, _ = c.Cookie(accessTokenCookie)
	}
	if token == "" {
		h.fail(c, apperr.Unauthorized(service.MsgNoToken, nil))
		return
	}

	user, err := h.services.Authenticate(c.Request.Context(), token)
	if err != nil {
		h.log.Infow("session_rejected", "path", c.FullPath(), "status", apperr.StatusCode(err))
		h.fail(c, err)
		return
	}

	c.Set(currentUserKey, user)
	c.Next()
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func currentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}

package handlers

import "github.com/gin-gonic/gin"

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

// CookieOptions holds the flags applied to both token cookies. Secure is
// false by default, which is unsuitable for TLS-only deployments.
type CookieOptions struct {
	Secure bool
	Domain string
	Path   string
}

// setTokenCookies writes session cookies (no Max-Age) for both tokens.
func (h *Handler) setTokenCookies(c *gin.Context, accessToken, refreshToken string) {
	h.setCookie(c, refreshTokenCookie, refreshToken, 0)
	h.setCookie(c, accessTokenCookie, accessToken, 0)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	h.setCookie(c, refreshTokenCookie, "", -1)
	h.setCookie(c, accessTokenCookie, "", -1)
}

func (h *Handler) setCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetCookie(name, value, maxAge, h.cookies.Path, h.cookies.Domain, h.cookies.Secure, true)
}

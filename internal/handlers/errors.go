package handlers

import (
	"net/http"
	"time"

	accounts "user_accounts"
	"user_accounts/internal/apperr"

	"github.com/gin-gonic/gin"
)

// errorResponder turns the first error recorded on the context into the JSON
// envelope. Handlers only call c.Error and return.
func (h *Handler) errorResponder(c *gin.Context) {
	c.Next()

	if len(c.Errors) == 0 || c.Writer.Written() {
		return
	}

	err := apperr.From(c.Errors[0].Err)
	if err.StatusCode >= http.StatusInternalServerError {
		h.log.Errorw("request_failed", "method", c.Request.Method, "path", c.FullPath(), "err", err)
	}
	c.JSON(err.StatusCode, accounts.NewResponse(err.StatusCode, err.Message, nil))
}

// fail records err for the responder and aborts the chain.
func (h *Handler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// recovered answers a panicking request with the standard 500 envelope.
func (h *Handler) recovered(c *gin.Context, rec any) {
	h.log.Errorw("request_panicked", "method", c.Request.Method, "path", c.FullPath(), "panic", rec)
	err := apperr.Internal(nil)
	c.AbortWithStatusJSON(err.StatusCode, accounts.NewResponse(err.StatusCode, err.Message, nil))
}

// requestLogger logs one line per request after the response is written.
func (h *Handler) requestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	h.log.Infow("http_request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"latency", time.Since(start),
		"client_ip", c.ClientIP(),
	)
}

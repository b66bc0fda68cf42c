package user_accounts

import "net/http"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the uniform JSON envelope returned by every endpoint.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Status     string `json:"status"` // "error" when StatusCode >= 400
}

// NewResponse builds an envelope and derives Status from the code.
func NewResponse(statusCode int, message string, data any) Response {
	status := StatusSuccess
	if statusCode >= http.StatusBadRequest {
		status = StatusError
	}
	return Response{
		StatusCode: statusCode,
		Message:    message,
		Data:       data,
		Status:     status,
	}
}

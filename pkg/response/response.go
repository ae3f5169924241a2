package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type APIResponse[T any] struct {
	Status    int         `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id"`
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      T           `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Error     interface{} `json:"error,omitempty"`
}

// ErrorBody is the error member of a failed response.
type ErrorBody struct {
	Code    string            `json:"code"`
	Field   string            `json:"field,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

func build[T any](ctx *gin.Context, status int, ok bool, message string) APIResponse[T] {
	return APIResponse[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: ctx.GetString("request_id"),
		Success:   ok,
		Message:   message,
	}
}

// Success writes a success envelope and returns it.
func Success[T any](ctx *gin.Context, status int, data T, message string, meta interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusOK
	}
	resp := build[T](ctx, status, true, message)
	resp.Data = data
	resp.Meta = meta
	ctx.JSON(status, resp)
	return resp
}

// Error writes an error envelope and returns it.
func Error[T any](ctx *gin.Context, status int, message string, err interface{}) APIResponse[T] {
	if status == 0 {
		status = http.StatusBadRequest
	}
	resp := build[T](ctx, status, false, message)
	resp.Error = err
	ctx.JSON(status, resp)
	return resp
}

// Abort writes an error envelope and stops the handler chain; for middleware.
func Abort(ctx *gin.Context, status int, message string, err interface{}) {
	resp := build[any](ctx, status, false, message)
	resp.Error = err
	ctx.AbortWithStatusJSON(status, resp)
}

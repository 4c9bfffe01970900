package router

import (
	"net/http"
	"strings"

	"github.com/akeren/waitlist-api/internal/log"
	"github.com/gin-gonic/gin"
)

// resultFormat selects how a ServiceResult is written.
type resultFormat int

const (
	formatEnvelope resultFormat = iota // {code, data, message}
	formatBareJSON                     // Data is the whole JSON body
	formatHTML                         // Data is a string sent as text/html
)

// ServiceResult is what every handler returns. The zero format is the envelope used by the
// operational endpoints; waitlist routes answer with bare JSON.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`

	format resultFormat
}

func (result *ServiceResult) ToJSON() gin.H {
	return gin.H{
		"code":    result.StatusCode,
		"data":    result.Data,
		"message": result.Message,
	}
}

func (result *ServiceResult) write(c *gin.Context) {
	switch result.format {
	case formatHTML:
		body, _ := result.Data.(string)
		c.Data(result.StatusCode, "text/html; charset=utf-8", []byte(body))
	case formatBareJSON:
		c.JSON(result.StatusCode, result.Data)
	default:
		c.JSON(result.StatusCode, result.ToJSON())
	}
}

func OKResult(data any, message string) *ServiceResult {
	return ErrorResult(http.StatusOK, message, data)
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return ErrorResult(http.StatusBadRequest, message, payload)
}

// ErrorResult builds an envelope with any status; OKResult and BadRequestResult are shorthands.
func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

// BareJSONResult renders data as the entire response body. A nil data renders as JSON null.
func BareJSONResult(statusCode int, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, format: formatBareJSON}
}

// BareErrorResult renders {"error": message}.
func BareErrorResult(statusCode int, message string) *ServiceResult {
	return BareJSONResult(statusCode, map[string]string{"error": message})
}

func HTMLResult(statusCode int, body string) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: body, format: formatHTML}
}

// GetLogger returns the request logger injected by the router middleware.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.FromContext(ctx.Request.Context(), nil)
}

// ParseIDParam returns the trimmed path parameter, or a bare 400 result when it is empty.
func ParseIDParam(ctx *RequestContext, paramName string) (string, *ServiceResult) {
	id := strings.TrimSpace(ctx.Param(paramName))
	if id == "" {
		GetLogger(ctx).Warn("Missing path parameter", "param", paramName)
		return "", BareErrorResult(http.StatusBadRequest, "Invalid ID parameter")
	}
	return id, nil
}

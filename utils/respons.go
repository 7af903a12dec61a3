package utils

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type JSONResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ErrorResponse struct {
	Code      int          `json:"code"`
	Message   string       `json:"message"`
	Errors    []FieldError `json:"errors,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Path      string       `json:"path"`
}

func RespondJSON(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, JSONResponse{
		Code:    CodeOK,
		Message: message,
		Data:    data,
	})
}

// RespondError is the only place errors are turned into the wire envelope.
// Untyped failures are logged in full and surfaced as a generic Internal error.
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	if appErr.Code == CodeInternal {
		ErrorLogger.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Errorf("internal error: %v", err)
	} else if appErr.Err != nil {
		InfoLogger.Debugf("%s %s -> %d: %v", c.Request.Method, c.Request.URL.Path, appErr.Code, appErr.Err)
	}

	status := appErr.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.AbortWithStatusJSON(status, NewErrorResponse(appErr, c.Request.URL.Path))
}

// NewErrorResponse builds the envelope without writing it.
func NewErrorResponse(appErr *AppError, path string) ErrorResponse {
	message := appErr.Message
	if appErr.Code == CodeInternal {
		message = ErrInternal.Message
	}
	return ErrorResponse{
		Code:      appErr.Code,
		Message:   message,
		Errors:    appErr.Errors,
		Timestamp: time.Now().UTC(),
		Path:      path,
	}
}

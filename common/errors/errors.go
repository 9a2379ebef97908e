package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code and message, so wrapped copies
// of a sentinel still satisfy errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap returns a copy of base carrying err as its cause. Sentinels are never mutated.
func Wrap(base *Error, err error) *Error {
	return &Error{Code: base.Code, Message: base.Message, Err: err}
}

// Wrapf is Wrap with a formatted cause.
func Wrapf(base *Error, format string, args ...any) *Error {
	return Wrap(base, fmt.Errorf(format, args...))
}

// From converts any error into an *Error, defaulting to 500.
func From(err error) *Error {
	var appErr *Error
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(ErrInternalServer, err)
}

// Common error types
var (
	ErrBadRequest         = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized       = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrForbidden          = New(http.StatusForbidden, "Forbidden", nil)
	ErrNotFound           = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer     = New(http.StatusInternalServerError, "Internal server error", nil)
	ErrServiceUnavailable = New(http.StatusServiceUnavailable, "Service unavailable", nil)
)

// HandleError writes err as a JSON body on a plain http.ResponseWriter.
func HandleError(w http.ResponseWriter, err error) {
	appErr := From(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.Code)
	w.Write([]byte(appErr.JSON()))
}

// ErrorMiddleware renders the last error attached to the gin context.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			appErr := From(c.Errors.Last().Err)
			c.AbortWithStatusJSON(appErr.Code, appErr)
		}
	}
}

// Database error types
var (
	ErrDatabaseConnection  = New(http.StatusServiceUnavailable, "Database connection error", nil)
	ErrDatabaseQuery       = New(http.StatusInternalServerError, "Database query error", nil)
	ErrDatabaseTransaction = New(http.StatusInternalServerError, "Database transaction error", nil)
)

// Validation error types
var (
	ErrValidation   = New(http.StatusBadRequest, "Validation error", nil)
	ErrInvalidInput = New(http.StatusBadRequest, "Invalid input", nil)
)

// Checkout and payment error types
var (
	ErrEmptyCart              = New(http.StatusBadRequest, "Cart is empty", nil)
	ErrCourseUnavailable      = New(http.StatusBadRequest, "Course is no longer available", nil)
	ErrUnsupportedProvider    = New(http.StatusBadRequest, "Unsupported payment provider", nil)
	ErrProviderNotConfigured  = New(http.StatusServiceUnavailable, "Payment provider is not configured", nil)
	ErrGatewayUnavailable     = New(http.StatusBadGateway, "Payment gateway unavailable", nil)
	ErrInvalidSignature       = New(http.StatusBadRequest, "invalid confirmation", nil)
	ErrInvalidOrderTransition = New(http.StatusConflict, "Invalid order status transition", nil)
)

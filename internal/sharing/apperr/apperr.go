// Package apperr is the sharing server's error taxonomy: each component
// returns one of these kinds, and the handler layer has a single
// conversion from each kind to an HTTP status and JSON error body.
//
// Adapted from the teacher service's internal/errors.AppError: same
// struct shape and Response/ErrorHandler idiom, re-keyed to the six
// kinds the Delta Sharing protocol distinguishes.
package apperr

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Code is one of the taxonomy's error kinds.
type Code string

const (
	InvalidQueryParameters Code = "INVALID_QUERY_PARAMETERS"
	MalformedPagination    Code = "MALFORMED_PAGINATION"
	Unauthorized           Code = "UNAUTHORIZED"
	NotFound               Code = "RESOURCE_NOT_FOUND"
	UnsupportedOperation   Code = "UNSUPPORTED_OPERATION"
	Internal               Code = "INTERNAL_ERROR"
)

var statusByCode = map[Code]int{
	InvalidQueryParameters: http.StatusBadRequest,
	MalformedPagination:    http.StatusBadRequest,
	Unauthorized:           http.StatusUnauthorized,
	NotFound:               http.StatusNotFound,
	UnsupportedOperation:   http.StatusNotImplemented,
	Internal:               http.StatusInternalServerError,
}

// AppError is a structured, taxonomy-tagged application error.
type AppError struct {
	ErrCode    Code  `json:"errorCode"`
	Msg        string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("[%s] %s: %v", e.ErrCode, e.Msg, e.Internal)
	}
	return fmt.Sprintf("[%s] %s", e.ErrCode, e.Msg)
}

func new(code Code, message string) *AppError {
	return &AppError{ErrCode: code, Msg: message, StatusCode: statusByCode[code]}
}

// Constructors, one per taxonomy kind (spec.md §7).

func BadQueryParams(message string) *AppError {
	return new(InvalidQueryParameters, message)
}

func BadPagination(message string) *AppError {
	return new(MalformedPagination, message)
}

func NotAuthorized(message string) *AppError {
	return new(Unauthorized, message)
}

func Missing(resource string) *AppError {
	return new(NotFound, fmt.Sprintf("%s not found", resource))
}

func Unsupported(message string) *AppError {
	return new(UnsupportedOperation, message)
}

func InternalErr(message string, err error) *AppError {
	e := new(Internal, message)
	e.Internal = err
	return e
}

// WithInternal attaches an internal error for logging without changing the
// code or client-facing message.
func (e *AppError) WithInternal(err error) *AppError {
	e.Internal = err
	return e
}

// Response writes the error as the JSON envelope of spec.md §6:
// {"errorCode": "...", "message": "..."}.
func (e *AppError) Response(c *gin.Context) {
	if e.Internal != nil {
		c.Error(e.Internal)
	}
	c.JSON(e.StatusCode, gin.H{
		"errorCode": string(e.ErrCode),
		"message":   e.Msg,
	})
}

// ErrorHandler recovers panics in handlers and converts them to Internal
// responses instead of letting Gin's default recovery middleware produce
// an opaque 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				InternalErr("an unexpected error occurred", fmt.Errorf("%v", r)).Response(c)
				c.Abort()
			}
		}()
		c.Next()
	}
}

// HandleError responds with err's AppError shape if it is one, or wraps it
// as a generic Internal error otherwise.
func HandleError(c *gin.Context, err error) {
	if appErr, ok := err.(*AppError); ok {
		appErr.Response(c)
		return
	}
	InternalErr("an error occurred", err).Response(c)
}

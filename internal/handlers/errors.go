package handlers

import (
	"fmt"
	"net/http"
)

// Error is a failure at the handler boundary: Status and Detail go to the
// client, Err is only logged.
type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("%d %s: %v", e.Status, e.Detail, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func ServiceUnavailable(detail string, err error) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Detail: detail, Err: err}
}

func BadRequest(detail string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Detail: detail, Err: err}
}

func InternalError(detail string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Detail: detail, Err: err}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

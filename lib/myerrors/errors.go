package myerrors

import (
	"errors"
	"fmt"
	"net/http"
)

type httpErrorCoder interface {
	error
	GetHTTPErrorCode() int
}

type httpError struct {
	httpCode int
	err      error
}

func (e *httpError) Error() string {
	return fmt.Sprintf("status: %d, err: %s", e.httpCode, e.err.Error())
}

func (e *httpError) GetHTTPErrorCode() int {
	return e.httpCode
}

func (e *httpError) Unwrap() error {
	return e.err
}

func newError(httpCode int, err error) *httpError {
	return &httpError{
		httpCode: httpCode,
		err:      err,
	}
}

// NewInvalidInputError signals that the caller passed an argument that can never succeed.
func NewInvalidInputError(err error) error {
	return newError(http.StatusBadRequest, err)
}

func NewInvalidInputErrorf(format string, args ...any) error {
	return NewInvalidInputError(fmt.Errorf(format, args...))
}

// NewInvalidStateError signals that the arguments are fine but the target is not in a state
// that allows the operation.
func NewInvalidStateError(err error) error {
	return newError(http.StatusConflict, err)
}

func NewInvalidStateErrorf(format string, args ...any) error {
	return NewInvalidStateError(fmt.Errorf(format, args...))
}

func NewNotFoundError(err error) error {
	return newError(http.StatusNotFound, err)
}

func NewInternalError(err error) error {
	return newError(http.StatusInternalServerError, err)
}

func NewNotImplementedError(err error) error {
	return newError(http.StatusNotImplemented, err)
}

func NewUnavailableError(err error) error {
	return newError(http.StatusServiceUnavailable, err)
}

// GetHTTPStatus returns the status of the outermost coded error in the chain.
func GetHTTPStatus(err error) int {
	var coder httpErrorCoder
	if err != nil && errors.As(err, &coder) {
		return coder.GetHTTPErrorCode()
	}
	return http.StatusInternalServerError
}

func IsInvalidInput(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func IsInvalidState(err error) bool {
	return hasStatus(err, http.StatusConflict)
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func hasStatus(err error, status int) bool {
	var coder httpErrorCoder
	return errors.As(err, &coder) && coder.GetHTTPErrorCode() == status
}

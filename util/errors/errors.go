/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package errors

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/xid"
)

// Error extends error with
// additional context
type Error interface {
	error

	// ErrorCode returns the error code
	ErrorCode() ErrorCode
	// ErrorID returns the unique ID of this error instance
	ErrorID() string
	// Details returns the diagnostic values attached to the error (peer or orderer responses)
	Details() []interface{}
	// GenerateLogMsg generates the log message
	GenerateLogMsg() string
}

type customError struct {
	error
	code    ErrorCode
	errorID string
	details []interface{}
}

// New returns a new Error
func New(code ErrorCode, msg string) Error {
	return newError(code, errors.New(msg))
}

// Wrap returns a new Error
func Wrap(code ErrorCode, cause error, msg string) Error {
	return newError(code, errors.Wrap(cause, msg))
}

// Wrapf returns a new Error
func Wrapf(code ErrorCode, cause error, fmt string, args ...interface{}) Error {
	return newError(code, errors.Wrapf(cause, fmt, args...))
}

// Errorf returns a new Error
func Errorf(code ErrorCode, fmt string, args ...interface{}) Error {
	return newError(code, errors.Errorf(fmt, args...))
}

// WithMessage returns a new Error
func WithMessage(code ErrorCode, err error, msg string) Error {
	return newError(code, errors.WithMessage(err, msg))
}

// WithDetails returns a copy of the given Error with the given details appended
func WithDetails(err Error, details ...interface{}) Error {
	e := &customError{
		error:   err,
		code:    err.ErrorCode(),
		errorID: err.ErrorID(),
	}
	e.details = append(append(e.details, err.Details()...), details...)
	return e
}

// CreateError returns the coded error in err's chain, or wraps err with the given code
func CreateError(err error, code ErrorCode, msg string) Error {
	errorObj, ok := GetError(err)
	if !ok {
		errorObj = WithMessage(code, err, msg)
	}
	return errorObj
}

// GetError returns custom error
func GetError(err error) (Error, bool) {
	type causer interface {
		Cause() error
	}

	for err != nil {
		if s, ok := err.(Error); ok {
			return s, true
		}
		c, ok := err.(causer)
		if !ok {
			break
		}
		err = c.Cause()
	}

	return nil, false
}

// Code returns the code of the coded error in err's chain or GeneralError
func Code(err error) ErrorCode {
	if e, ok := GetError(err); ok {
		return e.ErrorCode()
	}
	return GeneralError
}

// HasCode returns true if err is a coded error with the given code
func HasCode(err error, code ErrorCode) bool {
	e, ok := GetError(err)
	return ok && e.ErrorCode() == code
}

func newError(code ErrorCode, err error) *customError {
	return &customError{
		error:   err,
		code:    code,
		errorID: generateErrorID(),
	}
}

// generateErrorID return error ID
func generateErrorID() string {
	return xid.New().String()
}

// ErrorCode returns the error code
func (e *customError) ErrorCode() ErrorCode {
	return e.code
}

// ErrorID returns the error ID
func (e *customError) ErrorID() string {
	return e.errorID
}

// Details returns the attached details
func (e *customError) Details() []interface{} {
	return e.details
}

// Cause returns the underlying error so that errors.Cause reaches the root
func (e *customError) Cause() error {
	return e.error
}

// GenerateLogMsg returns the log msg
func (e *customError) GenerateLogMsg() string {
	if len(e.details) == 0 {
		return fmt.Sprintf("errorID:%s errorCode:%s error:%v", e.errorID, e.code, e.error)
	}
	return fmt.Sprintf("errorID:%s errorCode:%s error:%v details:%v", e.errorID, e.code, e.error, e.details)
}

package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the different kinds of failure a run can hit
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeAPI         ErrorType = "api"
	ErrorTypeContentType ErrorType = "content_type"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a typed transport or decoding error
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// APIError is a Flickr response with stat "fail"
type APIError struct {
	Method  string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("flickr %s failed (code %d): %s", e.Method, e.Code, e.Message)
}

// Tier says how far an error propagates.
type Tier int

const (
	// TierItem errors degrade a single photo; the run continues.
	TierItem Tier = iota
	// TierPage errors abort the run while walking the listing.
	TierPage
	// TierFatal errors abort before any photo is processed.
	TierFatal
)

func (t Tier) String() string {
	switch t {
	case TierItem:
		return "item"
	case TierPage:
		return "page"
	case TierFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// TieredError marks an error with the tier it was raised at
type TieredError struct {
	Tier Tier
	Err  error
}

func (e *TieredError) Error() string {
	return e.Err.Error()
}

func (e *TieredError) Unwrap() error {
	return e.Err
}

// Fatal wraps err as a setup failure.
func Fatal(format string, args ...interface{}) error {
	return &TieredError{Tier: TierFatal, Err: fmt.Errorf(format, args...)}
}

// Page wraps err as a listing failure.
func Page(format string, args ...interface{}) error {
	return &TieredError{Tier: TierPage, Err: fmt.Errorf(format, args...)}
}

// TierOf reports the tier of err. Untiered errors are item errors.
func TierOf(err error) Tier {
	var te *TieredError
	if stderrors.As(err, &te) {
		return te.Tier
	}
	return TierItem
}

// TypeOf extracts the ErrorType carried by err, if any
func TypeOf(err error) ErrorType {
	var typed *Error
	if stderrors.As(err, &typed) {
		return typed.Type
	}
	var api *APIError
	if stderrors.As(err, &api) {
		if api.Code == 98 || api.Code == 99 {
			return ErrorTypeAuth
		}
		if api.Code == 1 {
			return ErrorTypeNotFound
		}
		return ErrorTypeAPI
	}
	return ErrorTypeUnknown
}

// TypeForStatusCode maps an HTTP status onto an ErrorType
func TypeForStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 404:
		return ErrorTypeNotFound
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode == 0:
		return ErrorTypeNetwork
	default:
		return ErrorTypeUnknown
	}
}

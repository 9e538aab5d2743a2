package amap

import (
	"errors"
	"fmt"
)

// CodeServiceFailure is reported for transport failures and unknown provider faults.
const CodeServiceFailure = "30000"

var (
	// ErrQuotaExceeded matches any QuotaExceededError via errors.Is.
	ErrQuotaExceeded = errors.New("amap: daily quota exceeded")
	// ErrNotFound is returned when the provider answers successfully with no result.
	ErrNotFound = errors.New("amap: no result")
)

// ServiceError is a request the provider rejected, or one that never reached it.
type ServiceError struct {
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("amap error %s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("amap error %s: %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

// QuotaExceededError is the local daily budget for a path running out.
type QuotaExceededError struct {
	Path  string
	Limit int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("amap: daily quota of %d exceeded for %s", e.Limit, e.Path)
}

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// DecodeError is a response body that is not valid JSON.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("amap: decode response of %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// newServiceError maps a provider info code to its message, falling back to info.
func newServiceError(code, info string) *ServiceError {
	if msg, ok := tables.InfoCodes[code]; ok {
		return &ServiceError{Code: code, Message: msg}
	}
	if info == "" {
		info = "未知错误"
	}
	return &ServiceError{Code: code, Message: info}
}

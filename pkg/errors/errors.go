package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindConflict
	KindUnauthorized
	KindNotFound
	KindBadRequest
	KindRateLimited
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindNotFound:
		return "not_found"
	case KindBadRequest:
		return "bad_request"
	case KindRateLimited:
		return "rate_limited"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

type Code string

const (
	CodeUserAlreadyExists   Code = "USER_ALREADY_EXISTS"
	CodeInvalidCredentials  Code = "INVALID_CREDENTIALS"
	CodeInvalidRefreshToken Code = "INVALID_REFRESH_TOKEN"
	CodeInvalidToken        Code = "INVALID_TOKEN"
	CodeUnauthenticated     Code = "UNAUTHENTICATED"
	CodeUserNotFound        Code = "USER_NOT_FOUND"
	CodeDeviceNotFound      Code = "DEVICE_NOT_FOUND"
	CodeOrderNotFound       Code = "ORDER_NOT_FOUND"
	CodePaymentNotFound     Code = "PAYMENT_NOT_FOUND"
	CodeInvalidResetCode    Code = "INVALID_OR_EXPIRED_CODE"
	CodeInvalidPushToken    Code = "INVALID_PUSH_TOKEN"
	CodeInvalidOrder        Code = "INVALID_ORDER"
	CodeValidation          Code = "VALIDATION_ERROR"
	CodeInvalidSignature    Code = "INVALID_SIGNATURE"
	CodeTooManyAttempts     Code = "TOO_MANY_ATTEMPTS"
	CodeNoPushToken         Code = "NO_PUSH_TOKEN"
	CodeNoActiveDevices     Code = "NO_ACTIVE_DEVICES"
	CodeInternal            Code = "INTERNAL_ERROR"
)

var codeKinds = map[Code]Kind{
	CodeUserAlreadyExists:   KindConflict,
	CodeInvalidCredentials:  KindUnauthorized,
	CodeInvalidRefreshToken: KindUnauthorized,
	CodeInvalidToken:        KindUnauthorized,
	CodeUnauthenticated:     KindUnauthorized,
	CodeUserNotFound:        KindNotFound,
	CodeDeviceNotFound:      KindNotFound,
	CodeOrderNotFound:       KindNotFound,
	CodePaymentNotFound:     KindNotFound,
	CodeInvalidResetCode:    KindBadRequest,
	CodeInvalidPushToken:    KindBadRequest,
	CodeInvalidOrder:        KindBadRequest,
	CodeValidation:          KindBadRequest,
	CodeInvalidSignature:    KindBadRequest,
	CodeTooManyAttempts:     KindRateLimited,
	CodeNoPushToken:         KindUnavailable,
	CodeNoActiveDevices:     KindUnavailable,
	CodeInternal:            KindInternal,
}

// KindFor returns the kind registered for code.
func KindFor(code Code) Kind {
	if k, ok := codeKinds[code]; ok {
		return k
	}
	return KindInternal
}

var (
	ErrUserAlreadyExists   = newSentinel(CodeUserAlreadyExists, "user already exists")
	ErrInvalidCredentials  = newSentinel(CodeInvalidCredentials, "invalid email or password")
	ErrInvalidRefreshToken = newSentinel(CodeInvalidRefreshToken, "invalid refresh token")
	ErrInvalidToken        = newSentinel(CodeInvalidToken, "invalid or expired token")
	ErrUnauthenticated     = newSentinel(CodeUnauthenticated, "authentication required")

	ErrUserNotFound    = newSentinel(CodeUserNotFound, "user not found")
	ErrDeviceNotFound  = newSentinel(CodeDeviceNotFound, "device not found")
	ErrOrderNotFound   = newSentinel(CodeOrderNotFound, "order not found")
	ErrPaymentNotFound = newSentinel(CodePaymentNotFound, "payment not found")

	ErrInvalidResetCode = newSentinel(CodeInvalidResetCode, "invalid or expired code")
	ErrInvalidPushToken = newSentinel(CodeInvalidPushToken, "invalid push token")
	ErrInvalidOrder     = newSentinel(CodeInvalidOrder, "invalid order amount or items")
	ErrInvalidSignature = newSentinel(CodeInvalidSignature, "invalid webhook signature")

	ErrTooManyAttempts = newSentinel(CodeTooManyAttempts, "too many attempts, try again later")

	ErrNoPushToken     = newSentinel(CodeNoPushToken, "device has no active push token")
	ErrNoActiveDevices = newSentinel(CodeNoActiveDevices, "user has no devices with notifications enabled")
)

// AppError is the typed failure raised by the use-case layer.
type AppError struct {
	Code    Code
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func NewAppError(code Code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindFor(code),
		Message: message,
		Err:     err,
	}
}

// Validation wraps a validator failure.
func Validation(err error) *AppError {
	return NewAppError(CodeValidation, "Invalid input", err)
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func newSentinel(code Code, message string) *AppError {
	return NewAppError(code, message, nil)
}

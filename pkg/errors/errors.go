package errors

import (
	"errors"
	"net/http"
)

var (
	// auth gate
	ErrUnauthorized     = errors.New("authentication required")
	ErrInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrMalformedToken   = errors.New("token is malformed")
	ErrSigningFailure   = errors.New("failed to sign token")

	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidInput         = errors.New("invalid input")
	ErrForbidden            = errors.New("user may not perform that action")
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrNilUser              = errors.New("user is nil")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrCannotFollowSelf     = errors.New("cannot follow yourself")
	ErrArticleNotFound      = errors.New("article not found")
	ErrArticleAlreadyExists = errors.New("article with this slug already exists")
	ErrNilArticle           = errors.New("article is nil")
	ErrInternal             = errors.New("internal server error")
)

const (
	CodeBadRequest   = 40000
	CodeUnauthorized = 40001
	CodeValidation   = 40002
	CodeForbidden    = 40003
	CodeNotFound     = 40004
	CodeConflict     = 40009
	CodeInternal     = 50000
)

// AppError is the client-facing shape of every failure.
type AppError struct {
	Status  int    `json:"-"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// ValidationError carries a field-level message and unwraps to ErrInvalidInput.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// FromError maps any error onto the response taxonomy. Unknown errors become a
// generic 500 so that driver or wrapping detail never reaches the client.
func FromError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var validationErr *ValidationError
	switch {
	case errors.Is(err, ErrSigningFailure):
		return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: ErrInternal.Error()}
	case errors.Is(err, ErrUnauthorized):
		return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: ErrUnauthorized.Error()}
	case errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrTokenExpired),
		errors.Is(err, ErrMalformedToken),
		errors.Is(err, ErrInvalidCredentials):
		return &AppError{Status: http.StatusUnauthorized, Code: CodeUnauthorized, Message: rootMessage(err)}
	case errors.As(err, &validationErr):
		return &AppError{Status: http.StatusUnprocessableEntity, Code: CodeValidation, Message: validationErr.Error()}
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrCannotFollowSelf):
		return &AppError{Status: http.StatusBadRequest, Code: CodeBadRequest, Message: rootMessage(err)}
	case errors.Is(err, ErrForbidden):
		return &AppError{Status: http.StatusForbidden, Code: CodeForbidden, Message: ErrForbidden.Error()}
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrProfileNotFound), errors.Is(err, ErrArticleNotFound):
		return &AppError{Status: http.StatusNotFound, Code: CodeNotFound, Message: rootMessage(err)}
	case errors.Is(err, ErrUserAlreadyExists), errors.Is(err, ErrArticleAlreadyExists):
		return &AppError{Status: http.StatusConflict, Code: CodeConflict, Message: rootMessage(err)}
	default:
		return &AppError{Status: http.StatusInternalServerError, Code: CodeInternal, Message: ErrInternal.Error()}
	}
}

var known = []error{
	ErrInvalidSignature, ErrTokenExpired, ErrMalformedToken, ErrInvalidCredentials,
	ErrInvalidInput, ErrCannotFollowSelf, ErrUserNotFound, ErrProfileNotFound,
	ErrArticleNotFound, ErrUserAlreadyExists, ErrArticleAlreadyExists,
}

// rootMessage returns the sentinel's own text rather than the wrapped chain.
func rootMessage(err error) string {
	for _, sentinel := range known {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}

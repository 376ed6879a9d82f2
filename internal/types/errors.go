package types

import "errors"

// ErrorCode identifies an expected business failure. The set is closed; the
// HTTP layer maps each code to a status class in exactly one place.
type ErrorCode string

const (
	CodeInvalidCredentials  ErrorCode = "INVALID_CREDENTIALS"
	CodeAccountDeactivated  ErrorCode = "ACCOUNT_DEACTIVATED"
	CodeInvalidRefreshToken ErrorCode = "INVALID_REFRESH_TOKEN"
	CodeRefreshTokenExpired ErrorCode = "REFRESH_TOKEN_EXPIRED"
	CodeEmailExists         ErrorCode = "EMAIL_EXISTS"
	CodeUsernameExists      ErrorCode = "USERNAME_EXISTS"
	CodeCreateFailed        ErrorCode = "CREATE_FAILED"
	CodeUpdateFailed        ErrorCode = "UPDATE_FAILED"
	CodeAuthorNotFound      ErrorCode = "AUTHOR_NOT_FOUND"
	CodePostNotFound        ErrorCode = "POST_NOT_FOUND"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeDeleteFailed        ErrorCode = "DELETE_FAILED"
	CodeFetchFailed         ErrorCode = "FETCH_FAILED"
	CodeUserNotFound        ErrorCode = "USER_NOT_FOUND"
	CodeSelfDeleteForbidden ErrorCode = "SELF_DELETE_FORBIDDEN"
	CodeUploadFailed        ErrorCode = "UPLOAD_FAILED"
)

// DomainError is an expected business failure carrying a stable machine
// readable code and a human readable message. Services return these as plain
// errors; anything that is not a DomainError is treated as an infrastructure
// or programming fault.
type DomainError struct {
	Code    ErrorCode
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError with the given code and message.
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// AsDomainError unwraps err into a DomainError, or returns nil when err is
// not a business failure.
func AsDomainError(err error) *DomainError {
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return nil
}

// Canonical failures shared across services.
var (
	ErrInvalidCredentials  = NewDomainError(CodeInvalidCredentials, "Invalid email or password")
	ErrAccountDeactivated  = NewDomainError(CodeAccountDeactivated, "Account is deactivated")
	ErrInvalidRefreshToken = NewDomainError(CodeInvalidRefreshToken, "Invalid refresh token")
	ErrRefreshTokenExpired = NewDomainError(CodeRefreshTokenExpired, "Refresh token has expired")
	ErrEmailExists         = NewDomainError(CodeEmailExists, "Email already registered")
	ErrUsernameExists      = NewDomainError(CodeUsernameExists, "Username already taken")
	ErrUserNotFound        = NewDomainError(CodeUserNotFound, "User not found")
	ErrPostNotFound        = NewDomainError(CodePostNotFound, "Post not found")
	ErrAuthorNotFound      = NewDomainError(CodeAuthorNotFound, "Author not found")
	ErrSelfDeleteForbidden = NewDomainError(CodeSelfDeleteForbidden, "Cannot delete your own account")
)

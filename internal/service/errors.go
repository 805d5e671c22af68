package service

import "errors"

var (
	// ErrValidation marks required-field failures before any store call.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is the registration conflict, propagated from the
	// credential store without retry.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	// The two cases are deliberately indistinguishable at this boundary.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUserNotFound means the account vanished between credential
	// verification and lookup. Not user-actionable.
	ErrUserNotFound = errors.New("user not found")

	ErrInvalidToken = errors.New("invalid refresh token")
	ErrTokenExpired = errors.New("refresh token expired")
)

package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrUserNotExist indicates no persistent user matches the identity.
	ErrUserNotExist = errors.New("user does not exist")
	// ErrUserIsWrong indicates the authenticated user does not own the resource.
	ErrUserIsWrong = errors.New("user is wrong")
	// ErrPassWordError indicates a credential mismatch.
	ErrPassWordError = errors.New("password error")
	// ErrSessionNotFound indicates that no cached session exists for the user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUnauthorized indicates a missing or invalid bearer token.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden indicates the authorization mask lacks a required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrValidation indicates a malformed request.
	ErrValidation = errors.New("invalid request")
	// ErrInternal wraps backing-resource failures.
	ErrInternal = errors.New("internal error")
)

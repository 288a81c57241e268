package session

import "errors"

var (
	UnknownRoleErr    = errors.New("unknown role")
	StorageFailureErr = errors.New("session storage failure")
	EmptyTokenErr     = errors.New("token is required")
	EmptyUserIDErr    = errors.New("user id is required")
)

package errors

import "fmt"

var (
	ErrValidation    = fmt.Errorf("invalid input")
	ErrNotFound      = fmt.Errorf("not found")
	ErrAlreadyMember = fmt.Errorf("already a member")
	ErrNotMember     = fmt.Errorf("not a member")
	ErrPersistence   = fmt.Errorf("persistence failure")
	ErrProtocol      = fmt.Errorf("malformed event")

	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserAlreadyExists  = fmt.Errorf("user already exists")
	ErrInvalidPassword    = fmt.Errorf("password too weak")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

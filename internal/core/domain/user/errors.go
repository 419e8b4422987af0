package user

import (
	"errors"
)

var (
	ErrUserDoesNotExist = errors.New("user does not exist")
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrWeakPassword     = errors.New("password does not satisfy the password policy")
)

type WeakPasswordError struct {
	reason string
}

func (e *WeakPasswordError) Error() string {
	return "password " + e.reason
}

func (e *WeakPasswordError) Is(target error) bool {
	return target == ErrWeakPassword
}

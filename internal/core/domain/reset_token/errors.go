package resettoken

import "errors"

var (
	ErrTokenDoesNotExist  = errors.New("password reset token does not exist")
	ErrInvalidToken       = errors.New("invalid or expired password reset token")
	ErrEntropyUnavailable = errors.New("entropy source is unavailable")
	ErrResetFailed        = errors.New("password reset failed")
)

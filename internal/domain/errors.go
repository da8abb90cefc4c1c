package domain

import "errors"

var (
	ErrServerUnreachable = errors.New("media server unreachable")
	ErrInvalidResponse   = errors.New("invalid media server response")
)

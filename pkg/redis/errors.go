package redis

import "errors"

var (
	ErrMissingURL  = errors.New("redis: connection URL is empty")
	ErrInvalidURL  = errors.New("redis: connection URL is not valid")
	ErrUnreachable = errors.New("redis: server unreachable")
	ErrPing        = errors.New("redis: ping failed")
)

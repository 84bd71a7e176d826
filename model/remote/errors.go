package remote

import "errors"

var (
	errUnauthorized = errors.New("invalid application key or hmac")
	errNotFound     = errors.New("not found")
	errBadRequest   = errors.New("bad request")
	errNoSession    = errors.New("no such session")
)

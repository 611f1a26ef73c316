package igloohome

import "errors"

// Setup failures. Start wraps the vendor error with one of these so the
// caller can tell bad credentials from an unreachable cloud.
var (
	ErrInvalidAuth   = errors.New("invalid igloohome credentials")
	ErrCannotConnect = errors.New("cannot connect to igloohome")
)

package gate

import "errors"

// Sentinel errors returned by Gate.Authorize. Match them with errors.Is.
var (
	ErrUnauthorized    = errors.New("unauthorized")
	ErrNoPolicyDefined = errors.New("no policy defined for resource")
)

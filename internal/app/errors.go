package service

import "errors"

// Sentinel kinds for pipeline errors.
var (
	ErrListing   = errors.New("roll-call listing failed")
	ErrIntegrity = errors.New("snapshot integrity check failed")
)

package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound = errors.New("vote record not found")
	ErrLoad     = errors.New("load snapshot failed")
	ErrPersist  = errors.New("persist snapshot failed")
)

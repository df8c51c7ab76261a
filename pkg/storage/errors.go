package storage

import "github.com/pkg/errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrForbidden     = errors.New("caller may not act on identifier")
	ErrConflict      = errors.New("identifier was modified concurrently")
	ErrAlreadyExists = errors.New("identifier already exists")
)

package models

import "errors"

// ErrNotFound is returned by every persistence lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when a write would break a unique constraint.
var ErrConflict = errors.New("record already exists")

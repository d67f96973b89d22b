package domain

import (
	"errors"
	"fmt"
)

// Base error kinds. Packages wrap these with their own sentinels so the
// transport layer can map them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
)

var ErrInvalidDay = fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)

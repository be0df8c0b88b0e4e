package repository

import "errors"

// ErrProductNotFound is returned when no product matches the requested marketplace id.
var ErrProductNotFound = errors.New("product not found")

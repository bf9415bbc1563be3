package domain

import "errors"

// ErrUnknownBackend indicates a factory has no builder for a backend id.
var ErrUnknownBackend = errors.New("unknown backend")

// ErrBackendNotFound indicates a catalog lookup by id found nothing.
var ErrBackendNotFound = errors.New("backend not found")

package service

import "errors"

// Errors returned by the services. The API layer maps each one to a single
// HTTP status; see api.respondWithServiceError.
var (
	ErrDuplicateUsername  = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrUnauthorized       = errors.New("could not validate credentials")
	ErrBadRequest         = errors.New("bad request")
	ErrNotFound           = errors.New("file not found")
	ErrStorage            = errors.New("storage error")
)

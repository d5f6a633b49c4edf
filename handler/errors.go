package handler

import "errors"

var (
	// ErrDuplicateHandler is returned when registering a handler ID that is
	// already registered.
	ErrDuplicateHandler = errors.New("handler: handler already registered")

	// ErrDuplicatePermission is returned when a handler declares the same
	// permission name more than once in its own Permissions() list.
	ErrDuplicatePermission = errors.New("handler: permission declared more than once by handler")
)

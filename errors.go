package actiongate

import "errors"

var (
	// ErrUnknownHandler is returned when a handler_id has no registered handler.
	ErrUnknownHandler = errors.New("actiongate: unknown handler")

	// ErrUnknownAction is returned when an action ID does not exist.
	ErrUnknownAction = errors.New("actiongate: unknown action")

	// ErrUnknownPermission is returned when a permission name is not defined
	// by the handler registered under the given handler ID.
	ErrUnknownPermission = errors.New("actiongate: unknown permission")

	// ErrUnknownGrant is returned when a grant ID does not exist.
	ErrUnknownGrant = errors.New("actiongate: unknown grant")

	// ErrUnknownScopeKey is returned when a GrantPermission or
	// CheckPermission scope contains a key not present in the permission's
	// parameter schema.
	ErrUnknownScopeKey = errors.New("actiongate: unknown scope key")

	// ErrInvalidTransition is returned for a state-machine violation, such
	// as approving or denying an action that is not PENDING.
	ErrInvalidTransition = errors.New("actiongate: invalid action state transition")

	// ErrPermissionStillMissing is returned by ApproveAction when no
	// matching grant exists at approval time.
	ErrPermissionStillMissing = errors.New("actiongate: permission still missing")

	// ErrHandlerExecution wraps an error raised by a handler's Execute
	// method. It is recorded on the action row, never propagated to the
	// caller of RequestAction/ApproveAction.
	ErrHandlerExecution = errors.New("actiongate: handler execution failed")

	// ErrStorageFailure wraps a persistence failure. Unlike the errors
	// above, it is propagated to the caller because the action's
	// durability cannot be guaranteed.
	ErrStorageFailure = errors.New("actiongate: storage failure")
)

package actiongate

import "context"

// Cache provides caching for permission check results, keyed by the
// (handlerID, permissionName, scope) tuple a check was evaluated against.
type Cache interface {
	// Get returns a cached check result, if available.
	Get(ctx context.Context, handlerID, permissionName string, scope map[string]string) (bool, bool)

	// Set stores a check result in the cache.
	Set(ctx context.Context, handlerID, permissionName string, scope map[string]string, allowed bool)

	// InvalidateHandler removes all cached results for a handler. Called
	// whenever a grant is created or revoked for that handler, since any
	// cached negative or positive result may now be stale.
	InvalidateHandler(ctx context.Context, handlerID string)
}

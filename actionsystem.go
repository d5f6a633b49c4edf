// Package actiongate implements a zero-trust action authorization core: a
// handler registers named actions and the permissions they require, callers
// request actions by name, and the system gates execution behind
// scope-parameterized grants, queuing a request as PENDING when no grant
// covers it yet.
//
//	sys := actiongate.New(
//	    actiongate.WithStore(memory.New()),
//	)
//	sys.RegisterHandler(echoHandler)
//	req, err := sys.RequestAction(ctx, "echo", "speak", map[string]any{
//	    "topic": "hello",
//	})
//	if req.Status == action.StatusPending {
//	    sys.GrantPermission(ctx, "echo", "speak", map[string]string{"topic": "hello"},
//	        actiongate.ExpirationOneHour, "user_123")
//	    req, err = sys.ApproveAction(ctx, req.ID.String())
//	}
package actiongate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/arborian/actiongate/action"
	"github.com/arborian/actiongate/clock"
	"github.com/arborian/actiongate/grant"
	"github.com/arborian/actiongate/handler"
	"github.com/arborian/actiongate/id"
	"github.com/arborian/actiongate/store"
)

// ActionSystem is the orchestrator tying together handler registration,
// permission checking, and action lifecycle management behind a single
// exclusive lock. Every public method holds that lock for its duration —
// the core favors simplicity and strict serializability over throughput,
// the same tradeoff the spec's reference semantics make explicit.
type ActionSystem struct {
	mu sync.Mutex

	store    store.Store
	clock    clock.Clock
	cache    Cache
	logger   *slog.Logger
	config   Config
	events   *EventBus
	registry *handler.Registry
	perms    *permissionManager
}

// New constructs an ActionSystem. WithStore is required; all other options
// have sensible defaults (clock.Real{}, no cache, slog.Default(),
// DefaultConfig(), a fresh EventBus).
func New(opts ...Option) *ActionSystem {
	a := &ActionSystem{
		clock:    clock.Real{},
		logger:   slog.Default(),
		config:   DefaultConfig(),
		registry: handler.NewRegistry(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.events == nil {
		a.events = NewEventBus(a.logger)
	}

	a.perms = &permissionManager{
		store:  a.store,
		clk:    a.clock,
		cache:  a.cache,
		config: a.config,
		events: a.events,
	}

	return a
}

// RegisterHandler adds h to the registry. Returns ErrDuplicateHandler or
// ErrDuplicatePermission on collision.
func (a *ActionSystem) RegisterHandler(h handler.Handler) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.registry.Register(h)
}

// ListToolSchemas returns every registered handler's AsToolSchema(), sorted
// by handler ID, for AI-agent tool registration.
func (a *ActionSystem) ListToolSchemas() []map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()

	handlers := a.registry.List()
	schemas := make([]map[string]any, len(handlers))
	for i, h := range handlers {
		schemas[i] = h.AsToolSchema()
	}
	return schemas
}

// RequestAction resolves the handler for handlerID, determines whether
// actionName requires a permission, and either executes immediately (no
// permission required, or a covering grant already exists) or persists the
// action PENDING and emits TopicActionEnqueued/TopicPermissionNeeded.
func (a *ActionSystem) RequestAction(ctx context.Context, handlerID, actionName string, params map[string]any) (*action.Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.registry.Get(handlerID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownHandler, handlerID)
	}

	permissionName, scope, needsPermission := h.GetRequiredPermission(actionName, params)

	req := &action.Request{
		ID:         id.NewActionID(),
		HandlerID:  handlerID,
		ActionName: actionName,
		Params:     params,
		Status:     action.StatusPending,
		CreatedAt:  a.clock.Now(),
	}

	if needsPermission {
		req.RequiredPermissionName = permissionName
		req.RequiredScope = scope

		allowed, err := a.perms.Check(ctx, handlerID, permissionName, scope)
		if err != nil {
			return nil, err
		}

		if !allowed {
			if err := a.store.CreateAction(ctx, req); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
			}
			a.events.Emit(TopicActionEnqueued, &ActionEvent{
				ActionID: req.ID.String(), HandlerID: handlerID, ActionName: actionName, Status: string(req.Status),
			})
			a.events.Emit(TopicPermissionNeeded, &PermissionEvent{
				HandlerID: handlerID, PermissionName: permissionName, Scope: scope,
			})
			return req, nil
		}
	}

	return a.runAction(ctx, h, req, false)
}

// ApproveAction re-checks the required permission for a PENDING action and,
// if a covering grant now exists, executes it. Returns ErrInvalidTransition
// if the action is not PENDING, or ErrPermissionStillMissing if no grant
// covers it yet (the action remains PENDING).
func (a *ActionSystem) ApproveAction(ctx context.Context, actionID string) (*action.Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	req, h, err := a.loadPendingAction(ctx, actionID)
	if err != nil {
		return nil, err
	}

	if req.RequiredPermissionName != "" {
		allowed, err := a.perms.Check(ctx, req.HandlerID, req.RequiredPermissionName, req.RequiredScope)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, ErrPermissionStillMissing
		}
	}

	return a.runAction(ctx, h, req, true)
}

// DenyAction marks a PENDING action FAILED without executing it, recording
// reason on the action's Error field for audit. Returns ErrInvalidTransition
// if the action is not PENDING.
func (a *ActionSystem) DenyAction(ctx context.Context, actionID, reason string) (*action.Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	req, _, err := a.loadPendingAction(ctx, actionID)
	if err != nil {
		return nil, err
	}

	req.Status = action.StatusFailed
	req.Error = fmt.Sprintf("denied: %s", reason)
	now := a.clock.Now()
	req.CompletedAt = &now

	if err := a.store.UpdateAction(ctx, req); err != nil {
		return nil, wrapUpdateErr(err)
	}

	a.events.Emit(TopicActionFailed, &ActionEvent{
		ActionID: req.ID.String(), HandlerID: req.HandlerID, ActionName: req.ActionName, Status: string(req.Status),
	})

	return req, nil
}

// GetAction retrieves an action request by ID.
func (a *ActionSystem) GetAction(ctx context.Context, actionID string) (*action.Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	aid, err := id.ParseActionID(actionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}
	req, err := a.store.GetAction(ctx, aid)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}
	return req, nil
}

// ListPendingActions returns all actions awaiting approval or denial.
func (a *ActionSystem) ListPendingActions(ctx context.Context) ([]*action.Request, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	reqs, err := a.store.ListPendingActions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	return reqs, nil
}

// GrantPermission creates a scope-parameterized grant for handlerID's
// permissionName. permissionName must be defined by a registered handler.
func (a *ActionSystem) GrantPermission(ctx context.Context, handlerID, permissionName string, scope map[string]string, expiration Expiration, grantedBy string) (*grant.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	def, ok := a.registry.FindPermission(handlerID, permissionName)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not defined by handler %q", ErrUnknownPermission, permissionName, handlerID)
	}

	return a.perms.Grant(ctx, handlerID, def, scope, expiration, grantedBy)
}

// RevokePermission revokes a previously issued grant. Idempotent.
func (a *ActionSystem) RevokePermission(ctx context.Context, grantID string) (*grant.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.perms.Revoke(ctx, grantID)
}

// CheckPermission reports whether a covering, active grant exists for
// (handlerID, permissionName, scope), without side effects. Returns
// ErrUnknownScopeKey if scope has a key outside the permission's
// ParameterSchema.
func (a *ActionSystem) CheckPermission(ctx context.Context, handlerID, permissionName string, scope map[string]string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if def, ok := a.registry.FindPermission(handlerID, permissionName); ok {
		for k := range scope {
			if _, known := def.ParameterSchema[k]; !known {
				return false, fmt.Errorf("%w: %q", ErrUnknownScopeKey, k)
			}
		}
	}
	return a.perms.Check(ctx, handlerID, permissionName, scope)
}

// ListGrants returns grants matching filter.
func (a *ActionSystem) ListGrants(ctx context.Context, filter *grant.ListFilter) ([]*grant.Grant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.perms.ListGrants(ctx, filter)
}

// loadPendingAction fetches the action and its owning handler, verifying the
// action is currently PENDING. Caller must hold a.mu.
func (a *ActionSystem) loadPendingAction(ctx context.Context, actionID string) (*action.Request, handler.Handler, error) {
	aid, err := id.ParseActionID(actionID)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}

	req, err := a.store.GetAction(ctx, aid)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownAction, err)
	}

	if req.Status != action.StatusPending {
		return nil, nil, fmt.Errorf("%w: action %s is %s, not pending", ErrInvalidTransition, actionID, req.Status)
	}

	h, ok := a.registry.Get(req.HandlerID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownHandler, req.HandlerID)
	}

	return req, h, nil
}

// wrapUpdateErr maps a store-layer write failure to the appropriate
// sentinel: an illegal status transition rejected at the store boundary
// surfaces as ErrInvalidTransition, anything else as ErrStorageFailure.
func wrapUpdateErr(err error) error {
	if errors.Is(err, store.ErrInvalidTransition) {
		return fmt.Errorf("%w: %v", ErrInvalidTransition, err)
	}
	return fmt.Errorf("%w: %v", ErrStorageFailure, err)
}

// runAction transitions req through RUNNING to COMPLETED/FAILED, invoking
// the handler's Execute. A handler error is recorded on the action row and
// never propagated to the caller; a storage error is propagated. alreadyPersisted
// indicates req already has a row in the store (the ApproveAction path);
// otherwise runAction creates it. Caller must hold a.mu.
func (a *ActionSystem) runAction(ctx context.Context, h handler.Handler, req *action.Request, alreadyPersisted bool) (*action.Request, error) {
	req.Status = action.StatusRunning

	var err error
	if alreadyPersisted {
		err = a.store.UpdateAction(ctx, req)
		if err != nil {
			return nil, wrapUpdateErr(err)
		}
	} else {
		err = a.store.CreateAction(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
		}
	}

	result, execErr := h.Execute(ctx, req.ActionName, req.Params)

	now := a.clock.Now()
	req.CompletedAt = &now

	if execErr != nil {
		req.Status = action.StatusFailed
		req.Error = execErr.Error()
		a.logger.Warn("handler execution failed",
			slog.String("handler_id", req.HandlerID),
			slog.String("action_name", req.ActionName),
			slog.String("action_id", req.ID.String()),
			slog.Any("error", fmt.Errorf("%w: %v", ErrHandlerExecution, execErr)),
		)
	} else {
		req.Status = action.StatusCompleted
		req.Result = result
	}

	if err := a.store.UpdateAction(ctx, req); err != nil {
		return nil, wrapUpdateErr(err)
	}

	topic := TopicActionCompleted
	if req.Status == action.StatusFailed {
		topic = TopicActionFailed
	}
	a.events.Emit(topic, &ActionEvent{
		ActionID: req.ID.String(), HandlerID: req.HandlerID, ActionName: req.ActionName, Status: string(req.Status),
	})

	return req, nil
}

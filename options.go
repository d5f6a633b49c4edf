package actiongate

import (
	"log/slog"

	"github.com/arborian/actiongate/clock"
	"github.com/arborian/actiongate/store"
)

// Option is a functional option for the ActionSystem.
type Option func(*ActionSystem)

// WithStore sets the composite store.
func WithStore(s store.Store) Option { return func(a *ActionSystem) { a.store = s } }

// WithClock sets the time source used for expiration evaluation.
func WithClock(c clock.Clock) Option { return func(a *ActionSystem) { a.clock = c } }

// WithCache sets the permission check result cache.
func WithCache(c Cache) Option { return func(a *ActionSystem) { a.cache = c } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(a *ActionSystem) { a.logger = l } }

// WithConfig sets the system configuration.
func WithConfig(c Config) Option { return func(a *ActionSystem) { a.config = c } }

// WithEventBus sets the event bus. Useful for tests that want to inspect
// or pre-subscribe to events before the system is used.
func WithEventBus(eb *EventBus) Option { return func(a *ActionSystem) { a.events = eb } }

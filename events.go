package actiongate

import (
	"log/slog"
	"sync"
)

// Topic identifies one of the six fixed event categories an ActionSystem
// emits. Unlike warden/plugin's per-entity-type hook interfaces, ActionGate
// has a small, fixed topic set with one payload shape per topic, so a
// single Topic-keyed subscriber map replaces the teacher's N typed hooks.
type Topic string

const (
	// TopicActionEnqueued fires when an action is persisted PENDING because
	// no matching grant exists yet. Payload: *ActionEvent.
	TopicActionEnqueued Topic = "action_enqueued"

	// TopicActionCompleted fires when an action finishes successfully.
	// Payload: *ActionEvent.
	TopicActionCompleted Topic = "action_completed"

	// TopicActionFailed fires when an action's handler raises, or when an
	// approval is denied. Payload: *ActionEvent.
	TopicActionFailed Topic = "action_failed"

	// TopicPermissionNeeded fires alongside TopicActionEnqueued, naming the
	// permission that was missing. Payload: *PermissionEvent.
	TopicPermissionNeeded Topic = "permission_needed"

	// TopicPermissionGranted fires after a grant is successfully written.
	// Payload: *grant.Grant.
	TopicPermissionGranted Topic = "permission_granted"

	// TopicPermissionRevoked fires after a grant is successfully revoked.
	// Payload: *grant.Grant.
	TopicPermissionRevoked Topic = "permission_revoked"
)

// ActionEvent is the payload for action-lifecycle topics.
type ActionEvent struct {
	ActionID   string
	HandlerID  string
	ActionName string
	Status     string
}

// PermissionEvent is the payload for TopicPermissionNeeded.
type PermissionEvent struct {
	HandlerID      string
	PermissionName string
	Scope          map[string]string
}

// Subscriber receives event payloads for a subscribed topic.
type Subscriber func(payload any)

// Disposer unsubscribes a previously registered Subscriber.
type Disposer func()

// EventBus is a synchronous, same-goroutine event dispatcher for the six
// fixed ActionGate topics, grounded on warden/plugin.Registry's
// register-then-dispatch discipline but collapsed to a single map since
// there is one payload shape per topic rather than per entity type.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[Topic][]*subscriberEntry
	logger *slog.Logger
}

type subscriberEntry struct {
	fn Subscriber
}

// NewEventBus creates an empty event bus. A nil logger defaults to
// slog.Default() at emit time.
func NewEventBus(logger *slog.Logger) *EventBus {
	return &EventBus{
		subs:   make(map[Topic][]*subscriberEntry),
		logger: logger,
	}
}

// On registers fn to receive every payload emitted on topic, in
// registration order. The returned Disposer removes the subscription.
func (b *EventBus) On(topic Topic, fn Subscriber) Disposer {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry := &subscriberEntry{fn: fn}
	b.subs[topic] = append(b.subs[topic], entry)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		list := b.subs[topic]
		for i, e := range list {
			if e == entry {
				b.subs[topic] = append(list[:i], list[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers payload to every subscriber of topic, synchronously, in
// registration order. A subscriber that panics is recovered and logged;
// it never blocks delivery to the remaining subscribers or propagates to
// the caller.
func (b *EventBus) Emit(topic Topic, payload any) {
	b.mu.RLock()
	subs := make([]*subscriberEntry, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, e := range subs {
		b.dispatch(topic, e.fn, payload)
	}
}

func (b *EventBus) dispatch(topic Topic, fn Subscriber, payload any) {
	defer func() {
		if r := recover(); r != nil {
			b.logSubscriberError(topic, r)
		}
	}()
	fn(payload)
}

func (b *EventBus) logSubscriberError(topic Topic, recovered any) {
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("event subscriber error",
		slog.String("topic", string(topic)),
		slog.Any("error", recovered),
	)
}

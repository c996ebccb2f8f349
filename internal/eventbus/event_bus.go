package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/lumenchain/lumen/libs/log"
	"github.com/lumenchain/lumen/libs/service"
	"github.com/lumenchain/lumen/types"
)

// EventNotification carries the events committed at a ledger version to a
// subscriber.
type EventNotification struct {
	Version types.Version
	Events  []types.ContractEvent
}

// Subscription is one subscriber's view of the event stream. The channel
// is closed when the subscription is dropped or the service stops.
type Subscription struct {
	id string
	ch chan EventNotification
}

// ID returns the unique subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Out returns the channel event notifications are delivered on.
func (s *Subscription) Out() <-chan EventNotification { return s.ch }

// SubscriptionService fans committed events out to subscribers. The sync
// driver calls NotifyEvents after every commit; delivery to each
// subscriber is non-blocking and a subscriber that cannot keep up has the
// notification dropped and logged rather than stalling the sync loop.
type SubscriptionService struct {
	service.BaseService
	logger log.Logger

	mtx         sync.RWMutex
	subscribers map[string]*Subscription
	stopped     bool
}

// NewSubscriptionService returns a stopped subscription service.
func NewSubscriptionService(logger log.Logger) *SubscriptionService {
	s := &SubscriptionService{
		logger:      logger,
		subscribers: make(map[string]*Subscription),
	}
	s.BaseService = *service.NewBaseService(logger, "EventSubscriptions", s)
	return s
}

// OnStart implements service.Service.
func (s *SubscriptionService) OnStart(context.Context) error { return nil }

// OnStop implements service.Service. All subscription channels are closed.
func (s *SubscriptionService) OnStop() {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	for id, subscription := range s.subscribers {
		close(subscription.ch)
		delete(s.subscribers, id)
	}
	s.stopped = true
}

// Subscribe registers a new subscriber with the given channel capacity.
func (s *SubscriptionService) Subscribe(capacity int) (*Subscription, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.stopped {
		return nil, fmt.Errorf("the subscription service is stopped")
	}

	subscription := &Subscription{
		id: uuid.NewString(),
		ch: make(chan EventNotification, capacity),
	}
	s.subscribers[subscription.id] = subscription
	return subscription, nil
}

// Unsubscribe drops a subscriber and closes its channel. Unknown ids are
// ignored.
func (s *SubscriptionService) Unsubscribe(id string) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if subscription, ok := s.subscribers[id]; ok {
		close(subscription.ch)
		delete(s.subscribers, id)
	}
}

// NumSubscribers returns the number of active subscriptions.
func (s *SubscriptionService) NumSubscribers() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.subscribers)
}

// NotifyEvents fans the committed events out to every subscriber. Commits
// with no events are not delivered.
func (s *SubscriptionService) NotifyEvents(
	ctx context.Context,
	version types.Version,
	events []types.ContractEvent,
) error {
	if len(events) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	notification := EventNotification{Version: version, Events: events}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	for id, subscription := range s.subscribers {
		select {
		case subscription.ch <- notification:
		default:
			s.logger.Error("dropped an event notification for a slow subscriber",
				"subscription", id,
				"version", version,
				"num_events", len(events))
		}
	}
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/events"
	"github.com/google/uuid"

	"github.com/tiffinclub/tiffin/internal/tiffin"
	"github.com/tiffinclub/tiffin/pkg/event"
)

// ActivitySubscriber listens for ledger activity and drops the affected
// customer's cached balance so the next dashboard read recomputes it.
type ActivitySubscriber struct {
	subscriber events.Subscriber
	cache      *tiffin.BalanceCache
	logger     apt.Logger
}

func NewActivitySubscriber(subscriber events.Subscriber, cache *tiffin.BalanceCache, logger apt.Logger) *ActivitySubscriber {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &ActivitySubscriber{
		subscriber: subscriber,
		cache:      cache,
		logger:     logger,
	}
}

func (s *ActivitySubscriber) Start(ctx context.Context) error {
	topics := []string{event.PaymentsTopic, event.AttendanceTopic, event.CustomersTopic}

	for _, topic := range topics {
		s.logger.Infof("Starting ActivitySubscriber for topic: %s", topic)
		if err := s.subscriber.Subscribe(ctx, topic, s.handleEvent); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
		}
	}

	s.logger.Info("ActivitySubscriber started successfully")
	return nil
}

func (s *ActivitySubscriber) handleEvent(ctx context.Context, msg []byte) error {
	var meta event.ActivityEventMetadata
	if err := json.Unmarshal(msg, &meta); err != nil {
		s.logger.Errorf("Failed to unmarshal event: %v", err)
		return nil
	}

	customerID, err := uuid.Parse(meta.CustomerID)
	if err != nil {
		s.logger.Errorf("Invalid customer_id in %s event: %v", meta.EventType, err)
		return nil
	}

	if s.cache != nil {
		s.cache.Invalidate(customerID)
	}

	s.logger.Infof("Invalidated balance for customer %s after %s", customerID, meta.EventType)
	return nil
}

package notification

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/servicehub/service-booking/internal/domain/booking"
	"github.com/servicehub/service-booking/internal/events"
	"github.com/servicehub/service-booking/internal/platform/kafka"
)

const eventSource = "service-booking"

// KafkaNotifier publishes notification commands to the notification.events
// topic for the notification service to deliver. It implements the booking
// domain's Notifier port.
type KafkaNotifier struct {
	producer *kafka.Producer
	logger   *zap.Logger
}

// NewKafkaNotifier creates a KafkaNotifier backed by the given producer.
func NewKafkaNotifier(producer *kafka.Producer, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, logger: logger}
}

// SendStatusChange publishes a status-change notification command.
func (n *KafkaNotifier) SendStatusChange(ctx context.Context, note booking.StatusChangeNotification) error {
	payload := events.StatusChangeNotificationEvent{
		BookingID:     note.BookingID,
		Reference:     note.Reference,
		RecipientID:   note.RecipientID,
		RecipientRole: string(note.Recipient),
		OldStatus:     note.OldStatus.String(),
		NewStatus:     note.NewStatus.String(),
		Title:         note.Title,
		Body:          note.Body,
		OccurredAt:    time.Now().UTC(),
	}
	return n.publish(ctx, events.NotifyStatusChange, payload)
}

// SendProviderResponse publishes an accept/decline notification command.
func (n *KafkaNotifier) SendProviderResponse(ctx context.Context, note booking.ProviderResponseNotification) error {
	payload := events.ProviderResponseNotificationEvent{
		BookingID:    note.BookingID,
		Reference:    note.Reference,
		ClientID:     note.ClientID,
		ProviderID:   note.ProviderID,
		BookingTitle: note.BookingTitle,
		Outcome:      string(note.Outcome),
		Message:      note.Message,
		OccurredAt:   time.Now().UTC(),
	}
	return n.publish(ctx, events.NotifyProviderResponse, payload)
}

func (n *KafkaNotifier) publish(ctx context.Context, eventType string, payload interface{}) error {
	event, err := kafka.NewCloudEvent(eventSource, eventType, payload)
	if err != nil {
		return fmt.Errorf("failed to build notification event: %w", err)
	}
	if err := n.producer.PublishEvent(ctx, events.TopicNotificationEvents, event); err != nil {
		return err
	}

	n.logger.Debug("notification command published",
		zap.String("event_type", eventType),
	)
	return nil
}

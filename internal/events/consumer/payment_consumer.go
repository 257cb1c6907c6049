package consumer

import (
	"context"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/servicehub/service-booking/internal/application"
	"github.com/servicehub/service-booking/internal/events"
	"github.com/servicehub/service-booking/internal/platform/apperr"
	"github.com/servicehub/service-booking/internal/platform/kafka"
)

// PaymentEventConsumer consumes payment.events and applies payment outcomes
// to bookings. A captured payment flips the booking's paid flag; refund
// confirmations are informational since the refund state transition is
// driven by the cancellation and dispute flows.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  *application.BookingService
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service *application.BookingService,
	logger *zap.Logger,
) *PaymentEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicPaymentEvents, logger)
	return &PaymentEventConsumer{
		consumer: consumer,
		service:  service,
		logger:   logger,
	}
}

// Start consumes payment events until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	c.logger.Info("payment event consumer starting", zap.String("topic", events.TopicPaymentEvents))
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka reader.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	event, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		// Malformed envelope, commit and move on.
		c.logger.Warn("skipping malformed payment event", zap.Error(err))
		return nil
	}

	switch event.Type {
	case events.PaymentCaptured:
		return c.handlePaymentCaptured(ctx, event)
	case events.PaymentRefunded:
		return c.handlePaymentRefunded(ctx, event)
	default:
		c.logger.Debug("ignoring payment event", zap.String("event_type", event.Type))
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCaptured(ctx context.Context, event kafka.CloudEvent) error {
	var payload events.PaymentCapturedEvent
	if err := event.ParseData(&payload); err != nil {
		c.logger.Warn("skipping malformed payment.captured payload", zap.Error(err))
		return nil
	}

	if _, err := c.service.MarkPaid(ctx, payload.BookingID); err != nil {
		switch apperr.KindOf(err) {
		case apperr.KindNotFound:
			// Payment for a booking another service owns.
			c.logger.Debug("payment for unknown booking",
				zap.String("booking_id", payload.BookingID.String()),
			)
			return nil
		case apperr.KindInvalidState, apperr.KindValidation:
			// Already paid, or the booking moved on; safe to drop.
			c.logger.Warn("payment captured in unexpected booking state",
				zap.String("booking_id", payload.BookingID.String()),
				zap.Error(err),
			)
			return nil
		default:
			return err
		}
	}

	c.logger.Info("booking marked as paid",
		zap.String("booking_id", payload.BookingID.String()),
		zap.Int64("amount_cents", payload.AmountCents),
	)
	return nil
}

func (c *PaymentEventConsumer) handlePaymentRefunded(ctx context.Context, event kafka.CloudEvent) error {
	var payload events.PaymentRefundedEvent
	if err := event.ParseData(&payload); err != nil {
		c.logger.Warn("skipping malformed payment.refunded payload", zap.Error(err))
		return nil
	}

	c.logger.Info("refund executed by payment service",
		zap.String("booking_id", payload.BookingID.String()),
		zap.Int64("amount_cents", payload.AmountCents),
	)
	return nil
}

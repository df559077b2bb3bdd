package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flightbot/models"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeBookingConfirmed = "booking:confirmed"

func NewBookingConfirmedTask(payload models.BookingConfirmedPayload) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeBookingConfirmed, b)
	opts := []asynq.Option{
		asynq.MaxRetry(5),
		asynq.Timeout(30 * time.Second),
		asynq.TaskID("booking-" + payload.ConversationID + "-" + payload.Offer.FlightID),
	}
	return task, opts, nil
}

// QueueNotifier hands confirmed bookings to the worker queue.
type QueueNotifier struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewQueueNotifier(client *asynq.Client, logger *zap.Logger) *QueueNotifier {
	return &QueueNotifier{client: client, logger: logger}
}

func (q *QueueNotifier) BookingConfirmed(ctx context.Context, payload models.BookingConfirmedPayload) error {
	task, opts, err := NewBookingConfirmedTask(payload)
	if err != nil {
		return fmt.Errorf("build booking task: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue booking task: %w", err)
	}
	q.logger.Info("Booking queued",
		zap.String("conversationId", payload.ConversationID),
		zap.String("taskId", info.ID),
		zap.String("queue", info.Queue),
	)
	return nil
}

// LogNotifier records confirmed bookings in the log only.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) BookingConfirmed(ctx context.Context, payload models.BookingConfirmedPayload) error {
	l.logger.Info("Booking confirmed",
		zap.String("conversationId", payload.ConversationID),
		zap.String("flightId", payload.Offer.FlightID),
		zap.String("airline", payload.Offer.Airline),
		zap.String("origin", payload.Source.IATA),
		zap.String("destination", payload.Destination.IATA),
		zap.String("departure", payload.Offer.DepartureTime),
		zap.String("price", payload.Offer.Price.StringFixed(2)),
		zap.String("currency", payload.Offer.Currency),
	)
	return nil
}

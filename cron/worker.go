package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flightbot/config"
	"flightbot/models"
	"flightbot/services/tasks"
	"flightbot/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RedisOpt is the asynq connection for the booking queue.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	}
}

// InitBookingWorker runs the booking hand-off worker in the background.
// Cancel ctx to stop the Redis monitor; call Shutdown on the returned server.
func InitBookingWorker(ctx context.Context, logger *zap.Logger) *asynq.Server {
	srv := asynq.NewServer(
		RedisOpt(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
			Logger: logger.Sugar(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeBookingConfirmed, handleBookingConfirmed(logger))

	go monitorRedisConnection(ctx, logger)

	go func() {
		logger.Info("Starting booking worker")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("Booking worker failed to start",
					zap.Int("attempt", attempts),
					zap.Int("maxAttempts", maxAttempts),
					zap.Error(err),
				)
				if attempts == maxAttempts {
					logger.Fatal("Booking worker: max retry attempts reached")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
	return srv
}

func handleBookingConfirmed(logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.BookingConfirmedPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("Invalid booking payload", zap.Error(err))
			return fmt.Errorf("decode booking payload: %v: %w", err, asynq.SkipRetry)
		}
		if p.ConversationID == "" || p.Offer.FlightID == "" {
			logger.Error("Incomplete booking payload", zap.ByteString("payload", task.Payload()))
			return fmt.Errorf("incomplete booking payload: %w", asynq.SkipRetry)
		}

		logger.Info("Booking handed off",
			zap.String("conversationId", p.ConversationID),
			zap.String("flightId", p.Offer.FlightID),
			zap.String("airline", p.Offer.Airline),
			zap.String("route", p.Source.IATA+"-"+p.Destination.IATA),
			zap.String("departure", p.Offer.DepartureTime),
			zap.String("price", p.Offer.Price.StringFixed(2)+" "+p.Offer.Currency),
			zap.String("confirmedAt", p.ConfirmedAt),
		)
		utils.Metrics.BookingsHandedOff.Inc()
		return nil
	}
}

// monitorRedisConnection pings the queue's Redis periodically to detect failures at runtime.
func monitorRedisConnection(ctx context.Context, logger *zap.Logger) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	})
	defer client.Close()

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := client.Ping(ctx).Err(); err != nil && ctx.Err() == nil {
				logger.Warn("Booking queue Redis connection lost", zap.Error(err))
			}
		}
	}
}

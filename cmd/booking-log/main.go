// Command booking-log consumes booking events from RabbitMQ and appends them
// to the raw booking log file.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/auditory-booking/internal/config"
	"github.com/iliyamo/auditory-booking/internal/logging"
	"github.com/iliyamo/auditory-booking/internal/queue"
)

func main() {
	cfg := config.LoadConsumer()

	logger, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = queue.StartBookingConsumer(ctx, queue.ConsumerConfig{
		URL:     cfg.RabbitMQURL,
		Queue:   cfg.BookingQueue,
		LogPath: cfg.BookingLogPath,
	}, logger)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("booking consumer stopped", zap.Error(err))
		return
	}
	logger.Info("booking consumer stopped")
}

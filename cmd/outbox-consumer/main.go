package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/projectbuzz/platform/internal/domain"
	"github.com/projectbuzz/platform/internal/infra"
	"github.com/projectbuzz/platform/internal/notifier"
)

// topics carrying notification events. Wallet audit events flow through the
// same dispatcher and are skipped by its builder table.
var topics = []string{
	"projectbuzz.payment",
	"projectbuzz.payout",
	"projectbuzz.negotiation",
	"projectbuzz.wallet",
}

const consumerGroup = "projectbuzz-notifier"

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox consumer failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.KafkaEnabled {
		return errors.New("KAFKA_ENABLED must be true for the outbox consumer")
	}

	dispatcher := notifier.NewDispatcher(notifier.NewLogSender(logger), logger)

	var wg sync.WaitGroup
	for _, topic := range topics {
		consumer := infra.NewKafkaConsumer(cfg.KafkaBrokers, topic, consumerGroup, cfg.KafkaEnabled, logger)
		defer consumer.Close()

		wg.Add(1)
		go func(topic string, consumer *infra.KafkaConsumer) {
			defer wg.Done()
			consume(ctx, consumer, dispatcher, logger, topic)
		}(topic, consumer)
	}

	logger.Info("outbox consumer started", "topics", topics, "group", consumerGroup)
	wg.Wait()
	return nil
}

// envelope matches what the outbox poller publishes.
type envelope struct {
	EventID   string           `json:"event_id"`
	EventType domain.EventType `json:"event_type"`
	Payload   json.RawMessage  `json:"payload"`
}

func consume(ctx context.Context, consumer *infra.KafkaConsumer, dispatcher *notifier.Dispatcher, logger *slog.Logger, topic string) {
	for {
		msg, err := consumer.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logger.Info("consumer stopped", "topic", topic)
				return
			}
			logger.Error("read message failed", "topic", topic, "error", err)
			continue
		}

		var e envelope
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			logger.Error("malformed event", "topic", topic, "error", err)
			continue
		}

		if err := dispatcher.Dispatch(ctx, e.EventType, e.Payload); err != nil {
			logger.Error("dispatch failed", "topic", topic, "event_id", e.EventID, "error", err)
		}
	}
}

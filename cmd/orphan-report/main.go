// Command orphan-report consumes orders.orphaned and logs every order that
// was persisted without its line item so an operator can follow up by hand.
// It never modifies the data service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/config"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/entity"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/logger"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/messaging"
	"github.com/Gelou69/Prof-Final-Project-Public-Admin/internal/messaging/kafka"
)

const groupID = "admin-console-orphan-report"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	syncLogs, err := logger.Setup(cfg.Environment, cfg.LogLevel)
	if err != nil {
		slog.Error("Failed to set up logger", "err", err)
		os.Exit(1)
	}
	defer syncLogs()

	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("KAFKA_BROKERS is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	broker := kafka.NewKafkaBroker(cfg.KafkaBrokers)
	defer broker.Close()

	slog.Info("Orphan report consumer started", "topic", messaging.TopicOrdersOrphaned, "group", groupID)
	broker.Consume(ctx, messaging.TopicOrdersOrphaned, groupID, reportOrphan)
}

func reportOrphan(ctx context.Context, payload []byte) error {
	var ev entity.OrderOrphaned
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("failed to unmarshal OrderOrphaned event: %w", err)
	}
	slog.Warn("Order has no items",
		"order_id", ev.OrderID,
		"user_id", ev.UserID,
		"product_id", ev.ProductID,
		"reason", ev.Reason,
		"orphaned_at", ev.OrphanedAt,
	)
	return nil
}

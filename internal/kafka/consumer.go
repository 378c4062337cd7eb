package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/models"
)

// DailyBarWriter defines the repository operations the consumer needs
type DailyBarWriter interface {
	UpsertDailyBar(b *models.DailyBar) error
}

// Consumer handles consuming daily bar events from Kafka. Upstream collectors
// publish BAR_UPSERT events as they scrape the market; the (ts_code,
// trade_date) upsert makes redelivery harmless.
type Consumer struct {
	reader *kafka.Reader
	repo   DailyBarWriter
	logger *zap.Logger
}

// NewConsumer creates a new Kafka consumer for daily bar events
func NewConsumer(brokers []string, topic, groupID string, repo DailyBarWriter, logger *zap.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		MaxWait:        1 * time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: time.Second,
	})

	if logger == nil {
		logger = zap.NewNop()
	}
	return &Consumer{
		reader: reader,
		repo:   repo,
		logger: logger,
	}
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("starting kafka consumer", zap.String("topic", c.reader.Config().Topic))

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("kafka consumer shutting down")
			return c.reader.Close()
		default:
			msg, err := c.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil // context cancelled, normal shutdown
				}
				c.logger.Error("error reading message", zap.Error(err))
				continue
			}

			if err := c.processMessage(msg); err != nil {
				c.logger.Error("error processing message",
					zap.Int("partition", msg.Partition),
					zap.Int64("offset", msg.Offset),
					zap.Error(err))
				// Continue processing other messages
			}
		}
	}
}

// processMessage handles a single Kafka message
func (c *Consumer) processMessage(msg kafka.Message) error {
	var event models.BarEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal bar event: %w", err)
	}

	if event.EventType != models.EventTypeBarUpsert {
		c.logger.Debug("ignoring event type", zap.String("event_type", event.EventType))
		return nil
	}

	bar, err := c.convertEventToBar(event)
	if err != nil {
		return fmt.Errorf("failed to convert bar event: %w", err)
	}

	if err := c.repo.UpsertDailyBar(bar); err != nil {
		return fmt.Errorf("failed to save daily bar: %w", err)
	}

	c.logger.Info("saved daily bar from event",
		zap.String("ts_code", bar.TsCode),
		zap.String("trade_date", bar.TradeDate.Format("2006-01-02")),
		zap.String("source", event.Source))
	return nil
}

// convertEventToBar maps a BarEvent to a DailyBar model
func (c *Consumer) convertEventToBar(event models.BarEvent) (*models.DailyBar, error) {
	data := event.Data

	if data.TsCode == "" {
		return nil, fmt.Errorf("bar event missing ts_code")
	}

	tradeDate, err := models.ParseTradeDate(data.TradeDate)
	if err != nil {
		return nil, fmt.Errorf("invalid trade_date %s: %w", data.TradeDate, err)
	}

	open, err := decimal.NewFromString(data.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open %s: %w", data.Open, err)
	}
	high, err := decimal.NewFromString(data.High)
	if err != nil {
		return nil, fmt.Errorf("invalid high %s: %w", data.High, err)
	}
	low, err := decimal.NewFromString(data.Low)
	if err != nil {
		return nil, fmt.Errorf("invalid low %s: %w", data.Low, err)
	}
	closePrice, err := decimal.NewFromString(data.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close %s: %w", data.Close, err)
	}

	return &models.DailyBar{
		TsCode:    data.TsCode,
		TradeDate: tradeDate,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		PreClose:  optionalDecimal(data.PreClose),
		Change:    optionalDecimal(data.Change),
		PctChg:    optionalDecimal(data.PctChg),
		Vol:       optionalDecimal(data.Vol),
		Amount:    optionalDecimal(data.Amount),
	}, nil
}

// optionalDecimal parses a wire value that may be absent, defaulting to zero
func optionalDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Close closes the Kafka consumer
func (c *Consumer) Close() error {
	return c.reader.Close()
}

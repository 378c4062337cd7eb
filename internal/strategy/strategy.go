// Package strategy implements the stock screens that run over stored daily
// data: an RSI overbought/oversold screen, a 20-day momentum ranking, and a
// CSI300 relative strength score.
package strategy

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/models"
)

// Strategy names
const (
	NameRSI      = "rsi"
	NameMomentum = "momentum"
	NameCSI300RS = "csi300_rs"
)

// Store is the read/write surface strategies need from the database layer
type Store interface {
	ListCompanyCodes(prefix string) ([]string, error)
	GetAllCompanies() ([]*models.Company, error)
	GetClosePrices(tsCode string, limit int) ([]models.ClosePrice, error)
	GetIndexClosePrices(tsCode string, limit int) ([]models.ClosePrice, error)
	GetRecentDailyBars(tsCode string, limit int) ([]*models.DailyBar, error)
	UpsertIndicatorBatch(indicators []*models.TechnicalIndicator) error
}

// SignalWriter persists scan results
type SignalWriter interface {
	CreateSignalBatch(signals []*models.Signal) error
}

// SignalPublisher publishes scan results downstream
type SignalPublisher interface {
	PublishSignals(ctx context.Context, strategy string, tradeDate time.Time, signals []*models.Signal) error
}

// Strategy is one stock screen
type Strategy interface {
	Name() string
	Run(ctx context.Context) ([]*models.Signal, error)
}

// Scanner runs strategies, persists their signals and publishes them
type Scanner struct {
	strategies map[string]Strategy
	writer     SignalWriter
	publisher  SignalPublisher
	logger     *zap.Logger
}

// NewScanner creates a scanner over the given strategies. publisher may be nil.
func NewScanner(writer SignalWriter, publisher SignalPublisher, logger *zap.Logger, strategies ...Strategy) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &Scanner{strategies: m, writer: writer, publisher: publisher, logger: logger}
}

// Names returns the registered strategy names
func (sc *Scanner) Names() []string {
	names := make([]string, 0, len(sc.strategies))
	for name := range sc.strategies {
		names = append(names, name)
	}
	return names
}

// Scan runs one strategy by name and stores its results
func (sc *Scanner) Scan(ctx context.Context, name string) ([]*models.Signal, error) {
	strat, ok := sc.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown strategy: %s", name)
	}

	signals, err := strat.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("strategy %s failed: %w", name, err)
	}
	if len(signals) == 0 {
		sc.logger.Info("strategy produced no signals", zap.String("strategy", name))
		return nil, nil
	}

	if err := sc.writer.CreateSignalBatch(signals); err != nil {
		return nil, fmt.Errorf("failed to store signals: %w", err)
	}

	if sc.publisher != nil {
		if err := sc.publisher.PublishSignals(ctx, name, signals[0].TradeDate, signals); err != nil {
			// The scan itself succeeded; downstream consumers catch up later
			sc.logger.Error("failed to publish signals", zap.String("strategy", name), zap.Error(err))
		}
	}

	sc.logger.Info("scan complete", zap.String("strategy", name), zap.Int("signals", len(signals)))
	return signals, nil
}

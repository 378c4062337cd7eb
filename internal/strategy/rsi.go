package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantrey/stock-data-service/internal/models"
)

// RSIStrategy computes each stock's RSI and its moving average, stores both
// as technical indicators, and emits signals for stocks outside the neutral
// band. Oversold stocks rank first.
type RSIStrategy struct {
	store    Store
	period   int
	maPeriod int
}

// NewRSIStrategy creates the RSI screen with the usual 14/6 periods when
// zero values are passed
func NewRSIStrategy(store Store, period, maPeriod int) *RSIStrategy {
	if period <= 0 {
		period = 14
	}
	if maPeriod <= 0 {
		maPeriod = 6
	}
	return &RSIStrategy{store: store, period: period, maPeriod: maPeriod}
}

// Name implements Strategy
func (s *RSIStrategy) Name() string { return NameRSI }

// Run implements Strategy
func (s *RSIStrategy) Run(ctx context.Context) ([]*models.Signal, error) {
	codes, err := s.store.ListCompanyCodes("")
	if err != nil {
		return nil, err
	}

	// Enough history for the RSI window plus its MA to settle
	lookback := s.period*3 + s.maPeriod

	var signals []*models.Signal
	var indicators []*models.TechnicalIndicator

	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := s.store.GetClosePrices(code, lookback)
		if err != nil {
			return nil, err
		}
		if len(prices) < s.period+1 {
			continue
		}

		closes := make([]float64, len(prices))
		for i, p := range prices {
			closes[i], _ = p.Close.Float64()
		}

		rsi := RSI(closes, s.period)
		rsiMA := RollingMean(rsi, s.maPeriod)

		last := len(prices) - 1
		latestRSI := rsi[last]
		latestDate := prices[last].TradeDate

		indicators = append(indicators,
			&models.TechnicalIndicator{
				TsCode:        code,
				TradeDate:     latestDate,
				IndicatorType: models.IndicatorRSI14,
				Value:         decimal.NewFromFloat(latestRSI).Round(4),
			},
			&models.TechnicalIndicator{
				TsCode:        code,
				TradeDate:     latestDate,
				IndicatorType: models.IndicatorRSIMA6,
				Value:         decimal.NewFromFloat(rsiMA[last]).Round(4),
			},
		)

		status := rsiStatus(latestRSI)
		if status == models.SignalStatusNeutral {
			continue
		}

		signals = append(signals, &models.Signal{
			Strategy:  NameRSI,
			TsCode:    code,
			TradeDate: latestDate,
			Score:     decimal.NewFromFloat(latestRSI).Round(4),
			Status:    status,
			Details:   fmt.Sprintf("rsi_ma_%d=%.2f", s.maPeriod, rsiMA[last]),
		})
	}

	if err := s.store.UpsertIndicatorBatch(indicators); err != nil {
		return nil, err
	}

	// Most oversold first
	sort.Slice(signals, func(i, j int) bool {
		return signals[i].Score.LessThan(signals[j].Score)
	})
	for i, sig := range signals {
		sig.Rank = i + 1
	}
	return signals, nil
}

// rsiStatus maps an RSI value to a signal status: above 70 is overbought,
// below 30 oversold
func rsiStatus(rsi float64) string {
	switch {
	case rsi > 70:
		return models.SignalStatusOverbought
	case rsi < 30:
		return models.SignalStatusOversold
	default:
		return models.SignalStatusNeutral
	}
}

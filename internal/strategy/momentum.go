package strategy

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/quantrey/stock-data-service/internal/models"
)

// MomentumStrategy ranks stocks by their trailing return and keeps the top
// decile, the strongest first
type MomentumStrategy struct {
	store    Store
	lookback int
	topFrac  float64
}

// NewMomentumStrategy creates the momentum screen. Defaults: 20-day lookback,
// top 10%.
func NewMomentumStrategy(store Store, lookback int, topFrac float64) *MomentumStrategy {
	if lookback <= 0 {
		lookback = 20
	}
	if topFrac <= 0 || topFrac > 1 {
		topFrac = 0.1
	}
	return &MomentumStrategy{store: store, lookback: lookback, topFrac: topFrac}
}

// Name implements Strategy
func (s *MomentumStrategy) Name() string { return NameMomentum }

// Run implements Strategy
func (s *MomentumStrategy) Run(ctx context.Context) ([]*models.Signal, error) {
	codes, err := s.store.ListCompanyCodes("")
	if err != nil {
		return nil, err
	}

	type scored struct {
		code      string
		momentum  float64
		tradeDate models.ClosePrice
	}

	var ranked []scored
	for _, code := range codes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prices, err := s.store.GetClosePrices(code, s.lookback)
		if err != nil {
			return nil, err
		}
		// Stocks without a full window are skipped rather than ranked on
		// partial history
		if len(prices) < s.lookback {
			continue
		}

		closes := make([]float64, len(prices))
		for i, p := range prices {
			closes[i], _ = p.Close.Float64()
		}
		if closes[0] <= 0 {
			continue
		}

		ranked = append(ranked, scored{
			code:      code,
			momentum:  Momentum(closes),
			tradeDate: prices[len(prices)-1],
		})
	}

	if len(ranked) == 0 {
		return nil, nil
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].momentum > ranked[j].momentum
	})

	topN := int(float64(len(ranked)) * s.topFrac)
	if topN < 1 {
		topN = 1
	}

	signals := make([]*models.Signal, 0, topN)
	for i, r := range ranked[:topN] {
		signals = append(signals, &models.Signal{
			Strategy:  NameMomentum,
			TsCode:    r.code,
			TradeDate: r.tradeDate.TradeDate,
			Score:     decimal.NewFromFloat(r.momentum).Round(4),
			Rank:      i + 1,
			Details:   fmt.Sprintf("lookback=%d", s.lookback),
		})
	}
	return signals, nil
}

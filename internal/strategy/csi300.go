package strategy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantrey/stock-data-service/internal/models"
)

// CSI300IndexCode is the benchmark index for the relative strength screen
const CSI300IndexCode = "000300.SH"

// CSI300RSStrategy scores each stock's moving-average trend against the
// CSI300 index's. A stock earns its daily MA change minus the index's; the
// screen keeps stocks with a positive total that outperformed on at least the
// configured share of days, with a liquidity floor and ST names excluded.
type CSI300RSStrategy struct {
	store      Store
	maPeriod   int
	minOutperf float64
	minVolume  decimal.Decimal
	indexCode  string
}

// NewCSI300RSStrategy creates the relative strength screen. Defaults: 90-day
// MA, 60% minimum outperformance ratio, 1,000,000 minimum volume.
func NewCSI300RSStrategy(store Store, maPeriod int) *CSI300RSStrategy {
	if maPeriod <= 0 {
		maPeriod = 90
	}
	return &CSI300RSStrategy{
		store:      store,
		maPeriod:   maPeriod,
		minOutperf: 0.6,
		minVolume:  decimal.NewFromInt(1000000),
		indexCode:  CSI300IndexCode,
	}
}

// Name implements Strategy
func (s *CSI300RSStrategy) Name() string { return NameCSI300RS }

// Run implements Strategy
func (s *CSI300RSStrategy) Run(ctx context.Context) ([]*models.Signal, error) {
	// Twice the MA period of history so the MA series itself covers a full
	// scoring window
	lookback := s.maPeriod * 2

	indexPrices, err := s.store.GetIndexClosePrices(s.indexCode, lookback)
	if err != nil {
		return nil, err
	}
	if len(indexPrices) < s.maPeriod+1 {
		return nil, fmt.Errorf("not enough index history for %s: have %d days", s.indexCode, len(indexPrices))
	}
	indexMA := maByDate(indexPrices, s.maPeriod)

	companies, err := s.store.GetAllCompanies()
	if err != nil {
		return nil, err
	}

	type scored struct {
		code    string
		total   float64
		outperf int
		days    int
		latest  models.ClosePrice
	}

	var ranked []scored
	for _, company := range companies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// ST names flag delisting risk; skip them
		if strings.Contains(company.Name, "ST") {
			continue
		}

		prices, err := s.store.GetClosePrices(company.TsCode, lookback)
		if err != nil {
			return nil, err
		}
		if len(prices) < s.maPeriod+1 {
			continue
		}

		stockMA := maSeries(prices, s.maPeriod)

		total := 0.0
		outperf := 0
		days := 0
		for i := 1; i < len(prices); i++ {
			date := dateKey(prices[i].TradeDate)
			idxCur, okCur := indexMA[date]
			if !okCur {
				continue
			}
			idxPrev, okPrev := indexMA[dateKey(prices[i-1].TradeDate)]
			if !okPrev {
				idxPrev = idxCur
			}

			dayScore := PctChange(stockMA[i-1], stockMA[i]) - PctChange(idxPrev, idxCur)
			total += dayScore
			days++
			if dayScore > 0 {
				outperf++
			}
		}
		if days == 0 {
			continue
		}

		// Positive total score and outperformance on enough days
		if total <= 0 || float64(outperf)/float64(days) < s.minOutperf {
			continue
		}

		// Liquidity floor on the latest session's volume
		bars, err := s.store.GetRecentDailyBars(company.TsCode, 1)
		if err != nil {
			return nil, err
		}
		if len(bars) == 0 || bars[0].Vol.LessThan(s.minVolume) {
			continue
		}

		ranked = append(ranked, scored{
			code:    company.TsCode,
			total:   total,
			outperf: outperf,
			days:    days,
			latest:  prices[len(prices)-1],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].total > ranked[j].total
	})

	signals := make([]*models.Signal, 0, len(ranked))
	for i, r := range ranked {
		signals = append(signals, &models.Signal{
			Strategy:  NameCSI300RS,
			TsCode:    r.code,
			TradeDate: r.latest.TradeDate,
			Score:     decimal.NewFromFloat(r.total).Round(4),
			Rank:      i + 1,
			Details:   fmt.Sprintf("outperf_days=%d/%d ma=%d", r.outperf, r.days, s.maPeriod),
		})
	}
	return signals, nil
}

// maSeries computes the close-price moving average aligned to the input slice
func maSeries(prices []models.ClosePrice, period int) []float64 {
	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i], _ = p.Close.Float64()
	}
	return RollingMean(closes, period)
}

// maByDate computes the moving average keyed by trade date
func maByDate(prices []models.ClosePrice, period int) map[string]float64 {
	ma := maSeries(prices, period)
	out := make(map[string]float64, len(prices))
	for i, p := range prices {
		out[dateKey(p.TradeDate)] = ma[i]
	}
	return out
}

func dateKey(t time.Time) string {
	return t.Format("20060102")
}

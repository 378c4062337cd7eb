package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrey/stock-data-service/internal/models"
)

// fakeStore implements the Store interface for testing
type fakeStore struct {
	companies   []*models.Company
	closes      map[string][]models.ClosePrice
	indexCloses map[string][]models.ClosePrice
	recentBars  map[string][]*models.DailyBar
	indicators  []*models.TechnicalIndicator
}

func (f *fakeStore) ListCompanyCodes(prefix string) ([]string, error) {
	codes := make([]string, 0, len(f.companies))
	for _, c := range f.companies {
		codes = append(codes, c.TsCode)
	}
	return codes, nil
}

func (f *fakeStore) GetAllCompanies() ([]*models.Company, error) {
	return f.companies, nil
}

func (f *fakeStore) GetClosePrices(tsCode string, limit int) ([]models.ClosePrice, error) {
	return tail(f.closes[tsCode], limit), nil
}

func (f *fakeStore) GetIndexClosePrices(tsCode string, limit int) ([]models.ClosePrice, error) {
	return tail(f.indexCloses[tsCode], limit), nil
}

func (f *fakeStore) GetRecentDailyBars(tsCode string, limit int) ([]*models.DailyBar, error) {
	bars := f.recentBars[tsCode]
	if len(bars) > limit {
		bars = bars[:limit]
	}
	return bars, nil
}

func (f *fakeStore) UpsertIndicatorBatch(indicators []*models.TechnicalIndicator) error {
	f.indicators = append(f.indicators, indicators...)
	return nil
}

func tail(prices []models.ClosePrice, limit int) []models.ClosePrice {
	if len(prices) > limit {
		return prices[len(prices)-limit:]
	}
	return prices
}

// fakeSignalWriter implements the SignalWriter interface for testing
type fakeSignalWriter struct {
	stored []*models.Signal
	err    error
}

func (f *fakeSignalWriter) CreateSignalBatch(signals []*models.Signal) error {
	if f.err != nil {
		return f.err
	}
	f.stored = append(f.stored, signals...)
	return nil
}

// fakePublisher implements the SignalPublisher interface for testing
type fakePublisher struct {
	published []*models.Signal
	err       error
}

func (f *fakePublisher) PublishSignals(ctx context.Context, strategy string, tradeDate time.Time, signals []*models.Signal) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, signals...)
	return nil
}

// series builds a daily close series ending 2024-03-15
func series(closes ...float64) []models.ClosePrice {
	end := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out := make([]models.ClosePrice, len(closes))
	for i, c := range closes {
		out[i] = models.ClosePrice{
			TradeDate: end.AddDate(0, 0, i-len(closes)+1),
			Close:     decimal.NewFromFloat(c),
		}
	}
	return out
}

// trend builds a linear close series of n days with the given daily step
func trend(n int, start, step float64) []models.ClosePrice {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}
	return series(closes...)
}

func TestRSIStrategyRun(t *testing.T) {
	store := &fakeStore{
		companies: []*models.Company{
			{TsCode: "000001.SZ", Name: "平安银行"},
			{TsCode: "600519.SH", Name: "贵州茅台"},
			{TsCode: "300750.SZ", Name: "宁德时代"},
		},
		closes: map[string][]models.ClosePrice{
			"000001.SZ": trend(50, 100, -1),   // steady fall: oversold
			"600519.SH": trend(50, 100, 1),    // steady rise: overbought
			"300750.SZ": series(10, 11, 10.5), // too little history
		},
	}

	strat := NewRSIStrategy(store, 0, 0)
	signals, err := strat.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, signals, 2)
	assert.Equal(t, "000001.SZ", signals[0].TsCode)
	assert.Equal(t, models.SignalStatusOversold, signals[0].Status)
	assert.Equal(t, 1, signals[0].Rank)
	assert.Equal(t, "600519.SH", signals[1].TsCode)
	assert.Equal(t, models.SignalStatusOverbought, signals[1].Status)

	// RSI and its MA stored for both stocks with enough history
	assert.Len(t, store.indicators, 4)
	assert.Equal(t, models.IndicatorRSI14, store.indicators[0].IndicatorType)
	assert.Equal(t, models.IndicatorRSIMA6, store.indicators[1].IndicatorType)
}

func TestMomentumStrategyRun(t *testing.T) {
	store := &fakeStore{
		companies: []*models.Company{
			{TsCode: "000001.SZ"},
			{TsCode: "600519.SH"},
			{TsCode: "300750.SZ"},
		},
		closes: map[string][]models.ClosePrice{
			"000001.SZ": trend(20, 100, 2),  // strongest
			"600519.SH": trend(20, 100, -1), // falling
			"300750.SZ": trend(5, 100, 5),   // partial window, skipped
		},
	}

	strat := NewMomentumStrategy(store, 20, 0.5)
	signals, err := strat.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, signals, 1)
	assert.Equal(t, "000001.SZ", signals[0].TsCode)
	assert.Equal(t, 1, signals[0].Rank)
	assert.True(t, signals[0].Score.GreaterThan(decimal.Zero))
}

func TestCSI300RSStrategyRun(t *testing.T) {
	index := trend(20, 1000, 1) // index drifts up 0.1%/day

	bigVol := []*models.DailyBar{{Vol: decimal.NewFromInt(5000000)}}
	store := &fakeStore{
		companies: []*models.Company{
			{TsCode: "000001.SZ", Name: "平安银行"},
			{TsCode: "600519.SH", Name: "贵州茅台"},
			{TsCode: "000720.SZ", Name: "ST能山"},
		},
		closes: map[string][]models.ClosePrice{
			"000001.SZ": trend(20, 100, 3),  // outpaces the index
			"600519.SH": trend(20, 100, -2), // lags
			"000720.SZ": trend(20, 100, 5),  // ST, excluded
		},
		indexCloses: map[string][]models.ClosePrice{
			CSI300IndexCode: index,
		},
		recentBars: map[string][]*models.DailyBar{
			"000001.SZ": bigVol,
			"000720.SZ": bigVol,
		},
	}

	strat := NewCSI300RSStrategy(store, 5)
	signals, err := strat.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, signals, 1)
	assert.Equal(t, "000001.SZ", signals[0].TsCode)
	assert.Equal(t, 1, signals[0].Rank)
}

func TestCSI300RSStrategyVolumeFloor(t *testing.T) {
	store := &fakeStore{
		companies: []*models.Company{{TsCode: "000001.SZ", Name: "平安银行"}},
		closes: map[string][]models.ClosePrice{
			"000001.SZ": trend(20, 100, 3),
		},
		indexCloses: map[string][]models.ClosePrice{
			CSI300IndexCode: trend(20, 1000, 1),
		},
		recentBars: map[string][]*models.DailyBar{
			"000001.SZ": {{Vol: decimal.NewFromInt(500)}},
		},
	}

	strat := NewCSI300RSStrategy(store, 5)
	signals, err := strat.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestCSI300RSStrategyRequiresIndexHistory(t *testing.T) {
	store := &fakeStore{
		indexCloses: map[string][]models.ClosePrice{
			CSI300IndexCode: trend(3, 1000, 1),
		},
	}

	strat := NewCSI300RSStrategy(store, 90)
	_, err := strat.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "not enough index history")
}

func TestScanner(t *testing.T) {
	newScanner := func(writer *fakeSignalWriter, publisher *fakePublisher) (*Scanner, *fakeStore) {
		store := &fakeStore{
			companies: []*models.Company{{TsCode: "000001.SZ"}},
			closes: map[string][]models.ClosePrice{
				"000001.SZ": trend(50, 100, -1),
			},
		}
		var pub SignalPublisher
		if publisher != nil {
			pub = publisher
		}
		return NewScanner(writer, pub, nil, NewRSIStrategy(store, 0, 0)), store
	}

	t.Run("stores and publishes signals", func(t *testing.T) {
		writer := &fakeSignalWriter{}
		publisher := &fakePublisher{}
		sc, _ := newScanner(writer, publisher)

		signals, err := sc.Scan(context.Background(), NameRSI)
		require.NoError(t, err)
		require.Len(t, signals, 1)
		assert.Len(t, writer.stored, 1)
		assert.Len(t, publisher.published, 1)
	})

	t.Run("unknown strategy errors", func(t *testing.T) {
		sc, _ := newScanner(&fakeSignalWriter{}, nil)

		_, err := sc.Scan(context.Background(), "bogus")
		assert.ErrorContains(t, err, "unknown strategy")
	})

	t.Run("publish failure does not fail the scan", func(t *testing.T) {
		writer := &fakeSignalWriter{}
		publisher := &fakePublisher{err: assert.AnError}
		sc, _ := newScanner(writer, publisher)

		signals, err := sc.Scan(context.Background(), NameRSI)
		require.NoError(t, err)
		assert.Len(t, signals, 1)
		assert.Len(t, writer.stored, 1)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		sc, _ := newScanner(&fakeSignalWriter{err: assert.AnError}, nil)

		_, err := sc.Scan(context.Background(), NameRSI)
		assert.ErrorContains(t, err, "failed to store signals")
	})

	t.Run("Names lists registered strategies", func(t *testing.T) {
		sc, _ := newScanner(&fakeSignalWriter{}, nil)
		assert.ElementsMatch(t, []string{NameRSI}, sc.Names())
	})
}

package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantrey/stock-data-service/internal/models"
)

// fakeProvider implements the MarketData interface for testing
type fakeProvider struct {
	daily     []*models.DailyBar
	monthly   []*models.MonthlyBar
	index     []*models.IndexDailyBar
	companies []*models.Company
	err       error
}

func (f *fakeProvider) Daily(ctx context.Context, tsCode, tradeDate, startDate, endDate string) ([]*models.DailyBar, error) {
	return f.daily, f.err
}

func (f *fakeProvider) Monthly(ctx context.Context, tsCode, startDate, endDate string) ([]*models.MonthlyBar, error) {
	return f.monthly, f.err
}

func (f *fakeProvider) IndexDaily(ctx context.Context, tsCode, startDate, endDate string) ([]*models.IndexDailyBar, error) {
	return f.index, f.err
}

func (f *fakeProvider) StockBasic(ctx context.Context) ([]*models.Company, error) {
	return f.companies, f.err
}

// fakeIngestStore implements the Store interface for testing
type fakeIngestStore struct {
	daily     []*models.DailyBar
	monthly   []*models.MonthlyBar
	index     []*models.IndexDailyBar
	companies []*models.Company
	err       error
}

func (f *fakeIngestStore) UpsertDailyBarBatch(bars []*models.DailyBar) error {
	if f.err != nil {
		return f.err
	}
	f.daily = append(f.daily, bars...)
	return nil
}

func (f *fakeIngestStore) UpsertMonthlyBarBatch(bars []*models.MonthlyBar) error {
	f.monthly = append(f.monthly, bars...)
	return f.err
}

func (f *fakeIngestStore) UpsertIndexBarBatch(bars []*models.IndexDailyBar) error {
	f.index = append(f.index, bars...)
	return f.err
}

func (f *fakeIngestStore) UpsertCompanyBatch(companies []*models.Company) error {
	f.companies = append(f.companies, companies...)
	return f.err
}

// fakeInvalidator implements the Invalidator interface for testing
type fakeInvalidator struct {
	codes []string
}

func (f *fakeInvalidator) Invalidate(ctx context.Context, tsCodes ...string) {
	f.codes = append(f.codes, tsCodes...)
}

func providerBars(codes ...string) []*models.DailyBar {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	bars := make([]*models.DailyBar, 0, len(codes))
	for _, code := range codes {
		bars = append(bars, &models.DailyBar{
			TsCode:    code,
			TradeDate: date,
			Close:     decimal.NewFromFloat(11.2),
		})
	}
	return bars
}

func TestIngestDaily(t *testing.T) {
	t.Run("stores fetched bars and invalidates cache", func(t *testing.T) {
		store := &fakeIngestStore{}
		cache := &fakeInvalidator{}
		svc := NewService(&fakeProvider{daily: providerBars("000001.SZ", "600519.SH")}, store, cache, nil)

		count, err := svc.IngestDailyByDate(context.Background(), "20240315")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
		assert.Len(t, store.daily, 2)
		assert.Equal(t, []string{"000001.SZ", "600519.SH"}, cache.codes)
	})

	t.Run("empty fetch stores nothing", func(t *testing.T) {
		store := &fakeIngestStore{}
		svc := NewService(&fakeProvider{}, store, nil, nil)

		count, err := svc.IngestDaily(context.Background(), "000001.SZ", "20240315")
		require.NoError(t, err)
		assert.Zero(t, count)
		assert.Empty(t, store.daily)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		svc := NewService(&fakeProvider{err: assert.AnError}, &fakeIngestStore{}, nil, nil)

		_, err := svc.IngestDaily(context.Background(), "000001.SZ", "20240315")
		assert.ErrorContains(t, err, "failed to fetch daily bars")
	})

	t.Run("store failure skips cache invalidation", func(t *testing.T) {
		cache := &fakeInvalidator{}
		svc := NewService(&fakeProvider{daily: providerBars("000001.SZ")}, &fakeIngestStore{err: assert.AnError}, cache, nil)

		_, err := svc.BackfillDaily(context.Background(), "000001.SZ", "20230101", "20240315")
		require.Error(t, err)
		assert.Empty(t, cache.codes)
	})
}

func TestIngestMonthly(t *testing.T) {
	store := &fakeIngestStore{}
	svc := NewService(&fakeProvider{monthly: []*models.MonthlyBar{{TsCode: "000001.SZ"}}}, store, nil, nil)

	count, err := svc.IngestMonthly(context.Background(), "000001.SZ", "20230101", "20240315")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.monthly, 1)
}

func TestIngestIndexDaily(t *testing.T) {
	store := &fakeIngestStore{}
	svc := NewService(&fakeProvider{index: []*models.IndexDailyBar{{TsCode: "000300.SH"}}}, store, nil, nil)

	count, err := svc.IngestIndexDaily(context.Background(), "000300.SH", "20230101", "20240315")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Len(t, store.index, 1)
}

func TestSyncCompanies(t *testing.T) {
	t.Run("stores roster", func(t *testing.T) {
		store := &fakeIngestStore{}
		svc := NewService(&fakeProvider{companies: []*models.Company{{TsCode: "000001.SZ"}}}, store, nil, nil)

		count, err := svc.SyncCompanies(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		assert.Len(t, store.companies, 1)
	})

	t.Run("provider failure surfaces", func(t *testing.T) {
		svc := NewService(&fakeProvider{err: assert.AnError}, &fakeIngestStore{}, nil, nil)

		_, err := svc.SyncCompanies(context.Background())
		assert.ErrorContains(t, err, "failed to fetch company roster")
	})
}

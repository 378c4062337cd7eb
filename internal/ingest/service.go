// Package ingest pulls bars and reference data from the provider and lands
// them in MySQL through the repository batch upserts.
package ingest

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/models"
)

// MarketData is the slice of the provider client the ingest service uses
type MarketData interface {
	Daily(ctx context.Context, tsCode, tradeDate, startDate, endDate string) ([]*models.DailyBar, error)
	Monthly(ctx context.Context, tsCode, startDate, endDate string) ([]*models.MonthlyBar, error)
	IndexDaily(ctx context.Context, tsCode, startDate, endDate string) ([]*models.IndexDailyBar, error)
	StockBasic(ctx context.Context) ([]*models.Company, error)
}

// Store is the write side of the repositories the service lands data in
type Store interface {
	UpsertDailyBarBatch(bars []*models.DailyBar) error
	UpsertMonthlyBarBatch(bars []*models.MonthlyBar) error
	UpsertIndexBarBatch(bars []*models.IndexDailyBar) error
	UpsertCompanyBatch(companies []*models.Company) error
}

// Invalidator is notified after daily bar writes so cached ranges get dropped
type Invalidator interface {
	Invalidate(ctx context.Context, tsCodes ...string)
}

// Service coordinates provider fetches and repository writes
type Service struct {
	provider MarketData
	store    Store
	cache    Invalidator
	logger   *zap.Logger
}

// NewService creates an ingest service. cache may be nil.
func NewService(provider MarketData, store Store, cache Invalidator, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{provider: provider, store: store, cache: cache, logger: logger}
}

// IngestDaily fetches and stores one stock's bar for one trade date
func (s *Service) IngestDaily(ctx context.Context, tsCode, tradeDate string) (int, error) {
	bars, err := s.provider.Daily(ctx, tsCode, tradeDate, "", "")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch daily bars: %w", err)
	}
	return s.storeDaily(ctx, bars)
}

// IngestDailyByDate fetches and stores the whole market's bars for one trade date
func (s *Service) IngestDailyByDate(ctx context.Context, tradeDate string) (int, error) {
	bars, err := s.provider.Daily(ctx, "", tradeDate, "", "")
	if err != nil {
		return 0, fmt.Errorf("failed to fetch daily bars for %s: %w", tradeDate, err)
	}
	return s.storeDaily(ctx, bars)
}

// BackfillDaily fetches and stores one stock's bars over a date range
func (s *Service) BackfillDaily(ctx context.Context, tsCode, startDate, endDate string) (int, error) {
	bars, err := s.provider.Daily(ctx, tsCode, "", startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to backfill %s: %w", tsCode, err)
	}
	return s.storeDaily(ctx, bars)
}

// IngestMonthly fetches and stores one stock's month-end bars over a date range
func (s *Service) IngestMonthly(ctx context.Context, tsCode, startDate, endDate string) (int, error) {
	bars, err := s.provider.Monthly(ctx, tsCode, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch monthly bars: %w", err)
	}
	if err := s.store.UpsertMonthlyBarBatch(bars); err != nil {
		return 0, err
	}
	s.logger.Info("stored monthly bars", zap.String("ts_code", tsCode), zap.Int("count", len(bars)))
	return len(bars), nil
}

// IngestIndexDaily fetches and stores one index's bars over a date range
func (s *Service) IngestIndexDaily(ctx context.Context, tsCode, startDate, endDate string) (int, error) {
	bars, err := s.provider.IndexDaily(ctx, tsCode, startDate, endDate)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch index bars: %w", err)
	}
	if err := s.store.UpsertIndexBarBatch(bars); err != nil {
		return 0, err
	}
	s.logger.Info("stored index bars", zap.String("ts_code", tsCode), zap.Int("count", len(bars)))
	return len(bars), nil
}

// SyncCompanies refreshes the listed-company roster
func (s *Service) SyncCompanies(ctx context.Context) (int, error) {
	companies, err := s.provider.StockBasic(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch company roster: %w", err)
	}
	if err := s.store.UpsertCompanyBatch(companies); err != nil {
		return 0, err
	}
	s.logger.Info("synced companies", zap.Int("count", len(companies)))
	return len(companies), nil
}

func (s *Service) storeDaily(ctx context.Context, bars []*models.DailyBar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}
	if err := s.store.UpsertDailyBarBatch(bars); err != nil {
		return 0, err
	}

	if s.cache != nil {
		codes := make([]string, 0, len(bars))
		for _, b := range bars {
			codes = append(codes, b.TsCode)
		}
		s.cache.Invalidate(ctx, codes...)
	}

	s.logger.Info("stored daily bars", zap.Int("count", len(bars)))
	return len(bars), nil
}

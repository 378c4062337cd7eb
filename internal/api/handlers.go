package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/quantrey/stock-data-service/internal/models"
)

// Store is the read surface handlers need from the database layer
type Store interface {
	GetAllCompanies() ([]*models.Company, error)
	GetCompany(tsCode string) (*models.Company, error)
	ListCompanyCodes(prefix string) ([]string, error)
	GetMonthlyBarRange(tsCode string, from, to time.Time) ([]*models.MonthlyBar, error)
	GetSignals(strategy string, tradeDate time.Time) ([]*models.Signal, error)
	GetLatestSignals(strategy string) ([]*models.Signal, error)
	Ping() error
}

// BarReader serves daily bar range queries, possibly through the cache
type BarReader interface {
	GetDailyBarRange(ctx context.Context, tsCode string, from, to time.Time) ([]*models.DailyBar, error)
}

// Ingestor triggers provider fetches
type Ingestor interface {
	IngestDaily(ctx context.Context, tsCode, tradeDate string) (int, error)
	IngestDailyByDate(ctx context.Context, tradeDate string) (int, error)
	BackfillDaily(ctx context.Context, tsCode, startDate, endDate string) (int, error)
	IngestMonthly(ctx context.Context, tsCode, startDate, endDate string) (int, error)
	IngestIndexDaily(ctx context.Context, tsCode, startDate, endDate string) (int, error)
	SyncCompanies(ctx context.Context) (int, error)
}

// Scanner runs strategy scans
type Scanner interface {
	Scan(ctx context.Context, name string) ([]*models.Signal, error)
	Names() []string
}

// BackupRunner produces a database dump on demand
type BackupRunner interface {
	Run(ctx context.Context) (string, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	store   Store
	bars    BarReader
	ingest  Ingestor
	scanner Scanner
	backup  BackupRunner
	logger  *zap.Logger
}

// NewHandler creates a new Handler. ingest, scanner and backup may be nil
// when the corresponding subsystem is disabled.
func NewHandler(store Store, bars BarReader, ingest Ingestor, scanner Scanner, backup BackupRunner, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:   store,
		bars:    bars,
		ingest:  ingest,
		scanner: scanner,
		backup:  backup,
		logger:  logger,
	}
}

// TimeSeriesRow is one row of the dashboard time-series query:
// time, open, high, low, close and the stock code as the series label
type TimeSeriesRow struct {
	Time   string          `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Metric string          `json:"metric"`
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(); err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// GetAllCompanies handles GET /companies
func (h *Handler) GetAllCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.store.GetAllCompanies()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, companies)
}

// GetCompany handles GET /companies/{ts_code}
func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	company, err := h.store.GetCompany(vars["ts_code"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, company)
}

// SyncCompanies handles POST /companies/sync
func (h *Handler) SyncCompanies(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		http.Error(w, "ingest is not configured", http.StatusServiceUnavailable)
		return
	}
	count, err := h.ingest.SyncCompanies(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"synced": count})
}

// GetBars handles GET /bars/{ts_code}?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *Handler) GetBars(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tsCode := vars["ts_code"]

	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bars, err := h.bars.GetDailyBarRange(r.Context(), tsCode, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, bars)
}

// GetTimeSeries handles GET /timeseries/{ts_code}?from=...&to=... and returns
// rows shaped for dashboard panels: time, open, high, low, close, metric
func (h *Handler) GetTimeSeries(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	tsCode := vars["ts_code"]

	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bars, err := h.bars.GetDailyBarRange(r.Context(), tsCode, from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rows := make([]TimeSeriesRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, TimeSeriesRow{
			Time:   b.TradeDate.Format("2006-01-02"),
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Metric: b.TsCode,
		})
	}
	respondJSON(w, http.StatusOK, rows)
}

// GetMonthlyBars handles GET /monthly/{ts_code}?from=...&to=...
func (h *Handler) GetMonthlyBars(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	from, to, err := parseRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bars, err := h.store.GetMonthlyBarRange(vars["ts_code"], from, to)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, bars)
}

// IngestDaily handles POST /ingest/daily with {"trade_date": "YYYYMMDD", "ts_code": "..."}
func (h *Handler) IngestDaily(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		http.Error(w, "ingest is not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		TradeDate string `json:"trade_date"`
		TsCode    string `json:"ts_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TradeDate == "" {
		http.Error(w, "trade_date is required", http.StatusBadRequest)
		return
	}
	if _, err := models.ParseTradeDate(req.TradeDate); err != nil {
		http.Error(w, "trade_date must be YYYYMMDD", http.StatusBadRequest)
		return
	}

	var count int
	var err error
	if req.TsCode != "" {
		count, err = h.ingest.IngestDaily(r.Context(), req.TsCode, req.TradeDate)
	} else {
		count, err = h.ingest.IngestDailyByDate(r.Context(), req.TradeDate)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"ingested": count})
}

// Backfill handles POST /backfill with {"ts_code", "start_date", "end_date"}
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	if h.ingest == nil {
		http.Error(w, "ingest is not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		TsCode    string `json:"ts_code"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TsCode == "" || req.StartDate == "" || req.EndDate == "" {
		http.Error(w, "ts_code, start_date and end_date are required", http.StatusBadRequest)
		return
	}

	count, err := h.ingest.BackfillDaily(r.Context(), req.TsCode, req.StartDate, req.EndDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"ingested": count})
}

// IngestMonthly handles POST /ingest/monthly with {"ts_code", "start_date", "end_date"}
func (h *Handler) IngestMonthly(w http.ResponseWriter, r *http.Request) {
	h.ingestRange(w, r, func(ctx context.Context, tsCode, startDate, endDate string) (int, error) {
		return h.ingest.IngestMonthly(ctx, tsCode, startDate, endDate)
	})
}

// IngestIndex handles POST /ingest/index with {"ts_code", "start_date", "end_date"},
// feeding the index_daily table the relative strength scan reads
func (h *Handler) IngestIndex(w http.ResponseWriter, r *http.Request) {
	h.ingestRange(w, r, func(ctx context.Context, tsCode, startDate, endDate string) (int, error) {
		return h.ingest.IngestIndexDaily(ctx, tsCode, startDate, endDate)
	})
}

func (h *Handler) ingestRange(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, tsCode, startDate, endDate string) (int, error)) {
	if h.ingest == nil {
		http.Error(w, "ingest is not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		TsCode    string `json:"ts_code"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.TsCode == "" {
		http.Error(w, "ts_code is required", http.StatusBadRequest)
		return
	}

	count, err := fetch(r.Context(), req.TsCode, req.StartDate, req.EndDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"ingested": count})
}

// GetSignals handles GET /signals/{strategy}?trade_date=YYYYMMDD
func (h *Handler) GetSignals(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	strategyName := vars["strategy"]

	var signals []*models.Signal
	var err error
	if dateStr := r.URL.Query().Get("trade_date"); dateStr != "" {
		var date time.Time
		date, err = models.ParseTradeDate(dateStr)
		if err != nil {
			http.Error(w, "trade_date must be YYYYMMDD", http.StatusBadRequest)
			return
		}
		signals, err = h.store.GetSignals(strategyName, date)
	} else {
		signals, err = h.store.GetLatestSignals(strategyName)
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, signals)
}

// RunScan handles POST /scan/{strategy}
func (h *Handler) RunScan(w http.ResponseWriter, r *http.Request) {
	if h.scanner == nil {
		http.Error(w, "scanner is not configured", http.StatusServiceUnavailable)
		return
	}

	vars := mux.Vars(r)
	signals, err := h.scanner.Scan(r.Context(), vars["strategy"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, signals)
}

// RunBackup handles POST /backup
func (h *Handler) RunBackup(w http.ResponseWriter, r *http.Request) {
	if h.backup == nil {
		http.Error(w, "backup is not configured", http.StatusServiceUnavailable)
		return
	}

	path, err := h.backup.Run(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"backup": path})
}

// parseRange reads from/to query params (YYYY-MM-DD), defaulting to the last
// 90 days
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	to := time.Now()
	from := to.AddDate(0, 0, -90)

	if s := r.URL.Query().Get("from"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be YYYY-MM-DD")
		}
		from = t
	}
	if s := r.URL.Query().Get("to"); s != "" {
		t, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be YYYY-MM-DD")
		}
		to = t
	}
	return from, to, nil
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

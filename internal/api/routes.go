package api

import (
	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// Core API
	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/companies", handler.GetAllCompanies).Methods("GET")
	api.HandleFunc("/companies/sync", handler.SyncCompanies).Methods("POST")
	api.HandleFunc("/companies/{ts_code}", handler.GetCompany).Methods("GET")
	api.HandleFunc("/bars/{ts_code}", handler.GetBars).Methods("GET")
	api.HandleFunc("/timeseries/{ts_code}", handler.GetTimeSeries).Methods("GET")
	api.HandleFunc("/monthly/{ts_code}", handler.GetMonthlyBars).Methods("GET")
	api.HandleFunc("/ingest/daily", handler.IngestDaily).Methods("POST")
	api.HandleFunc("/ingest/monthly", handler.IngestMonthly).Methods("POST")
	api.HandleFunc("/ingest/index", handler.IngestIndex).Methods("POST")
	api.HandleFunc("/backfill", handler.Backfill).Methods("POST")
	api.HandleFunc("/signals/{strategy}", handler.GetSignals).Methods("GET")
	api.HandleFunc("/scan/{strategy}", handler.RunScan).Methods("POST")
	api.HandleFunc("/backup", handler.RunBackup).Methods("POST")

	// Grafana JSON datasource
	grafana := r.PathPrefix("/grafana").Subrouter()
	grafana.HandleFunc("/", handler.GrafanaRoot).Methods("GET")
	grafana.HandleFunc("/search", handler.GrafanaSearch).Methods("POST")
	grafana.HandleFunc("/query", handler.GrafanaQuery).Methods("POST")

	return r
}

package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// Grafana JSON datasource endpoints. The dashboard defines a $stock_code
// template variable backed by /grafana/search and panels that query
// /grafana/query with the selected codes and the panel's time range, which
// is how the $__timeFrom()/$__timeTo() macros reach us.

type grafanaRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type grafanaTarget struct {
	Target string `json:"target"`
	Type   string `json:"type,omitempty"`
}

type grafanaQueryRequest struct {
	Range   grafanaRange    `json:"range"`
	Targets []grafanaTarget `json:"targets"`
}

type grafanaTimeSeries struct {
	Target     string      `json:"target"`
	Datapoints [][]float64 `json:"datapoints"`
}

type grafanaTableColumn struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type grafanaTable struct {
	Type    string               `json:"type"`
	Columns []grafanaTableColumn `json:"columns"`
	Rows    [][]interface{}      `json:"rows"`
}

// GrafanaRoot handles GET /grafana/ as the datasource health check
func (h *Handler) GrafanaRoot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GrafanaSearch handles POST /grafana/search, returning the ts_code values
// the $stock_code template variable offers
func (h *Handler) GrafanaSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Target string `json:"target"`
	}
	// An empty body means "list everything"
	_ = json.NewDecoder(r.Body).Decode(&req)

	codes, err := h.store.ListCompanyCodes(req.Target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, codes)
}

// GrafanaQuery handles POST /grafana/query. Each target is a ts_code; the
// panel's time range bounds the bars. Timeserie targets get close prices,
// table targets get the full time/open/high/low/close/metric row set.
func (h *Handler) GrafanaQuery(w http.ResponseWriter, r *http.Request) {
	var req grafanaQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Range.To.IsZero() {
		req.Range.To = time.Now()
	}
	if req.Range.From.IsZero() {
		req.Range.From = req.Range.To.AddDate(0, 0, -90)
	}

	response := make([]interface{}, 0, len(req.Targets))
	for _, target := range req.Targets {
		if target.Target == "" {
			continue
		}

		bars, err := h.bars.GetDailyBarRange(r.Context(), target.Target, req.Range.From, req.Range.To)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if target.Type == "table" {
			table := grafanaTable{
				Type: "table",
				Columns: []grafanaTableColumn{
					{Text: "time", Type: "time"},
					{Text: "open", Type: "number"},
					{Text: "high", Type: "number"},
					{Text: "low", Type: "number"},
					{Text: "close", Type: "number"},
					{Text: "metric", Type: "string"},
				},
			}
			for _, b := range bars {
				open, _ := b.Open.Float64()
				high, _ := b.High.Float64()
				low, _ := b.Low.Float64()
				closePrice, _ := b.Close.Float64()
				table.Rows = append(table.Rows, []interface{}{
					b.TradeDate.UnixMilli(), open, high, low, closePrice, b.TsCode,
				})
			}
			response = append(response, table)
			continue
		}

		series := grafanaTimeSeries{Target: target.Target, Datapoints: [][]float64{}}
		for _, b := range bars {
			closePrice, _ := b.Close.Float64()
			series.Datapoints = append(series.Datapoints, []float64{
				closePrice, float64(b.TradeDate.UnixMilli()),
			})
		}
		response = append(response, series)
	}

	respondJSON(w, http.StatusOK, response)
}

// Package provider implements the upstream market data API client. The API
// is a single POST endpoint taking an api_name, an auth token and a params
// map, and answering with a columnar fields/items payload.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls the market data provider API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a provider client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields,omitempty"`
}

type apiResponse struct {
	Code int     `json:"code"`
	Msg  string  `json:"msg"`
	Data apiData `json:"data"`
}

type apiData struct {
	Fields []string            `json:"fields"`
	Items  [][]json.RawMessage `json:"items"`
}

// call executes one API request and returns the columnar payload as a slice
// of field-name → raw-value rows
func (c *Client) call(ctx context.Context, apiName string, params map[string]string, fields string) ([]map[string]json.RawMessage, error) {
	reqBody, err := json.Marshal(apiRequest{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
		Fields:  fields,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var apiResp apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("provider error for %s: %s", apiName, apiResp.Msg)
	}

	rows := make([]map[string]json.RawMessage, 0, len(apiResp.Data.Items))
	for _, item := range apiResp.Data.Items {
		if len(item) != len(apiResp.Data.Fields) {
			return nil, fmt.Errorf("provider row has %d values for %d fields", len(item), len(apiResp.Data.Fields))
		}
		row := make(map[string]json.RawMessage, len(item))
		for i, f := range apiResp.Data.Fields {
			row[f] = item[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

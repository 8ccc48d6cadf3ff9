// Package ingest fetches A-share market data over the Tushare Pro HTTP API.
// API documentation: https://tushare.pro/document/1?doc_id=130
//
// Every endpoint speaks the same envelope: POST a JSON body naming the api
// and get back {code, msg, data:{fields, items}} with items as parallel rows.
package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"ashare_analysis/pkg/models"
)

const (
	// TushareURL is the single endpoint of the Tushare Pro API.
	TushareURL = "https://api.tushare.pro"

	maxRetries = 3
	retryDelay = 2 * time.Second

	// requestGap keeps successive calls apart; the free tier rate-limits
	// aggressively.
	requestGap = 300 * time.Millisecond
)

// FetchError reports a failed endpoint call. Code carries the API-level
// status when the HTTP exchange itself succeeded.
type FetchError struct {
	API  string
	Code int64
	Msg  string
}

func (e *FetchError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("tushare %s: code %d: %s", e.API, e.Code, e.Msg)
	}
	return fmt.Sprintf("tushare %s: %s", e.API, e.Msg)
}

// Client is a Tushare Pro API client. It is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	token      string
	baseURL    string

	mu       sync.Mutex
	lastCall time.Time
}

// NewClient creates a client with the given API token.
func NewClient(token string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		token:      token,
		baseURL:    TushareURL,
	}
}

type tushareRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params,omitempty"`
	Fields  string            `json:"fields,omitempty"`
}

// Query calls one endpoint and decodes data.fields/data.items into rows.
// Transient failures are retried with linear backoff.
func (c *Client) Query(ctx context.Context, apiName string, params map[string]string, fields string) ([]models.Row, error) {
	payload, err := json.Marshal(tushareRequest{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
		Fields:  fields,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", apiName, err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryDelay):
			}
		}
		c.pace()

		rows, err := c.doQuery(ctx, apiName, payload)
		if err == nil {
			return rows, nil
		}
		lastErr = err
		// API-level rejections (bad token, no permission) do not heal on
		// retry.
		if fe, ok := err.(*FetchError); ok && fe.Code != 0 {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doQuery(ctx context.Context, apiName string, payload []byte) ([]models.Row, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", apiName, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{API: apiName, Msg: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{API: apiName, Msg: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{API: apiName, Msg: fmt.Sprintf("read body: %v", err)}
	}
	return decodeRows(apiName, body)
}

// decodeRows zips data.fields with each data.items row into a map row.
func decodeRows(apiName string, body []byte) ([]models.Row, error) {
	if code := gjson.GetBytes(body, "code"); code.Int() != 0 {
		return nil, &FetchError{API: apiName, Code: code.Int(), Msg: gjson.GetBytes(body, "msg").String()}
	}

	fields := gjson.GetBytes(body, "data.fields")
	items := gjson.GetBytes(body, "data.items")
	if !fields.IsArray() || !items.IsArray() {
		return nil, &FetchError{API: apiName, Msg: "malformed response: no data.fields/data.items"}
	}

	var names []string
	for _, f := range fields.Array() {
		names = append(names, f.String())
	}

	var rows []models.Row
	for _, item := range items.Array() {
		values := item.Array()
		row := models.Row{}
		for i, name := range names {
			if i >= len(values) {
				break
			}
			row[name] = values[i].Value()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *Client) pace() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if wait := requestGap - time.Since(c.lastCall); wait > 0 {
		time.Sleep(wait)
	}
	c.lastCall = time.Now()
}

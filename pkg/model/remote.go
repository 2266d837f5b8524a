package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"farmsight/pkg/features"
)

// ErrUpstream marks failures of the remote inference server.
var ErrUpstream = errors.New("inference server error")

// RemotePredictor sends rows to an external inference server that hosts the
// trained model. Request: {"columns":[...],"rows":[[...]]}; response:
// {"predictions":[x]}.
type RemotePredictor struct {
	endpoint string
	httpc    *http.Client
}

func NewRemote(endpoint string, timeout time.Duration) *RemotePredictor {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &RemotePredictor{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpc:    &http.Client{Timeout: timeout},
	}
}

func (c *RemotePredictor) Name() string { return "remote" }

func (c *RemotePredictor) Predict(ctx context.Context, row features.FeatureRow) (float64, error) {
	reqBody := struct {
		Columns []string    `json:"columns"`
		Rows    [][]float64 `json:"rows"`
	}{Columns: row.Columns, Rows: [][]float64{row.Values}}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/predict", bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out struct {
		Predictions []float64 `json:"predictions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}
	if len(out.Predictions) == 0 {
		return 0, fmt.Errorf("%w: no predictions", ErrUpstream)
	}
	return out.Predictions[0], nil
}

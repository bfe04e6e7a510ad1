// Package client is the Node's HTTP client for the Hive coordinator (spec
// §4.5/§6: JSON over HTTP). Grounded on teacher's executor/executor.go
// middleware chain, which wraps a transport client in a circuit breaker
// then a retrier (go-toolbox/pkg/breaker, go-toolbox/pkg/retry) before any
// request goes out; this client applies the same two wrappers directly to
// the Hive calls rather than through a generic middleware chain, since a
// Node only ever talks to one peer (the Hive), not the pluggable
// multi-protocol target executor.go's chain is built for.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kamalyes/go-toolbox/pkg/breaker"
	"github.com/kamalyes/go-toolbox/pkg/retry"

	"github.com/infodungeon/keyforge/internal/errs"
	"github.com/infodungeon/keyforge/internal/hive"
	"github.com/infodungeon/keyforge/internal/logging"
)

// Client talks to one Hive over HTTP, retrying transient failures behind
// a circuit breaker so a down Hive doesn't spin the Node's retries hot.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
	circuit *breaker.CircuitBreaker
	retrier *retry.Runner[error]
	log     logging.ILogger
}

// New builds a Client against a running Hive at baseURL
// (e.g. "http://hive.local:8420").
func New(baseURL, secret string, log logging.ILogger) *Client {
	if log == nil {
		log = logging.New("NODE-CLIENT")
	}
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: 10 * time.Second},
		circuit: breaker.New("hive", breaker.Config{
			MaxFailures:       5,
			ResetTimeout:      30 * time.Second,
			HalfOpenSuccesses: 2,
		}),
		retrier: retry.NewRunner[error](),
		log:     log,
	}
}

// RegisterJob calls POST /v1/register_job.
func (c *Client) RegisterJob(ctx context.Context, desc hive.JobDescription) (string, error) {
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/register_job", desc, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// GetActiveJob calls GET /v1/get_active_job. resp is nil (ok=false) when
// the Hive has no eligible job to hand out.
func (c *Client) GetActiveJob(ctx context.Context) (desc *hive.JobDescription, jobID string, ok bool, err error) {
	var resp struct {
		JobID          string            `json:"job_id"`
		Keyboard       json.RawMessage   `json:"keyboard"`
		Weights        json.RawMessage   `json:"weights"`
		Params         json.RawMessage   `json:"params"`
		PinnedKeys     map[string]string `json:"pinned_keys"`
		CorpusName     string            `json:"corpus_name"`
		CostMatrixName string            `json:"cost_matrix_name"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/get_active_job", nil, &resp); err != nil {
		return nil, "", false, err
	}
	if resp.JobID == "" {
		return nil, "", false, nil
	}
	return &hive.JobDescription{
		Keyboard:       resp.Keyboard,
		Weights:        resp.Weights,
		Params:         resp.Params,
		PinnedKeys:     resp.PinnedKeys,
		CorpusName:     resp.CorpusName,
		CostMatrixName: resp.CostMatrixName,
	}, resp.JobID, true, nil
}

// SubmitResult calls POST /v1/submit_result.
func (c *Client) SubmitResult(ctx context.Context, jobID, layout string, score float64, nodeID string) (accepted bool, err error) {
	req := map[string]interface{}{"job_id": jobID, "layout": layout, "score": score, "node_id": nodeID}
	var resp struct {
		Accepted bool `json:"accepted"`
	}
	if err := c.call(ctx, http.MethodPost, "/v1/submit_result", req, &resp); err != nil {
		return false, err
	}
	return resp.Accepted, nil
}

// GetStatus calls GET /v1/get_status?job_id=....
func (c *Client) GetStatus(ctx context.Context, jobID string) (hive.Status, error) {
	var resp hive.Status
	path := "/v1/get_status?job_id=" + jobID
	if err := c.call(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return hive.Status{}, err
	}
	return resp, nil
}

// Heartbeat calls POST /v1/heartbeat. Per spec §7 it is never retried
// through the exponential-backoff Runner the way other calls are: a Node
// in the heartbeat loop is itself implementing the outer backoff (spec
// §4.6), so wrapping it twice would double-apply the policy.
func (c *Client) Heartbeat(ctx context.Context, nodeID, cpuSignature string, cpuCores int, opsPerSec float64, currentJobID string) error {
	req := map[string]interface{}{
		"node_id":        nodeID,
		"cpu_signature":  cpuSignature,
		"cpu_cores":      cpuCores,
		"ops_per_sec":    opsPerSec,
		"current_job_id": currentJobID,
	}
	return c.doOnce(ctx, http.MethodPost, "/v1/heartbeat", req, nil)
}

// SyncData calls GET /v1/sync_data, listing every file in the Hive's data
// jail along with its size and sha256 digest.
func (c *Client) SyncData(ctx context.Context) ([]hive.FileEntry, error) {
	var resp struct {
		Files []hive.FileEntry `json:"files"`
	}
	if err := c.call(ctx, http.MethodGet, "/v1/sync_data", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// FetchData calls GET /v1/fetch_data?path=....
func (c *Client) FetchData(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + "/v1/fetch_data?path=" + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, "build fetch_data request", err)
	}
	c.sign(httpReq)

	var body []byte
	op := func() error {
		resp, err := c.http.Do(httpReq)
		if err != nil {
			return errs.Wrap(errs.Transport, "fetch_data", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return decodeHiveError(resp)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return errs.Wrap(errs.Transport, "read fetch_data body", err)
		}
		return nil
	}
	if err := c.withBreakerAndRetry(ctx, op); err != nil {
		return nil, err
	}
	return body, nil
}

// ===== internals =====

func (c *Client) sign(req *http.Request) {
	if c.secret != "" {
		req.Header.Set("X-Hive-Secret", c.secret)
	}
}

// call performs a retried, circuit-broken round trip and decodes the JSON
// response into out (skipped if out is nil).
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	return c.withBreakerAndRetry(ctx, func() error {
		return c.doOnce(ctx, method, path, body, out)
	})
}

// doOnce performs a single HTTP round trip with no retry/breaker wrapping,
// used directly by Heartbeat (see its comment) and as the inner operation
// retried/broken by call.
func (c *Client) doOnce(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(errs.Validation, "marshal request body", err)
		}
		reader = bytes.NewReader(buf)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errs.Wrap(errs.Transport, "build request", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	c.sign(httpReq)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return errs.Wrap(errs.Transport, fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeHiveError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return errs.Wrap(errs.Transport, "decode response", err)
	}
	return nil
}

// withBreakerAndRetry runs op through the circuit breaker and the retry
// Runner's backoff policy (spec §7: Transport/StoreTransient kinds are
// retryable). Neither the breaker's execute method nor the Runner's retry
// method is exercised by any sample call site in the retrieval pack (only
// their constructors are); Execute/Run are this repo's best-effort
// inference of that surface from the package names themselves, documented
// in DESIGN.md.
func (c *Client) withBreakerAndRetry(ctx context.Context, op func() error) error {
	return c.circuit.Execute(func() error {
		return c.retrier.Run(ctx, func(ctx context.Context) error {
			return op()
		})
	})
}

func decodeHiveError(resp *http.Response) error {
	var envelope errs.Error
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return errs.New(errs.Transport, fmt.Sprintf("hive returned status %d", resp.StatusCode))
	}
	return &envelope
}

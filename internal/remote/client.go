package remote

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

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/agent/evaluation"
	"github.com/BaSui01/contextbench/config"
)

// ErrNotConfigured is returned by NewClient without an endpoint or API key.
var ErrNotConfigured = errors.New("remote evaluation needs an endpoint and an API key")

// Experiment is the uploaded shape of one batch.
type Experiment struct {
	ID        string             `json:"id"`
	Project   string             `json:"project"`
	Dataset   string             `json:"dataset"`
	StartedAt time.Time          `json:"started_at"`
	Examples  []Example          `json:"examples"`
	Summary   map[string]float64 `json:"summary"`
	Failed    int                `json:"failed"`
}

// Example is one evaluated record.
type Example struct {
	TaskID   int                `json:"task_id"`
	Name     string             `json:"name"`
	RunID    string             `json:"run_id,omitempty"`
	Status   string             `json:"status,omitempty"`
	Turns    int                `json:"turns"`
	Feedback []evaluation.Score `json:"feedback"`
	Error    string             `json:"error,omitempty"`
}

// NewExperiment converts a report.
func NewExperiment(project, dataset string, startedAt time.Time, report *evaluation.Report) Experiment {
	exp := Experiment{
		ID:        uuid.NewString(),
		Project:   project,
		Dataset:   dataset,
		StartedAt: startedAt.UTC(),
		Summary:   report.Means,
		Failed:    report.Failed,
		Examples:  make([]Example, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		feedback := r.Scores
		if feedback == nil {
			feedback = []evaluation.Score{}
		}
		exp.Examples = append(exp.Examples, Example{
			TaskID:   r.Metadata.TaskID,
			Name:     r.Metadata.Name,
			RunID:    r.RunID,
			Status:   string(r.Status),
			Turns:    r.Turns,
			Feedback: feedback,
			Error:    r.Error,
		})
	}
	return exp
}

// Client posts experiments.
type Client struct {
	cfg        config.RemoteConfig
	http       *http.Client
	maxRetries uint
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithMaxRetries sets the number of attempts for retryable failures.
func WithMaxRetries(n uint) Option {
	return func(cl *Client) { cl.maxRetries = n }
}

// NewClient creates a client.
func NewClient(cfg config.RemoteConfig, logger *zap.Logger, opts ...Option) (*Client, error) {
	if !cfg.Configured() {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &Client{
		cfg:        cfg,
		http:       &http.Client{Timeout: cfg.Timeout},
		maxRetries: 3,
		logger:     logger.With(zap.String("component", "remote")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// statusError is a non-2xx answer.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("remote returned %d: %s", e.Status, e.Body)
}

// Upload posts exp and returns the id the service assigned (exp.ID when the
// service does not answer with one). 429 and 5xx answers are retried with
// exponential backoff.
func (c *Client) Upload(ctx context.Context, exp Experiment) (string, error) {
	payload, err := json.Marshal(exp)
	if err != nil {
		return "", fmt.Errorf("encode experiment: %w", err)
	}
	endpoint := strings.TrimRight(c.cfg.Endpoint, "/") + "/experiments"

	attempt := 0
	id, err := backoff.Retry(ctx, func() (string, error) {
		attempt++
		id, err := c.post(ctx, endpoint, payload)
		if err == nil {
			return id, nil
		}
		var se *statusError
		if errors.As(err, &se) && se.Status != http.StatusTooManyRequests && se.Status < 500 {
			return "", backoff.Permanent(err)
		}
		c.logger.Warn("upload failed, retrying", zap.Int("attempt", attempt), zap.Error(err))
		return "", err
	},
		backoff.WithBackOff(newBackOff()),
		backoff.WithMaxTries(c.maxRetries),
	)
	if err != nil {
		return "", fmt.Errorf("upload experiment: %w", err)
	}
	if id == "" {
		id = exp.ID
	}
	c.logger.Info("experiment uploaded",
		zap.String("experiment_id", id),
		zap.String("project", exp.Project),
		zap.Int("examples", len(exp.Examples)),
	)
	return id, nil
}

func newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	return b
}

func (c *Client) post(ctx context.Context, endpoint string, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		return "", &statusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var ack struct {
		ID string `json:"id"`
	}
	if len(body) > 0 {
		_ = json.Unmarshal(body, &ack)
	}
	return ack.ID, nil
}

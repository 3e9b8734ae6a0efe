package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/types"
)

// judgeSystemPrompt pins the judge to a numeric comparison: wording and
// rounding differences are not inconsistencies.
const judgeSystemPrompt = `You verify that a research report's prose agrees with its machine-readable answer.

You receive JSON with "domain", "prose" and "json_value".
1. Extract every numeric value the prose states for the domain. Strip currency signs and thousands separators, and apply scale words (thousand, million, billion, trillion, percent).
2. Compare each extracted number with the corresponding number in json_value. Values within 1% agree.
3. Only numeric mismatches that remain after extraction are inconsistencies. Wording, rounding within tolerance and formatting are not.

Reply with a single JSON object and nothing else:
{"is_consistent": bool, "consistency_score": number between 0 and 1, "inconsistencies": [string], "specific_examples": [string], "reasoning": string}`

// LLMJudgeConfig configures an LLMJudge.
type LLMJudgeConfig struct {
	Model       string        `yaml:"model" json:"model"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float32       `yaml:"temperature" json:"temperature"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	// RequestsPerSecond paces judge calls; 0 means unlimited.
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
	Burst             int     `yaml:"burst" json:"burst"`
}

// DefaultLLMJudgeConfig returns the default judge settings.
func DefaultLLMJudgeConfig() LLMJudgeConfig {
	return LLMJudgeConfig{
		MaxTokens:         1024,
		Temperature:       0,
		Timeout:           60 * time.Second,
		RequestsPerSecond: 2,
		Burst:             1,
	}
}

// LLMJudge asks a model for a consistency verdict.
type LLMJudge struct {
	provider llm.Provider
	config   LLMJudgeConfig
	limiter  *rate.Limiter
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// LLMJudgeOption configures an LLMJudge.
type LLMJudgeOption func(*LLMJudge)

// WithJudgeMetrics records judge requests.
func WithJudgeMetrics(c *metrics.Collector) LLMJudgeOption {
	return func(j *LLMJudge) { j.metrics = c }
}

// NewLLMJudge creates a judge backed by provider.
func NewLLMJudge(provider llm.Provider, config LLMJudgeConfig, logger *zap.Logger, opts ...LLMJudgeOption) *LLMJudge {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := rate.Inf
	if config.RequestsPerSecond > 0 {
		limit = rate.Limit(config.RequestsPerSecond)
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	j := &LLMJudge{
		provider: provider,
		config:   config,
		limiter:  rate.NewLimiter(limit, config.Burst),
		logger:   logger.With(zap.String("component", "llm_judge")),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Judge implements Judge.
func (j *LLMJudge) Judge(ctx context.Context, req ConsistencyRequest) (*Verdict, error) {
	if err := j.limiter.Wait(ctx); err != nil {
		j.metrics.RecordJudgeRequest("cancelled")
		return nil, types.NewError(types.ErrJudge, "judge rate limiter").WithCause(err)
	}
	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, types.NewError(types.ErrJudge, "encode judge payload").WithCause(err)
	}
	traceID, _ := types.TraceID(ctx)
	resp, err := j.provider.Completion(ctx, &llm.ChatRequest{
		TraceID:     traceID,
		Model:       j.config.Model,
		MaxTokens:   j.config.MaxTokens,
		Temperature: j.config.Temperature,
		Messages: []types.Message{
			types.NewSystemMessage(judgeSystemPrompt),
			types.NewUserMessage(string(payload)),
		},
		ResponseFormat: "json_object",
		Timeout:        j.config.Timeout,
		Metadata:       map[string]string{"domain": req.Domain},
	})
	if err != nil {
		j.metrics.RecordJudgeRequest("error")
		return nil, types.NewError(types.ErrJudge, "judge completion failed").WithCause(err)
	}
	msg, ok := resp.FirstMessage()
	if !ok {
		j.metrics.RecordJudgeRequest("error")
		return nil, types.NewError(types.ErrJudge, "judge returned no choices")
	}

	verdict, err := ParseVerdict(msg.Content)
	if err != nil {
		j.metrics.RecordJudgeRequest("invalid")
		j.logger.Debug("unparseable verdict", zap.String("domain", req.Domain), zap.String("content", msg.Content))
		return nil, err
	}
	j.metrics.RecordJudgeRequest("ok")
	return verdict, nil
}

// ParseVerdict reads a verdict from model output, tolerating surrounding
// prose and repairable JSON. The score is clamped to [0, 1].
func ParseVerdict(content string) (*Verdict, error) {
	text := strings.TrimSpace(content)
	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		text = text[start : end+1]
	}
	if !strings.HasPrefix(text, "{") {
		return nil, types.NewError(types.ErrJudge, "no JSON object in verdict")
	}

	var v Verdict
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		fixed, rerr := jsonrepair.JSONRepair(text)
		if rerr != nil {
			return nil, types.NewError(types.ErrJudge, fmt.Sprintf("malformed verdict: %v", err))
		}
		if err := json.Unmarshal([]byte(fixed), &v); err != nil {
			return nil, types.NewError(types.ErrJudge, fmt.Sprintf("malformed verdict: %v", err))
		}
	}
	v.ConsistencyScore = clamp01(v.ConsistencyScore)
	if v.Inconsistencies == nil {
		v.Inconsistencies = []string{}
	}
	if v.SpecificExamples == nil {
		v.SpecificExamples = []string{}
	}
	return &v, nil
}

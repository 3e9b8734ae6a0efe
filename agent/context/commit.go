package context

import (
	"go.uber.org/zap"

	"github.com/BaSui01/contextbench/internal/metrics"
	"github.com/BaSui01/contextbench/tools"
	"github.com/BaSui01/contextbench/types"
)

// RewriteStats describes one rewrite of the agent-visible log.
type RewriteStats struct {
	Rewritten          bool `json:"rewritten"`
	MessagesRemoved    int  `json:"messages_removed"`
	ToolResultsRemoved int  `json:"tool_results_removed"`
	CallsRemoved       int  `json:"calls_removed"`
	TokensBefore       int  `json:"tokens_before"`
	TokensAfter        int  `json:"tokens_after"`
}

// TokensSaved returns TokensBefore - TokensAfter.
func (s RewriteStats) TokensSaved() int {
	return s.TokensBefore - s.TokensAfter
}

// Add accumulates o into s.
func (s *RewriteStats) Add(o RewriteStats) {
	s.Rewritten = s.Rewritten || o.Rewritten
	s.MessagesRemoved += o.MessagesRemoved
	s.ToolResultsRemoved += o.ToolResultsRemoved
	s.CallsRemoved += o.CallsRemoved
	s.TokensBefore += o.TokensBefore
	s.TokensAfter += o.TokensAfter
}

// CommitMiddleware purges calculation-class exchanges from the agent-visible
// history once the agent commits an answer.
type CommitMiddleware struct {
	isCalculation func(string) bool
	isCommit      func(string) bool
	tokenizer     types.Tokenizer
	metrics       *metrics.Collector
	logger        *zap.Logger
}

// Option configures a CommitMiddleware.
type Option func(*CommitMiddleware)

// WithCalculationTools replaces the calculation-class set.
func WithCalculationTools(names ...string) Option {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(m *CommitMiddleware) {
		m.isCalculation = func(name string) bool { return set[name] }
	}
}

// WithTokenizer sets the tokenizer used for before/after accounting.
func WithTokenizer(t types.Tokenizer) Option {
	return func(m *CommitMiddleware) {
		if t != nil {
			m.tokenizer = t
		}
	}
}

// WithMetrics records rewrites on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(m *CommitMiddleware) {
		m.metrics = c
	}
}

// NewCommitMiddleware creates the middleware. The default tokenizer is
// tiktoken cl100k_base with estimation as fallback.
func NewCommitMiddleware(logger *zap.Logger, opts ...Option) *CommitMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &CommitMiddleware{
		isCalculation: tools.IsCalculation,
		isCommit:      tools.IsCommit,
		tokenizer:     NewTiktokenTokenizer(DefaultEncoding),
		logger:        logger.With(zap.String("component", "commit_middleware")),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// lastCommit returns the index of the last assistant message that calls a
// commit tool, or -1.
func (m *CommitMiddleware) lastCommit(msgs []types.Message) int {
	for i := len(msgs) - 1; i >= 0; i-- {
		if !msgs[i].HasToolCalls() {
			continue
		}
		for _, tc := range msgs[i].ToolCalls {
			if m.isCommit(tc.Name) {
				return i
			}
		}
	}
	return -1
}

// Rewrite returns the agent-visible log with calculation exchanges before
// the last commit removed. Assistant turns that only call calculation tools
// are dropped with their results; mixed turns keep their other calls. The
// commit turn and everything after it are kept verbatim. The input is not
// modified and the result is a fresh slice.
func (m *CommitMiddleware) Rewrite(msgs []types.Message) ([]types.Message, RewriteStats) {
	var stats RewriteStats
	commit := m.lastCommit(msgs)
	if commit < 0 {
		return types.CloneMessages(msgs), stats
	}

	// results pair with the calls of the assistant turn they follow, so ids
	// reused across turns do not leak removals
	var removedIDs map[string]bool
	out := make([]types.Message, 0, len(msgs))
	for i, msg := range msgs {
		if i >= commit {
			out = append(out, msg.Clone())
			continue
		}
		switch {
		case msg.HasToolCalls():
			removedIDs = make(map[string]bool)
			var kept []types.ToolCall
			for _, tc := range msg.ToolCalls {
				if m.isCalculation(tc.Name) {
					removedIDs[tc.ID] = true
					stats.CallsRemoved++
					continue
				}
				kept = append(kept, tc)
			}
			if len(kept) == 0 {
				stats.MessagesRemoved++
				continue
			}
			rewritten := msg.Clone()
			rewritten.ToolCalls = kept
			out = append(out, rewritten)
		case msg.Role == types.RoleTool && removedIDs[msg.ToolCallID]:
			stats.MessagesRemoved++
			stats.ToolResultsRemoved++
		default:
			out = append(out, msg.Clone())
		}
	}
	if stats.CallsRemoved == 0 && stats.MessagesRemoved == 0 {
		return out, RewriteStats{}
	}
	stats.Rewritten = true
	stats.TokensBefore = m.tokenizer.CountMessagesTokens(msgs)
	stats.TokensAfter = m.tokenizer.CountMessagesTokens(out)
	return out, stats
}

// Apply rewrites the session's agent-visible log in place of the old one.
// The side channel is untouched.
func (m *CommitMiddleware) Apply(s *Session) RewriteStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	rewritten, stats := m.Rewrite(s.messages)
	if !stats.Rewritten {
		return stats
	}
	s.messages = rewritten
	s.stats.Add(stats)

	m.metrics.RecordRewrite(stats.MessagesRemoved, stats.TokensSaved())
	m.logger.Debug("history rewritten on commit",
		zap.Int("messages_removed", stats.MessagesRemoved),
		zap.Int("tool_results_removed", stats.ToolResultsRemoved),
		zap.Int("calls_removed", stats.CallsRemoved),
		zap.Int("tokens_saved", stats.TokensSaved()),
	)
	return stats
}

package context

import (
	"sync"

	"github.com/google/uuid"

	"github.com/BaSui01/contextbench/types"
)

// Session is the message state of one run: the agent-visible log, which the
// middleware may replace, and the append-only all_tool_calls side channel,
// which is never rewritten.
type Session struct {
	mu       sync.Mutex
	messages []types.Message
	calls    []types.ToolCall
	callIdx  map[string]int // id -> latest position in calls
	stats    RewriteStats
}

// NewSession starts a session from the initial messages.
func NewSession(initial ...types.Message) *Session {
	s := &Session{callIdx: make(map[string]int)}
	s.Append(initial...)
	return s
}

// Append adds messages to the agent-visible log and records every tool call
// they carry in the side channel, duplicates of earlier ids included. Tool
// calls without an id get a fresh random one. It returns copies of the
// messages as stored.
func (s *Session) Append(msgs ...types.Message) []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		m = m.Clone()
		for i := range m.ToolCalls {
			if m.ToolCalls[i].ID == "" {
				m.ToolCalls[i].ID = "call_" + uuid.NewString()
			}
			s.recordLocked(m.ToolCalls[i])
		}
		s.messages = append(s.messages, m)
		stored = append(stored, m.Clone())
	}
	return stored
}

func (s *Session) recordLocked(tc types.ToolCall) {
	s.callIdx[tc.ID] = len(s.calls)
	s.calls = append(s.calls, tc)
}

// Mark returns the current length of the side channel, for use with
// CallsSince.
func (s *Session) Mark() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// CallsSince returns the calls recorded after mark, or nil if there are none.
func (s *Session) CallsSince(mark int) []types.ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mark < 0 || mark >= len(s.calls) {
		return nil
	}
	out := make([]types.ToolCall, len(s.calls)-mark)
	copy(out, s.calls[mark:])
	return out
}

// Messages returns a copy of the agent-visible log.
func (s *Session) Messages() []types.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return types.CloneMessages(s.messages)
}

// Len returns the length of the agent-visible log.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// AllToolCalls returns every tool call emitted in the run, in emission order.
func (s *Session) AllToolCalls() []types.ToolCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.ToolCall, len(s.calls))
	copy(out, s.calls)
	return out
}

// ToolCall looks a call up by id in the side channel. When an id was reused
// the latest call wins.
func (s *Session) ToolCall(id string) (types.ToolCall, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.callIdx[id]
	if !ok {
		return types.ToolCall{}, false
	}
	return s.calls[i], true
}

// Stats returns the accumulated rewrite statistics.
func (s *Session) Stats() RewriteStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

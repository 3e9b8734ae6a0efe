// MockJudge 的一致性判定测试模拟实现。
//
// 支持按领域固定判定、错误注入与调用记录。
package mocks

import (
	"context"
	"sync"

	"github.com/BaSui01/contextbench/agent/evaluation"
)

// MockJudge 是 evaluation.Judge 的模拟实现。
type MockJudge struct {
	mu sync.Mutex

	verdicts map[string]*evaluation.Verdict
	errs     map[string]error
	fallback *evaluation.Verdict

	calls []evaluation.ConsistencyRequest
}

// NewMockJudge 创建默认判定为一致的 MockJudge
func NewMockJudge() *MockJudge {
	return &MockJudge{
		verdicts: map[string]*evaluation.Verdict{},
		errs:     map[string]error{},
		fallback: &evaluation.Verdict{IsConsistent: true, ConsistencyScore: 1, Reasoning: "mock"},
	}
}

// WithVerdict 设置某个领域的判定结果
func (m *MockJudge) WithVerdict(domain string, v *evaluation.Verdict) *MockJudge {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verdicts[domain] = v
	return m
}

// WithScore 设置某个领域的判定分数；分数为 1 时视为一致
func (m *MockJudge) WithScore(domain string, score float64) *MockJudge {
	return m.WithVerdict(domain, &evaluation.Verdict{IsConsistent: score >= 1, ConsistencyScore: score})
}

// WithError 让某个领域的判定返回错误
func (m *MockJudge) WithError(domain string, err error) *MockJudge {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[domain] = err
	return m
}

// Judge 实现 evaluation.Judge
func (m *MockJudge) Judge(ctx context.Context, req evaluation.ConsistencyRequest) (*evaluation.Verdict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.errs[req.Domain]; ok {
		return nil, err
	}
	if v, ok := m.verdicts[req.Domain]; ok {
		cp := *v
		return &cp, nil
	}
	cp := *m.fallback
	return &cp, nil
}

// Calls 返回所有调用记录
func (m *MockJudge) Calls() []evaluation.ConsistencyRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]evaluation.ConsistencyRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount 返回调用次数
func (m *MockJudge) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供运行流收集、上下文与 JSON 辅助
//
// 使用方法:
//
//	events := testutil.CollectEvents(t, stream, 5*time.Second)
//	msgs := testutil.EventMessages(events)
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BaSui01/contextbench/runner"
	"github.com/BaSui01/contextbench/types"
)

// TestContext 返回带超时的测试上下文，测试结束时自动取消
func TestContext(t testing.TB) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回指定超时的测试上下文
func TestContextWithTimeout(t testing.TB, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext 返回已取消的上下文
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// CollectEvents 读取 agent 流直到关闭；超时则测试失败
func CollectEvents(t testing.TB, ch <-chan runner.Event, timeout time.Duration) []runner.Event {
	t.Helper()
	var events []runner.Event
	deadline := time.After(timeout)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-deadline:
			require.FailNow(t, "agent stream did not close", "collected %d events", len(events))
			return events
		}
	}
}

// EventMessages 按节点顺序展开所有事件中的消息
func EventMessages(events []runner.Event) []types.Message {
	var out []types.Message
	for _, ev := range events {
		for _, node := range ev.Update.Nodes() {
			out = append(out, ev.Update[node].Messages...)
		}
	}
	return out
}

// StreamError 返回流中的第一个错误
func StreamError(events []runner.Event) error {
	for _, ev := range events {
		if ev.Err != nil {
			return ev.Err
		}
	}
	return nil
}

// StreamOf 把固定更新序列包装成 runner.Agent
func StreamOf(updates ...runner.Update) runner.Agent {
	return runner.AgentFunc(func(ctx context.Context, _ []types.Message) (<-chan runner.Event, error) {
		ch := make(chan runner.Event)
		go func() {
			defer close(ch)
			for _, u := range updates {
				if !runner.Emit(ctx, ch, runner.Event{Update: u}) {
					return
				}
			}
		}()
		return ch, nil
	})
}

// MustJSON 序列化为 JSON 字符串，失败时 panic
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// =============================================================================
// 📦 测试数据工厂 - 最终回复与运行输出
// =============================================================================
// 提供带 answers 代码块的最终回复、工具结果消息与 LLM 响应
// =============================================================================
package fixtures

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BaSui01/contextbench/llm"
	"github.com/BaSui01/contextbench/types"
)

// AnswersBlock 渲染 fenced json answers 代码块
func AnswersBlock(answers map[string]any) string {
	data, err := json.MarshalIndent(map[string]any{"answers": answers}, "", "  ")
	if err != nil {
		panic(err)
	}
	return "```json\n" + string(data) + "\n```"
}

// FinalResponse 返回一段前言加 answers 代码块
func FinalResponse(prose string, answers map[string]any) string {
	return strings.TrimSpace(prose) + "\n\n" + AnswersBlock(answers)
}

// Section 是报告中的一个二级标题段落
type Section struct {
	Heading string
	Body    string
}

// Report 渲染带二级标题段落和 answers 代码块的 markdown 报告
func Report(sections []Section, answers map[string]any) string {
	var b strings.Builder
	b.WriteString("# Research report\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "\n## %s\n\n%s\n", s.Heading, s.Body)
	}
	b.WriteString("\n")
	b.WriteString(AnswersBlock(answers))
	return b.String()
}

// ToolCallTurn 返回只包含工具调用的 assistant 消息
func ToolCallTurn(calls ...types.ToolCall) types.Message {
	return types.NewAssistantMessage("").WithToolCalls(calls)
}

// ToolOK 返回成功的工具结果消息
func ToolOK(callID, name string, payload any) types.Message {
	return types.NewToolMessage(callID, name, types.OK(payload).Encode())
}

// ToolErr 返回失败的工具结果消息
func ToolErr(callID, name string, kind types.ErrorCode, message string) types.Message {
	return types.NewToolMessage(callID, name, types.ToolOutcome{Err: &types.ToolError{Kind: kind, Message: message}}.Encode())
}

// SimpleResponse 返回简单的文本响应
func SimpleResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:       "resp-001",
		Provider: "mock",
		Model:    "mock-model",
		Choices: []llm.ChatChoice{{
			Index:        0,
			FinishReason: "stop",
			Message:      types.NewAssistantMessage(content),
		}},
		CreatedAt: time.Now(),
	}
}

// SortedAnswers 按问题编号拼接答案，便于断言
func SortedAnswers(answers map[string]any) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, answers[k])
	}
	return strings.Join(parts, ",")
}

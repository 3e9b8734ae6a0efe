package types

import "unicode"

// Tokenizer counts the tokens of the agent-visible history. Counts never
// fail; exact tokenizers fall back to EstimateTokenizer.
type Tokenizer interface {
	CountTokens(text string) int
	CountMessageTokens(msg Message) int
	CountMessagesTokens(msgs []Message) int
}

// Chat framing shared by the estimate and exact tokenizers: every message
// costs its role marker and separators, and a non-empty history is primed
// for the reply.
const (
	MessageFraming = 4
	ReplyPriming   = 3
)

// EstimateTokenizer approximates cl100k_base without loading an encoding:
// about four ASCII characters per token and 1.5 Han characters per token.
type EstimateTokenizer struct{}

// NewEstimateTokenizer creates an EstimateTokenizer.
func NewEstimateTokenizer() *EstimateTokenizer {
	return &EstimateTokenizer{}
}

// CountTokens estimates text. Non-empty text is at least one token.
func (t *EstimateTokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	var han, other int
	for _, r := range text {
		if unicode.Is(unicode.Han, r) {
			han++
		} else {
			other++
		}
	}
	return max(int(float64(han)/1.5+float64(other)/4), 1)
}

// CountMessageTokens estimates one message: framing, role, content, the
// tool result's call id and name, and every tool call with its id and raw
// arguments.
func (t *EstimateTokenizer) CountMessageTokens(msg Message) int {
	total := MessageFraming + t.CountTokens(string(msg.Role)) + t.CountTokens(msg.Content)
	total += t.CountTokens(msg.Name) + t.CountTokens(msg.ToolCallID)
	for _, tc := range msg.ToolCalls {
		total += t.CountTokens(tc.ID) + t.CountTokens(tc.Name) + t.CountTokens(string(tc.Arguments))
	}
	return total
}

// CountMessagesTokens estimates a history.
func (t *EstimateTokenizer) CountMessagesTokens(msgs []Message) int {
	if len(msgs) == 0 {
		return 0
	}
	total := ReplyPriming
	for _, m := range msgs {
		total += t.CountMessageTokens(m)
	}
	return total
}

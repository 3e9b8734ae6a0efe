package context

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/BaSui01/contextbench/types"
)

// DefaultEncoding is the tiktoken encoding used for context accounting.
const DefaultEncoding = "cl100k_base"

// TiktokenTokenizer counts tokens with a tiktoken encoding. The encoding is
// loaded on first use; if it cannot be loaded every count falls back to
// estimation.
type TiktokenTokenizer struct {
	encoding string
	fallback *types.EstimateTokenizer

	once sync.Once
	enc  *tiktoken.Tiktoken
}

var _ types.Tokenizer = (*TiktokenTokenizer)(nil)

// NewTiktokenTokenizer creates a tokenizer for encoding.
func NewTiktokenTokenizer(encoding string) *TiktokenTokenizer {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	return &TiktokenTokenizer{
		encoding: encoding,
		fallback: types.NewEstimateTokenizer(),
	}
}

func (t *TiktokenTokenizer) load() *tiktoken.Tiktoken {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err == nil {
			t.enc = enc
		}
	})
	return t.enc
}

// Exact reports whether counts come from tiktoken rather than estimation.
func (t *TiktokenTokenizer) Exact() bool {
	return t.load() != nil
}

// CountTokens counts tokens in text.
func (t *TiktokenTokenizer) CountTokens(text string) int {
	enc := t.load()
	if enc == nil {
		return t.fallback.CountTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// CountMessageTokens counts one message with the same parts as the
// estimate.
func (t *TiktokenTokenizer) CountMessageTokens(msg types.Message) int {
	if t.load() == nil {
		return t.fallback.CountMessageTokens(msg)
	}
	// <|start|>role\ncontent<|end|>
	total := types.MessageFraming + t.CountTokens(string(msg.Role)) + t.CountTokens(msg.Content)
	total += t.CountTokens(msg.Name) + t.CountTokens(msg.ToolCallID)
	for _, tc := range msg.ToolCalls {
		total += t.CountTokens(tc.ID) + t.CountTokens(tc.Name) + t.CountTokens(string(tc.Arguments))
	}
	return total
}

// CountMessagesTokens counts a message slice.
func (t *TiktokenTokenizer) CountMessagesTokens(msgs []types.Message) int {
	if t.load() == nil {
		return t.fallback.CountMessagesTokens(msgs)
	}
	if len(msgs) == 0 {
		return 0
	}
	total := types.ReplyPriming
	for _, m := range msgs {
		total += t.CountMessageTokens(m)
	}
	return total
}

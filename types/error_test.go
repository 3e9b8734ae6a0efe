package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrProtocol, "finish before store").WithCause(root)

	assert.Equal(t, ErrProtocol, GetErrorCode(err))
	assert.True(t, IsErrorCode(fmt.Errorf("wrapped: %w", err), ErrProtocol))
	assert.True(t, errors.Is(err, root))
	assert.NotEmpty(t, err.Error())

	got, ok := AsError(fmt.Errorf("outer: %w", err))
	require.True(t, ok)
	assert.Equal(t, "finish before store", got.Message)
}

func TestGetErrorCode_ToolError(t *testing.T) {
	t.Parallel()

	var err error = &ToolError{Kind: ErrNotFound, Message: "ticker QDYN"}
	assert.Equal(t, ErrNotFound, GetErrorCode(err))
	assert.False(t, IsErrorCode(nil, ErrNotFound))
}

func TestToolOutcome_WireShape(t *testing.T) {
	t.Parallel()

	ok := OK(map[string]any{"status": "IN_TRANSIT"})
	assert.JSONEq(t, `{"ok":{"status":"IN_TRANSIT"}}`, ok.Encode())

	fail := Fail(ErrNotFound, "unknown ticker %s", "QDYN")
	assert.JSONEq(t, `{"err":{"kind":"not_found","message":"unknown ticker QDYN"}}`, fail.Encode())

	decoded := DecodeOutcome(fail.Encode())
	require.True(t, decoded.IsError())
	assert.Equal(t, ErrNotFound, decoded.Err.Kind)

	decoded = DecodeOutcome(ok.Encode())
	require.False(t, decoded.IsError())
	var payload struct {
		Status string `json:"status"`
	}
	require.NoError(t, decoded.DecodeInto(&payload))
	assert.Equal(t, "IN_TRANSIT", payload.Status)
}

func TestDecodeOutcome_PlainText(t *testing.T) {
	t.Parallel()

	out := DecodeOutcome("not json at all")
	assert.False(t, out.IsError())
	assert.Equal(t, "not json at all", out.OK)
}

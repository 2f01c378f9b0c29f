package assistant

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeResult_PriorityOrder(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		want   string
		source Field
	}{
		{"answer wins", `{"answer":"A","message":{"content":"M"},"choices":[{"message":{"content":"C"}}]}`, "A", FieldAnswer},
		{"message content", `{"message":{"role":"assistant","content":"M"},"choices":[{"message":{"content":"C"}}]}`, "M", FieldMessageContent},
		{"choices", `{"choices":[{"message":{"content":"C"}},{"message":{"content":"D"}}]}`, "C", FieldChoiceContent},
		{"empty answer skipped", `{"answer":"","message":{"content":"M"}}`, "M", FieldMessageContent},
		{"none", `{"id":"x"}`, FallbackContent, FieldFallback},
		{"empty choices", `{"choices":[]}`, FallbackContent, FieldFallback},
		{"non-string content", `{"message":{"content":42}}`, FallbackContent, FieldFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeResult([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Content)
			assert.Equal(t, tt.source, res.Source)
		})
	}
}

func TestDecodeResult_MalformedFallsBack(t *testing.T) {
	res, err := DecodeResult([]byte("<html>bad gateway</html>"))
	assert.Error(t, err)
	assert.Equal(t, FallbackContent, res.Content)
	assert.Equal(t, FieldFallback, res.Source)
}

func TestDeltaText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`{"type":"content_chunk","delta":{"content":"hi"}}`, "hi"},
		{`{"choices":[{"delta":{"content":"yo"}}]}`, "yo"},
		{`{"type":"message_end","message":{"content":"full"}}`, "full"},
		{`{"type":"message_start","role":"assistant"}`, ""},
		{`[1,2]`, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DeltaText(json.RawMessage(tt.in)), "input %s", tt.in)
	}
}

func TestValidateTurns(t *testing.T) {
	assert.NoError(t, ValidateTurns([]Turn{{Role: RoleSystem}, {Role: RoleUser, Content: "hi"}}))
	assert.ErrorIs(t, ValidateTurns(nil), ErrInvalidTurn)
	assert.ErrorIs(t, ValidateTurns([]Turn{{Role: "tool", Content: "x"}}), ErrInvalidTurn)
	assert.ErrorIs(t, ValidateTurns([]Turn{{Role: RoleUser, Content: " "}}), ErrInvalidTurn)
}

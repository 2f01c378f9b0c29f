package assistant

import (
	"encoding/json"
	"fmt"
)

// Field names the response field a Result was taken from.
type Field string

const (
	FieldAnswer         Field = "answer"
	FieldMessageContent Field = "message.content"
	FieldChoiceContent  Field = "choices[0].message.content"
	FieldFallback       Field = "fallback"
)

const FallbackContent = "I'm sorry, I couldn't generate a specific answer at this moment. Please try asking your question again."

// DecodeResult maps any supported non-stream response body onto a Result.
// Fields are tried in order: answer, message.content, choices[0].message.content.
// When none is present, or the body is not JSON, the fallback text is used; the
// returned error is only informational and is set for malformed bodies.
func DecodeResult(body []byte) (Result, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Result{Content: FallbackContent, Source: FieldFallback}, fmt.Errorf("decode completion: %w", err)
	}

	if s := asString(top["answer"]); s != "" {
		return Result{Content: s, Source: FieldAnswer}, nil
	}
	if s := contentOf(top["message"]); s != "" {
		return Result{Content: s, Source: FieldMessageContent}, nil
	}
	if first := firstElem(top["choices"]); first != nil {
		if s := contentOf(first["message"]); s != "" {
			return Result{Content: s, Source: FieldChoiceContent}, nil
		}
	}
	return Result{Content: FallbackContent, Source: FieldFallback}, nil
}

// DeltaText extracts the text carried by one streamed event. It understands
// assistant content chunks ({"delta":{"content":...}}), OpenAI-compatible
// chunks ({"choices":[{"delta":{"content":...}}]}) and whole messages.
func DeltaText(data json.RawMessage) string {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return ""
	}
	if s := contentOf(top["delta"]); s != "" {
		return s
	}
	if first := firstElem(top["choices"]); first != nil {
		if s := contentOf(first["delta"]); s != "" {
			return s
		}
	}
	return contentOf(top["message"])
}

func asString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func contentOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var m struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	return asString(m.Content)
}

func firstElem(raw json.RawMessage) map[string]json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil
	}
	return items[0]
}

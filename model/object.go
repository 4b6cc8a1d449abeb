package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/beeflow/internal/schema"
)

// ObjectError reports a reply that could not be turned into the requested object.
type ObjectError struct {
	Raw   string // the model's reply text
	Cause error
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("invalid structured output: %v", e.Cause)
}

func (e *ObjectError) Unwrap() error { return e.Cause }

// GenerateObject asks the model for a JSON object shaped like out, which must
// be a pointer to a struct. The JSON schema of out's type is appended to the
// system instruction, the first JSON object in the reply is validated against
// it and decoded into out.
func GenerateObject(ctx context.Context, m Model, req Request, out any) error {
	s, err := schema.FromType(out)
	if err != nil {
		return fmt.Errorf("derive object schema: %w", err)
	}
	doc, err := s.JSON()
	if err != nil {
		return fmt.Errorf("encode object schema: %w", err)
	}

	instruction := "Respond only with a JSON object that conforms to this JSON schema:\n" + string(doc)
	if req.System != "" {
		req.System += "\n\n" + instruction
	} else {
		req.System = instruction
	}
	req.JSONMode = true
	req.Stream = false
	req.Tools = nil

	text, err := GenerateText(ctx, m, req)
	if err != nil {
		return err
	}

	raw, ok := ExtractJSON(text)
	if !ok {
		return &ObjectError{Raw: text, Cause: fmt.Errorf("no JSON object found in reply")}
	}
	if err := s.Validate(gjson.Parse(raw).Value()); err != nil {
		return &ObjectError{Raw: text, Cause: err}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &ObjectError{Raw: text, Cause: err}
	}
	return nil
}

// ExtractJSON returns the first JSON object embedded in text. Markdown code
// fences and surrounding prose are ignored.
func ExtractJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if gjson.Valid(trimmed) && gjson.Parse(trimmed).IsObject() {
		return trimmed, true
	}

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchBrace(text[start:]); end > 0 {
			candidate := text[start : start+end]
			if gjson.Valid(candidate) {
				return candidate, true
			}
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// matchBrace returns the length of the balanced {...} prefix of s, or -1.
func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

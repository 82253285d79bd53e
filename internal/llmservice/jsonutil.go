package llmservice

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeBlockPattern matches a fenced code block, optionally tagged json.
var codeBlockPattern = regexp.MustCompile("```(?:json)?\\s*\\n?([\\s\\S]*?)\\n?```")

// ExtractJSONBlock pulls a JSON object out of an LLM reply that may wrap it
// in markdown fences or surrounding prose. Returns "" when no object is
// found.
func ExtractJSONBlock(content string) string {
	if matches := codeBlockPattern.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	// json.Decoder finds the object boundary correctly even when string
	// values contain braces.
	decoder := json.NewDecoder(strings.NewReader(content[start:]))
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err == nil {
		return string(raw)
	}
	return ""
}

// UnmarshalResponse extracts and decodes the JSON object in content into out.
func UnmarshalResponse(content string, out any) error {
	jsonStr := ExtractJSONBlock(content)
	if jsonStr == "" {
		return fmt.Errorf("no JSON found in response")
	}
	if err := json.Unmarshal([]byte(jsonStr), out); err != nil {
		return fmt.Errorf("invalid JSON response: %w", err)
	}
	return nil
}

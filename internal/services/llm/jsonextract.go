package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
)

// fencePattern matches markdown code fences, with or without a language tag.
var fencePattern = regexp.MustCompile("```(?:json|JSON)?")

// ExtractJSON extracts the first balanced JSON array or object from raw model
// output. Markdown code fences are stripped first, then the text is scanned
// from the first opening bracket, tracking nesting depth until the matching
// close. Brackets inside string literals are not tracked; content with
// brackets in string values can truncate early.
func ExtractJSON(output string) (string, error) {
	cleaned := fencePattern.ReplaceAllString(output, "")
	cleaned = strings.TrimSpace(cleaned)

	start := -1
	var open, close byte
	for i := 0; i < len(cleaned); i++ {
		if cleaned[i] == '[' || cleaned[i] == '{' {
			start = i
			open = cleaned[i]
			if open == '[' {
				close = ']'
			} else {
				close = '}'
			}
			break
		}
	}
	if start < 0 {
		return "", fmt.Errorf("no JSON structure found in output")
	}

	depth := 0
	for i := start; i < len(cleaned); i++ {
		switch cleaned[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return cleaned[start : i+1], nil
			}
		}
	}

	return "", fmt.Errorf("unbalanced JSON structure in output")
}

// ParseJSONList extracts and unmarshals a JSON array of T from raw model
// output. Any extraction or unmarshal failure returns the fallback; analysis
// stages degrade to defaults rather than aborting the run.
func ParseJSONList[T any](logger arbor.ILogger, output string, fallback []T) []T {
	extracted, err := ExtractJSON(output)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to extract JSON from model output, using defaults")
		return fallback
	}

	var items []T
	if err := json.Unmarshal([]byte(extracted), &items); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse JSON from model output, using defaults")
		return fallback
	}
	if items == nil {
		items = []T{}
	}

	// An empty array is a legitimate answer; only failures fall back.
	return items
}

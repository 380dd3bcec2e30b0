package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

var reThink = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripReasoning removes chain-of-thought delimiters and markdown code fences
// from raw model output so only the answer payload remains.
func StripReasoning(input string) string {
	out := reThink.ReplaceAllString(input, "")
	out = strings.ReplaceAll(out, "<think>", "")
	out = strings.ReplaceAll(out, "</think>", "")
	out = strings.TrimSpace(out)

	if strings.HasPrefix(out, "```") {
		if idx := strings.Index(out, "\n"); idx != -1 {
			out = out[idx+1:]
		} else {
			out = strings.TrimPrefix(out, "```")
		}
		out = strings.TrimSuffix(strings.TrimSpace(out), "```")
		out = strings.TrimSpace(out)
	}
	return out
}

// ExtractJSONFragment finds the first balanced {...} or [...] fragment in a
// string. Braces inside JSON strings are skipped. Returns "" when no balanced
// fragment exists.
func ExtractJSONFragment(input string) string {
	start := -1
	var open, close byte
	for i := 0; i < len(input); i++ {
		if input[i] == '{' || input[i] == '[' {
			start = i
			open = input[i]
			if open == '{' {
				close = '}'
			} else {
				close = ']'
			}
			break
		}
	}
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(input); i++ {
		c := input[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return input[start : i+1]
			}
		}
	}
	return ""
}

// RepairJSON fixes common LLM JSON defects (single quotes, unquoted keys,
// trailing commas, unclosed containers).
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("JSON_REPAIR_FAILED: %v", err)
	}
	return repaired, nil
}

// ParseHJSON accepts human-friendly JSON (comments, unquoted keys, optional
// commas) and normalizes it to standard JSON.
func ParseHJSON(input string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(input), &result); err != nil {
		return "", fmt.Errorf("HJSON_PARSE_ERROR: %v", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("JSON_MARSHAL_ERROR: %v", err)
	}
	return string(out), nil
}

// SmartParse tries strategies in order of strictness: standard JSON, repair,
// then Hjson. The first one that unmarshals into schema wins.
func SmartParse(input string, schema interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), schema); err == nil {
		return input, nil
	}

	if repaired, err := RepairJSON(input); err == nil {
		if err := json.Unmarshal([]byte(repaired), schema); err == nil {
			return repaired, nil
		}
	}

	if lenient, err := ParseHJSON(input); err == nil {
		if err := json.Unmarshal([]byte(lenient), schema); err == nil {
			return lenient, nil
		}
	}

	return "", fmt.Errorf("SMART_PARSE_FAILED: all parsing strategies failed")
}

// DecodeLLMJSON is the full tolerant pipeline for structured model output:
// strip reasoning delimiters and fences, isolate the first balanced JSON
// fragment, then SmartParse it into schema.
func DecodeLLMJSON(raw string, schema interface{}) error {
	cleaned := StripReasoning(raw)
	fragment := ExtractJSONFragment(cleaned)
	if fragment == "" {
		fragment = cleaned
	}
	if _, err := SmartParse(fragment, schema); err != nil {
		return fmt.Errorf("LLM_OUTPUT_UNPARSEABLE: %v", err)
	}
	return nil
}

package toolcatalog

import (
	"encoding/json"
	"strings"
	"unicode"
)

// tokenCutset holds the characters stripped from both ends of a raw token:
// quotes, backticks and the backslashes left over from escaped quotes.
const tokenCutset = "\"'`\\"

// legacyPrefixes are the short domain prefixes older automation flows emit
// without the google_ namespace.
var legacyPrefixes = []string{"calendar_", "sheets_", "docs_"}

// NormalizeGoogleTools turns a google_tools value of any shape into a
// deduplicated list of canonical tool ids, in first-seen order.
//
// Accepted shapes are a JSON array, a JSON-encoded array string, a list of
// quoted ids without brackets, and a comma or whitespace separated string.
// Malformed input degrades to the next strategy and never fails.
//
// Each token passes through the same steps in a fixed order: quote stripping,
// legacy prefix rewrite, alias resolution, dedup.
func NormalizeGoogleTools(raw any) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, candidate := range candidateList(raw) {
		token, ok := candidate.(string)
		if !ok {
			continue
		}
		token = cleanToken(token)
		if token == "" {
			continue
		}
		token = ResolveAlias(rewritePrefix(token))
		if seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

func candidateList(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []string:
		list := make([]any, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list
	case string:
		return splitToolString(v)
	}
	return nil
}

func splitToolString(s string) []any {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if list := parseJSONArray(trimmed); len(list) > 0 {
		return list
	}
	if !strings.HasPrefix(trimmed, "[") {
		if list := parseJSONArray("[" + trimmed + "]"); len(list) > 0 {
			return list
		}
	}
	fields := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	list := make([]any, len(fields))
	for i, f := range fields {
		list[i] = f
	}
	return list
}

func parseJSONArray(text string) []any {
	var list []any
	if err := json.Unmarshal([]byte(text), &list); err != nil {
		return nil
	}
	return list
}

// cleanToken strips whitespace, quote, backtick and backslash characters
// from both ends until none remain, so the result is stable when fed back in.
func cleanToken(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(tokenCutset, r)
	})
}

// rewritePrefix maps calendar_x, sheets_x and docs_x onto google_calendar_x,
// google_sheets_x and google_docs_x. Ids already under google_ are untouched.
func rewritePrefix(token string) string {
	lower := strings.ToLower(token)
	if strings.HasPrefix(lower, "google_") {
		return token
	}
	for _, prefix := range legacyPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return "google_" + prefix + token[len(prefix):]
		}
	}
	return token
}

package jira

import "strings"

const (
	// QuotedSeparator splits quoted elements only, so hyphens inside a
	// sprint name such as "D.A.W.N - Sprint 10.2.25" stay intact.
	QuotedSeparator = `"-"`
	// CommaSeparator splits unquoted bracket lists such as [API,BFF].
	CommaSeparator = ","
)

// DecodeArray decodes a pseudo-array field such as ["A"-"B"] into its
// elements. Scalars decode to a single-element list. A bare null element
// survives as the string "null", and "[]" decodes to one empty element.
// Malformed input is split on a best-effort basis and never fails.
func DecodeArray(raw, separator string) []string {
	if !strings.HasPrefix(raw, "[") {
		return []string{raw}
	}

	body := strings.Trim(raw, "[]")
	body = strings.ReplaceAll(body, "null", `"null"`)

	parts := strings.Split(body, separator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(strings.ReplaceAll(p, `"`, "")))
	}
	return out
}

// IsArray reports whether raw carries the pseudo-array encoding.
func IsArray(raw string) bool {
	return strings.Contains(raw, "[")
}

// EncodeArray is the inverse of DecodeArray for quoted elements.
func EncodeArray(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = `"` + v + `"`
	}
	return "[" + strings.Join(quoted, "-") + "]"
}

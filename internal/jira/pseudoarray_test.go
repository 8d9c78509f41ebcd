package jira

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecodeArray(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		separator string
		want      []string
	}{
		{"scalar list is one element", "API,BFF,BFF-Web,SFCC", CommaSeparator, []string{"API,BFF,BFF-Web,SFCC"}},
		{"single bracketed", "[API]", CommaSeparator, []string{"API"}},
		{"bracketed list", "[API,BFF,BFF-Web]", CommaSeparator, []string{"API", "BFF", "BFF-Web"}},
		{
			"quoted dates",
			`["2025-01-21T23:31:33.421Z"-"2025-02-04T23:59:43.560Z"]`,
			QuotedSeparator,
			[]string{"2025-01-21T23:31:33.421Z", "2025-02-04T23:59:43.560Z"},
		},
		{
			"trailing null",
			`["2024-10-01T09:00:00.000Z"-null]`,
			QuotedSeparator,
			[]string{"2024-10-01T09:00:00.000Z", "null"},
		},
		{
			"leading null",
			`[null-"2024-02-21T00:39:33.758Z"-"2023-11-15T03:11:17.715Z"]`,
			QuotedSeparator,
			[]string{"null", "2024-02-21T00:39:33.758Z", "2023-11-15T03:11:17.715Z"},
		},
		{
			"hyphens inside names",
			`["D.A.W.N - Sprint 10.2.25"-"D.A.W.N - Sprint 11.2.25"]`,
			QuotedSeparator,
			[]string{"D.A.W.N - Sprint 10.2.25", "D.A.W.N - Sprint 11.2.25"},
		},
		// "[]" yields one empty element rather than an empty list.
		{"empty array", "[]", QuotedSeparator, []string{""}},
		{"scalar sprint", "LFW 1.1.25", QuotedSeparator, []string{"LFW 1.1.25"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeArray(tt.raw, tt.separator)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("DecodeArray(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestIsArray(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"[API]", true},
		{"API", false},
		{"API,BFF,BFF-Web,SFCC", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsArray(tt.raw); got != tt.want {
			t.Errorf("IsArray(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestEncodeArrayDecodes(t *testing.T) {
	names := []string{"LFW 1.1.25", "D.A.W.N - Sprint 10.2.25", "LFW 3.1.25"}
	got := DecodeArray(EncodeArray(names), QuotedSeparator)
	if diff := cmp.Diff(names, got); diff != "" {
		t.Errorf("DecodeArray(EncodeArray()) mismatch (-want +got):\n%s", diff)
	}
}

package jira

import (
	"regexp"
	"slices"
	"strings"
)

// validComponents maps summary-prefix tokens to their component names.
var validComponents = map[string]string{
	"FEWeb":      "FEWeb",
	"FEApp":      "FEApp",
	"BFFWeb":     "BFFWeb",
	"BFFApp":     "BFFApp",
	"BFF":        "BFF",
	"FED":        "FED",
	"SFCC":       "SFCC",
	"XM":         "XM",
	"SITECORE":   "Sitecore",
	"CONTENTHUB": "Content Hub",
}

var summaryPrefix = regexp.MustCompile(`\[(.*?)\]`)

// ComponentsFromSummary returns the pipe-separated tokens of the first
// bracketed group in a ticket summary, e.g. "[FEWeb|BFF] Fix cart".
func ComponentsFromSummary(summary string) []string {
	m := summaryPrefix.FindStringSubmatch(summary)
	if m == nil {
		return nil
	}
	parts := strings.Split(m[1], "|")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// DecodeComponents decodes the Components field. Quoted lists use the
// hyphen-joined form ["FEWeb"-"BFF"]; bare bracket lists such as [API,BFF]
// split on commas.
func DecodeComponents(raw string) []string {
	if strings.Contains(raw, QuotedSeparator) {
		return DecodeArray(raw, QuotedSeparator)
	}
	return DecodeArray(raw, CommaSeparator)
}

// CalculateComponents merges the declared components with those implied by
// the summary prefix and the ticket key. The result is sorted and unique.
func CalculateComponents(raw, summary, id string) []string {
	set := make(map[string]struct{})
	if raw != "" {
		for _, c := range DecodeComponents(raw) {
			if c != "" {
				set[c] = struct{}{}
			}
		}
	}
	for _, token := range ComponentsFromSummary(summary) {
		if c, ok := validComponents[token]; ok {
			set[c] = struct{}{}
		}
	}
	if strings.HasPrefix(id, "COM-") {
		set["SFCC"] = struct{}{}
	}

	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

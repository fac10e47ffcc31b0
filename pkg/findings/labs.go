// Package findings converts raw report text into structured findings using
// declarative pattern tables. Within one run findings are unique by their
// normalized key; the first match for a test name wins and later mentions are
// discarded. Reports rarely repeat an analyte and the first mention is
// typically the authoritative result row, so repeated measurements (for
// example serial glucose readings) are a known, accepted loss.
package findings

import (
	"strings"

	"github.com/medlens/medlens/internal/models"
)

// ExtractLabValues parses numeric lab results. The general tabular pattern
// runs first over all test names; per-test patterns backfill any name it
// missed. Values and units are kept as raw captured text.
func ExtractLabValues(text string) []models.Finding {
	lower := strings.ToLower(text)

	var (
		out  []models.Finding
		seen = make(map[string]bool)
	)

	testIdx := tablePattern.SubexpIndex("test")
	valIdx := tablePattern.SubexpIndex("val")
	unitIdx := tablePattern.SubexpIndex("unit")

	for _, m := range tablePattern.FindAllStringSubmatch(lower, -1) {
		test := m[testIdx]
		if seen[test] {
			continue
		}
		seen[test] = true
		out = append(out, models.Finding{
			Kind:    models.KindLabValue,
			Test:    test,
			Value:   m[valIdx],
			Unit:    m[unitIdx],
			Snippet: strings.TrimSpace(m[0]),
		})
	}

	for _, p := range specificLabPatterns {
		if seen[p.test] {
			continue
		}
		m := p.re.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		seen[p.test] = true
		out = append(out, models.Finding{
			Kind:    models.KindLabValue,
			Test:    p.test,
			Value:   m[1],
			Unit:    m[2],
			Snippet: strings.TrimSpace(m[0]),
		})
	}

	return out
}

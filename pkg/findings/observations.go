package findings

import (
	"regexp"
	"strings"

	"github.com/medlens/medlens/internal/models"
)

// ExtractObservations parses descriptive radiology findings. Each trigger hit
// re-searches a ±100 character window with the paired detail pattern; a
// window the detail pattern cannot match is dropped. A secondary pass over an
// "observations:" section keeps assessment sentences as generic clinical
// observations, deduplicated against the same key space.
func ExtractObservations(text string) []models.Finding {
	lower := strings.ToLower(text)

	var (
		out  []models.Finding
		seen = make(map[string]bool)
	)

	for _, rule := range radiologyRules {
		for _, loc := range rule.trigger.FindAllStringIndex(lower, -1) {
			start := loc[0] - 100
			if start < 0 {
				start = 0
			}
			end := loc[1] + 100
			if end > len(lower) {
				end = len(lower)
			}
			window := lower[start:end]

			m := rule.detail.FindStringSubmatch(window)
			if m == nil {
				continue
			}

			finding := group(rule.detail, m, "finding")
			if finding == "" {
				finding = lower[loc[0]:loc[1]]
			}

			key := strings.ToLower(strings.TrimSpace(finding))
			if seen[key] {
				continue
			}
			seen[key] = true

			out = append(out, models.Finding{
				Kind:       models.KindRadiologyFinding,
				Name:       finding,
				Descriptor: group(rule.detail, m, "descriptor"),
				Evidence:   group(rule.detail, m, "evidence"),
				Snippet:    strings.TrimSpace(window),
			})
		}
	}

	if section := observationsSection.FindStringSubmatch(lower); section != nil {
		for _, sent := range sentenceSplit.Split(section[1], -1) {
			sent = strings.TrimSpace(sent)
			if len(sent) <= 10 || !containsAny(sent, assessmentKeywords) {
				continue
			}
			if seen[sent] {
				continue
			}
			seen[sent] = true
			out = append(out, models.Finding{
				Kind:    models.KindClinicalObservation,
				Name:    sent,
				Snippet: sent,
			})
		}
	}

	return out
}

func group(re *regexp.Regexp, match []string, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || i >= len(match) {
		return ""
	}
	return match[i]
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

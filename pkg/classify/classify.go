// Package classify decides whether extracted report text reads like a
// laboratory report or a radiology report. The check is a keyword-presence
// count over two fixed disjoint term sets; it is a heuristic, and mixed or
// ambiguous reports legitimately come back unknown.
package classify

import (
	"strings"

	"github.com/medlens/medlens/internal/models"
)

var radiologyKeywords = []string{
	"mri", "ct", "x-ray", "ultrasound", "scan", "imaging",
	"vertebral", "spine", "disc", "osteophytes", "lordosis",
	"protocol", "sequences", "sagittal", "axial", "coronal",
}

var labKeywords = []string{
	"hemoglobin", "cholesterol", "glucose", "creatinine", "bilirubin",
	"platelet", "wbc", "rbc", "lab", "laboratory", "blood work",
}

// Classify scores the text against both keyword sets. Whichever count
// strictly exceeds the other wins; any tie, including zero-zero, is unknown.
func Classify(text string) models.ReportType {
	lower := strings.ToLower(text)

	radiologyScore := countPresent(lower, radiologyKeywords)
	labScore := countPresent(lower, labKeywords)

	switch {
	case radiologyScore > labScore:
		return models.ReportRadiology
	case labScore > radiologyScore:
		return models.ReportLaboratory
	default:
		return models.ReportUnknown
	}
}

func countPresent(text string, keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

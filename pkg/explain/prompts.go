package explain

import (
	"fmt"
	"strings"

	"github.com/medlens/medlens/internal/models"
	"github.com/medlens/medlens/pkg/findings"
)

var normalIndicators = []string{"normal", "intact", "no evidence"}

// isReassuring reports whether the finding reads as a normal/healthy result.
// Descriptor and evidence text both count, so "no evidence of joint effusion"
// is reassuring even though the finding phrase itself names a problem.
func isReassuring(f models.Finding) bool {
	haystack := strings.ToLower(f.Label() + " " + f.Descriptor + " " + f.Evidence)
	for _, ind := range normalIndicators {
		if strings.Contains(haystack, ind) {
			return true
		}
	}
	return false
}

// buildPrompt constructs the role-framed instruction sent to the model.
func buildPrompt(f models.Finding, kbContext string) string {
	name := findings.CleanFindingName(f.Label())

	if f.IsLab() {
		return fmt.Sprintf(`You are a medical assistant. Explain this lab result briefly and clearly.

Lab: %s
Value: %s %s
Medical Info: %s

Provide ONLY a 1-2 sentence explanation in simple terms. Be direct and clear.`,
			name, f.Value, f.Unit, kbContext)
	}

	if isReassuring(f) {
		return fmt.Sprintf(`You are a medical assistant. This is a NORMAL finding.

Finding: %s - %s
Medical Info: %s

Provide ONLY a 1-2 sentence explanation confirming this is normal/healthy. Be reassuring and direct.`,
			name, f.Descriptor, kbContext)
	}

	return fmt.Sprintf(`You are a medical assistant. This finding needs attention.

Finding: %s - %s
Medical Info: %s

Provide ONLY a 1-2 sentence explanation of what this means. Be clear but not alarming.`,
		name, f.Descriptor, kbContext)
}

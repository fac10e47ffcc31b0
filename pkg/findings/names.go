package findings

import (
	"strings"
	"unicode"
)

// CleanFindingName formats a raw finding or test name for display.
func CleanFindingName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	lower := strings.ToLower(name)

	switch {
	case strings.Contains(lower, "menisci"):
		return "Menisci"
	case strings.Contains(lower, "cruciate ligament"):
		return "Cruciate Ligaments"
	case strings.Contains(lower, "collateral ligament"):
		return "Collateral Ligaments"
	case strings.Contains(lower, "joint space"):
		return "Joint Space"
	case strings.Contains(lower, "osteochondral"):
		return "Osteochondral Changes"
	case strings.Contains(lower, "chondromalacia"):
		return "Chondromalacia Patella"
	case name == "":
		return "Unknown Finding"
	default:
		return titleCase(name)
	}
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

package explain

import "strings"

// Deterministic explanation templates used when the model service is
// unavailable. {value} and {unit} are interpolated from the finding.

var labTemplates = map[string]string{
	"hemoglobin":        "Hemoglobin level of {value} {unit}. This protein in red blood cells carries oxygen throughout your body. Normal ranges vary by gender and age.",
	"hba1c":             "HbA1c level of {value}%. This test shows your average blood sugar over 2-3 months. Values under 5.7% are normal, 5.7-6.4% indicate prediabetes, and 6.5% or higher suggests diabetes.",
	"total cholesterol": "Total cholesterol of {value} {unit}. This includes all types of cholesterol in your blood. Levels under 200 mg/dL are desirable.",
	"hdl cholesterol":   "HDL (good) cholesterol of {value} {unit}. Higher levels are better for heart health. Aim for 40+ mg/dL (men) or 50+ mg/dL (women).",
	"ldl cholesterol":   "LDL (bad) cholesterol of {value} {unit}. Lower levels reduce heart disease risk. Generally aim for under 100 mg/dL.",
	"triglycerides":     "Triglyceride level of {value} {unit}. These are blood fats that can affect heart health. Normal is under 150 mg/dL.",
	"creatinine":        "Creatinine level of {value} {unit}. This waste product indicates kidney function. Normal ranges vary but are typically 0.6-1.2 mg/dL.",
	"tsh":               "TSH level of {value} {unit}. This hormone regulates thyroid function. Normal range is typically 0.4-4.0 mIU/L.",
	"vitamin d":         "Vitamin D level of {value} {unit}. This vitamin is important for bone health. Levels above 20 ng/mL are generally adequate.",
	"vitamin b12":       "Vitamin B12 level of {value} {unit}. This vitamin is essential for nerve function and blood formation. Low levels can cause fatigue and neurological symptoms.",
}

type namedTemplate struct {
	key  string
	text string
}

// Matched by substring against the cleaned finding name, first hit wins.
var normalObservationTemplates = []namedTemplate{
	{"menisci", "The menisci (cartilage cushions) in your joint appear normal and intact, which is good news for joint stability."},
	{"cruciate ligaments", "The cruciate ligaments that provide knee stability appear normal with no tears or damage."},
	{"collateral ligaments", "The collateral ligaments that provide side-to-side knee stability appear normal."},
	{"joint space", "The joint space appears normal, indicating healthy cartilage thickness and no significant arthritis."},
	{"osteochondral", "No osteochondral changes were detected, suggesting healthy joint surfaces without early arthritis signs."},
}

var concerningObservationTemplates = []namedTemplate{
	{"osteochondral changes", "Osteochondral changes may indicate early arthritis or cartilage damage in the joint area."},
	{"chondromalacia", "Chondromalacia refers to softening of cartilage, often behind the kneecap, which can cause pain and stiffness."},
	{"joint effusion", "Joint effusion means fluid has accumulated in the joint space, often due to injury, inflammation, or infection."},
	{"subchondral cystic changes", "Subchondral cystic changes can indicate joint degeneration, appearing as fluid-filled spaces in bone under cartilage."},
	{"disc herniation", "Disc herniation occurs when spinal disc material moves out of its normal position, potentially causing pain or nerve compression."},
}

var concerningIndicators = []string{"changes", "effusion", "cystic", "herniation", "tear"}

func renderLabTemplate(tpl, value, unit string) string {
	out := strings.ReplaceAll(tpl, "{value}", value)
	return strings.ReplaceAll(out, "{unit}", unit)
}

func matchTemplate(templates []namedTemplate, name string) (string, bool) {
	for _, t := range templates {
		if strings.Contains(name, t.key) {
			return t.text, true
		}
	}
	return "", false
}

package findings

import "regexp"

// Pattern tables are declarative: a new analyte or radiology phrase is a new
// row, not a new branch. All patterns run against lower-cased text.

// tablePattern catches the common tabular layout "test ... value unit" for
// every known test name at once. Per-test patterns below backfill names the
// tabular pass missed.
var tablePattern = regexp.MustCompile(
	`(?P<test>hemoglobin|hba1c|creatinine|total cholesterol|hdl cholesterol|ldl cholesterol|triglycerides|platelet count|vitamin b-12|vitamin d|c-peptide|tsh|iron|calcium|sodium|chloride|esr)\s*(?:.*?)\s*(?P<val>\d+(?:\.\d+)?)\s*(?P<unit>[a-zA-Z/μ%³°]+)`,
)

type labPattern struct {
	test string
	re   *regexp.Regexp
}

var specificLabPatterns = []labPattern{
	{"hemoglobin", regexp.MustCompile(`hemoglobin\s+(\d+\.\d+)\s+(g/dl)`)},
	{"hba1c", regexp.MustCompile(`hba1c\s+(\d+\.\d+)\s*(%)`)},
	{"total cholesterol", regexp.MustCompile(`total cholesterol\s+(\d+)\s*(mg/dl)`)},
	{"hdl cholesterol", regexp.MustCompile(`hdl cholesterol\s+(\d+)\s*(mg/dl)`)},
	{"ldl cholesterol", regexp.MustCompile(`ldl cholesterol\s+(\d+\.\d+)\s*(mg/dl)`)},
	{"triglycerides", regexp.MustCompile(`triglycerides\s+(\d+)\s*(mg/dl)`)},
	{"vitamin d", regexp.MustCompile(`vitamin d.*total\s+(\d+\.\d+)\s*(ng/ml)`)},
	{"vitamin b12", regexp.MustCompile(`vitamin b-12\s+(\d+)\s*(pg/ml)`)},
	{"c-peptide", regexp.MustCompile(`c-peptide\s+(\d+\.\d+)\s*(ng/ml)`)},
	{"creatinine", regexp.MustCompile(`creatinine.*serum\s+(\d+\.\d+)\s*(mg/dl)`)},
	{"tsh", regexp.MustCompile(`tsh.*ultrasensitive\s+(\d+\.\d+)\s*(μiu/ml)`)},
}

type radiologyRule struct {
	trigger *regexp.Regexp
	detail  *regexp.Regexp
}

// Each rule pairs a cheap trigger with a detail pattern re-run over a ±100
// character window around the trigger hit. A window where the detail pattern
// fails yields no finding at all rather than a partial record.
var radiologyRules = []radiologyRule{
	{
		regexp.MustCompile(`osteochondral\s+changes`),
		regexp.MustCompile(`(?P<finding>osteochondral\s+changes)\s+(?P<descriptor>noted|seen|present)?\s*(?P<location>in\s+[\w\s]+)?`),
	},
	{
		regexp.MustCompile(`chondromalacia`),
		regexp.MustCompile(`(?P<finding>chondromalacia\s+\w+)\s*\(?\s*(?P<grade>grade\s+\w+)?\)?`),
	},
	{
		regexp.MustCompile(`joint\s+effusion`),
		regexp.MustCompile(`(?P<finding>joint\s+effusion)\s+with\s+(?P<descriptor>[\w\s]+)?`),
	},
	{
		regexp.MustCompile(`subchondral\s+cystic\s+changes`),
		regexp.MustCompile(`(?P<finding>subchondral\s+cystic\s+changes)`),
	},
	{
		regexp.MustCompile(`joint\s+space\s+is\s+normal`),
		regexp.MustCompile(`(?P<finding>joint\s+space)\s+is\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`menisci\s+is\s+normal`),
		regexp.MustCompile(`(?P<finding>menisci)\s+is\s+(?P<descriptor>normal\s+and\s+intact)`),
	},
	{
		regexp.MustCompile(`cruciate\s+ligaments\s+are\s+normal`),
		regexp.MustCompile(`(?P<finding>cruciate\s+ligaments)\s+are\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`collateral\s+ligaments\s+are\s+normal`),
		regexp.MustCompile(`(?P<finding>collateral\s+ligaments)\s+are\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`no\s+evidence\s+of`),
		regexp.MustCompile(`(?P<evidence>no\s+evidence\s+of)\s+(?P<finding>[\w\s]+)`),
	},
	{
		regexp.MustCompile(`normal\s+and\s+intact`),
		regexp.MustCompile(`(?P<finding>[\w\s]+)\s+(?P<descriptor>normal\s+and\s+intact)`),
	},
	{
		regexp.MustCompile(`changes\s+noted`),
		regexp.MustCompile(`(?P<finding>[\w\s]+\s+changes)\s+(?P<descriptor>noted)`),
	},
	{
		regexp.MustCompile(`osteophytes?`),
		regexp.MustCompile(`(?P<finding>osteophytes?)\s+(?P<descriptor>seen|present|noted|identified)?`),
	},
	{
		regexp.MustCompile(`lordosis`),
		regexp.MustCompile(`(?P<descriptor>normal|reduced|increased|loss\s+of)?\s*(?P<finding>lordosis)`),
	},
	{
		regexp.MustCompile(`disc\s+(?:herniation|bulge|protrusion)`),
		regexp.MustCompile(`(?P<finding>disc\s+(?:herniation|bulge|protrusion))\s*(?P<location>at\s+\w+)?`),
	},
	{
		regexp.MustCompile(`[\w\s]+\s+is\s+normal`),
		regexp.MustCompile(`(?P<finding>[\w\s]+)\s+is\s+(?P<descriptor>normal)`),
	},
	{
		regexp.MustCompile(`[\w\s]+\s+are\s+normal`),
		regexp.MustCompile(`(?P<finding>[\w\s]+)\s+are\s+(?P<descriptor>normal)`),
	},
}

// observationsSection isolates a free-text "observations:" block; its
// sentences feed the generic clinical-observation pass.
var observationsSection = regexp.MustCompile(`(?s)observations?:(.*?)(?:\n\n|\n[A-Z]|$)`)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

var assessmentKeywords = []string{"normal", "abnormal", "no evidence", "seen", "present"}

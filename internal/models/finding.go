package models

import "strings"

// ReportType is the coarse classification of an uploaded report.
type ReportType string

const (
	ReportLaboratory ReportType = "laboratory"
	ReportRadiology  ReportType = "radiology"
	ReportUnknown    ReportType = "unknown"
)

// FindingKind distinguishes the variants of an extracted finding.
type FindingKind string

const (
	KindLabValue            FindingKind = "lab_value"
	KindRadiologyFinding    FindingKind = "radiology_finding"
	KindClinicalObservation FindingKind = "clinical_observation"
)

// Finding is a single structured unit of medical information pulled out of a
// report. Lab values populate Test/Value/Unit; radiology findings and clinical
// observations populate Name/Descriptor/Evidence. Values and units stay as the
// raw captured text since canonical units vary by lab and downstream consumers
// only display them.
type Finding struct {
	Kind       FindingKind
	Test       string
	Value      string
	Unit       string
	Name       string
	Descriptor string
	Evidence   string
	Snippet    string
}

// IsLab reports whether the finding is a numeric lab value.
func (f Finding) IsLab() bool {
	return f.Kind == KindLabValue
}

// Key returns the normalized deduplication key: the lower-cased test name for
// lab values, the lower-cased finding phrase otherwise. Radiology findings and
// clinical observations share one key space.
func (f Finding) Key() string {
	if f.IsLab() {
		return strings.ToLower(strings.TrimSpace(f.Test))
	}
	return strings.ToLower(strings.TrimSpace(f.Name))
}

// Label returns the raw name of the finding regardless of variant.
func (f Finding) Label() string {
	if f.IsLab() {
		return f.Test
	}
	return f.Name
}

package models

// Explanation is the patient-facing record produced for one finding.
// Field names mirror the JSON consumed by the mobile client.
type Explanation struct {
	Ordinal     int         `json:"keyword_number"`
	DisplayName string      `json:"keyword"`
	Kind        FindingKind `json:"type"`
	Finding     string      `json:"finding"`
	Value       string      `json:"value"`
	Unit        string      `json:"unit"`
	Descriptor  string      `json:"descriptor"`
	Text        string      `json:"explanation"`
	KBMatches   []string    `json:"kb_matches"`
}

// AnalysisResult is the document-level outcome of one pipeline run.
type AnalysisResult struct {
	Success       bool          `json:"success"`
	ReportType    ReportType    `json:"report_type"`
	TotalFindings int           `json:"total_findings"`
	Explanations  []Explanation `json:"explanations"`
	RawText       string        `json:"raw_text"`
}

// KnowledgeEntry is one reference snippet in the fixed knowledge base.
type KnowledgeEntry struct {
	ID   string
	Text string
}

// ScoredChunk is a document chunk returned from similarity search together
// with its cosine similarity to the query.
type ScoredChunk struct {
	Text  string
	Score float32
}

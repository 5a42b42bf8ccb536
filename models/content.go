package models

import "time"

// SafeDefaultSource labels content that came from the hardcoded
// last-resort message rather than any live or file-backed tier.
const SafeDefaultSource = "SafeDefault"

// ContentItem is one broadcastable English message plus the label of the
// tier that produced it. It lives for a single pipeline run.
type ContentItem struct {
	Message   string    `json:"message"`
	Source    string    `json:"source"`
	Timestamp time.Time `json:"timestamp"`
}

// PipelineRun carries the state of one translate→synthesize→deliver pass
// for a single content item and target language. It is never persisted.
type PipelineRun struct {
	EnglishText    string
	SourceLabel    string
	Language       Language
	TranslatedText string
	AudioFileName  string
}

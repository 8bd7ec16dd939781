package documents

import "legal-analyzer-api/internal/entities"

// AnalysisResponse is the body returned for a successful upload.
type AnalysisResponse struct {
	Filename   string            `json:"filename"`
	Summary    string            `json:"summary"`
	Entities   []entities.Entity `json:"entities"`
	RawText    string            `json:"raw_text"`
	TextLength int               `json:"text_length"`
	WordCount  int               `json:"word_count"`
}

func toResponse(res Result) AnalysisResponse {
	ents := res.Entities
	if ents == nil {
		ents = []entities.Entity{}
	}
	return AnalysisResponse{
		Filename:   res.Filename,
		Summary:    res.Summary,
		Entities:   ents,
		RawText:    res.RawText,
		TextLength: res.TextLength,
		WordCount:  res.WordCount,
	}
}

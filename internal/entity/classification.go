package entity

// Classification is the outcome of scoring one page against the signature catalog.
type Classification struct {
	PageIndex       int      `json:"page_index"`
	DocumentType    string   `json:"document_type"`
	Confidence      float64  `json:"confidence"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

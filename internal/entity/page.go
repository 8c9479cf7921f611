package entity

// Page is the text of one source page. Index is 1-based.
type Page struct {
	Index      int    `json:"index"`
	Text       string `json:"text"`
	TextLength int    `json:"text_length"`
	Method     string `json:"method,omitempty"` // "pdf-text" | "pdf-ocr" | "image-ocr" | "txt"
}

// NewPage builds a Page and derives TextLength (in runes) from text.
func NewPage(index int, text string) Page {
	return Page{Index: index, Text: text, TextLength: len([]rune(text))}
}

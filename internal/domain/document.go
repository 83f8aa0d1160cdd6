package domain

// Document is one resume in a batch: a caller-supplied name plus the text
// already extracted from the uploaded file.
type Document struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

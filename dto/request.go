package dto

import "errors"

var ErrNoInput = errors.New("either raw text, pages, table rows or a PDF must be supplied")

// ExtractionRequest is the JSON body of the extract endpoint. Multipart
// uploads carry the same optional fields in the "metadata" form field.
type ExtractionRequest struct {
	Text           string                `json:"text,omitempty"`
	Pages          []string              `json:"pages,omitempty"`
	Rows           []TableRow            `json:"rows,omitempty"`
	ReferenceTotal *float64              `json:"reference_total,omitempty"`
	Corrections    map[string]Correction `json:"corrections,omitempty"`
	Password       string                `json:"password,omitempty"`
}

// Validate performs basic shape validation on the request.
func (r *ExtractionRequest) Validate() error {
	if r.Text == "" && len(r.Pages) == 0 && len(r.Rows) == 0 {
		return ErrNoInput
	}
	return nil
}

// Document builds the pipeline input from the request body.
func (r *ExtractionRequest) Document() *Document {
	doc := &Document{Pages: r.Pages, Rows: r.Rows}
	if r.Text != "" && len(r.Pages) == 0 {
		doc.Pages = []string{r.Text}
	}
	return doc
}

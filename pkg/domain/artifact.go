package domain

import "strings"

// SampleRows is how many data rows CSVFile.Sample returns after the header.
const SampleRows = 10

// CSVFile is a structured artifact uploaded by the reviewer. Parsing the
// raw bytes into header and rows is the front-end's concern; the engine
// only ever reads this normalized form.
type CSVFile struct {
	// Name is the filename including the ".csv" extension.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Header is the first row of the file as a single comma-separated string.
	Header string `json:"header" yaml:"header" mapstructure:"header"`

	// Rows holds each data row as a single comma-separated string.
	Rows []string `json:"rows" yaml:"rows" mapstructure:"rows"`
}

// Columns splits the header into trimmed column names.
func (f CSVFile) Columns() []string {
	if f.Header == "" {
		return nil
	}
	parts := strings.Split(f.Header, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// Sample returns the header plus up to SampleRows data rows. This is the
// slice of the file shown to capabilities for schema inference.
func (f CSVFile) Sample() []string {
	n := len(f.Rows)
	if n > SampleRows {
		n = SampleRows
	}
	out := make([]string, 0, n+1)
	out = append(out, f.Header)
	return append(out, f.Rows[:n]...)
}

// DocFile is an unstructured artifact (txt, pdf, md, docx, html) whose
// content was converted to markdown by the front-end before upload.
type DocFile struct {
	// Name is the filename including its extension.
	Name string `json:"name" yaml:"name" mapstructure:"name"`

	// Title is the document title ascertained from the text, if any.
	Title string `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`

	// Content is the markdown-formatted document body.
	Content string `json:"content" yaml:"content" mapstructure:"content"`
}

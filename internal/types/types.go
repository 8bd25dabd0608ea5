package types

import "strings"

// FounderSeparator joins founder names and profile URLs inside a single cell.
const FounderSeparator = "; "

// CompanyRecord represents the data extracted from one company detail page
type CompanyRecord struct {
	Slug         string
	Name         string
	Batch        string
	Description  string
	FounderNames []string
	FounderLinks []string
}

// Header is the fixed column schema of every output file.
var Header = []string{
	"No",
	"Company Name",
	"Batch",
	"Short Description",
	"Founder Names",
	"Founder LinkedIn URLs",
}

// Columns returns the record's cells in Header order, minus the row number.
func (r CompanyRecord) Columns() []string {
	return []string{
		r.Name,
		r.Batch,
		r.Description,
		strings.Join(r.FounderNames, FounderSeparator),
		strings.Join(r.FounderLinks, FounderSeparator),
	}
}

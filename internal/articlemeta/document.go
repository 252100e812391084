// Package articlemeta is the client for the document-record feed. It
// exposes the bibliographic records the export tooling tabulates, with a
// paged iterator over a journal's (or a whole collection's) documents.
package articlemeta

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Author is one document author.
type Author struct {
	Surname    string `json:"surname"`
	GivenNames string `json:"given_names"`
}

// Journal is the journal-level metadata embedded in every document record.
type Journal struct {
	SciELOISSN       string   `json:"scielo_issn"`
	PrintISSN        string   `json:"print_issn"`
	ElectronicISSN   string   `json:"electronic_issn"`
	Title            string   `json:"title"`
	AbbreviatedTitle string   `json:"abbreviated_title"`
	Acronym          string   `json:"acronym"`
	SubjectAreas     []string `json:"subject_areas"`
	CurrentStatus    string   `json:"current_status"`
}

// ISSNs returns the journal's print and electronic ISSNs, in that order,
// skipping the ones it does not have.
func (j Journal) ISSNs() []string {
	var issns []string
	if j.PrintISSN != "" {
		issns = append(issns, j.PrintISSN)
	}
	if j.ElectronicISSN != "" {
		issns = append(issns, j.ElectronicISSN)
	}
	return issns
}

// Issue is the issue-level metadata embedded in every document record.
type Issue struct {
	PublisherID     string `json:"publisher_id"`
	Label           string `json:"label"`
	PublicationDate string `json:"publication_date"`
}

// Document is one bibliographic record from the feed.
type Document struct {
	PublisherID     string            `json:"publisher_id"`
	Collection      string            `json:"collection"`
	DocumentType    string            `json:"document_type"`
	Title           string            `json:"title"`
	DOI             string            `json:"doi,omitempty"`
	PublicationDate string            `json:"publication_date"`
	ProcessingDate  string            `json:"processing_date"`
	CreationDate    string            `json:"creation_date"`
	UpdateDate      string            `json:"update_date"`
	ReceiveDate     string            `json:"receive_date,omitempty"`
	AcceptanceDate  string            `json:"acceptance_date,omitempty"`
	ReviewDate      string            `json:"review_date,omitempty"`
	Authors         []Author          `json:"authors,omitempty"`
	Citations       int               `json:"citations"`
	StartPage       string            `json:"start_page,omitempty"`
	EndPage         string            `json:"end_page,omitempty"`
	Languages       []string          `json:"languages,omitempty"`
	License         string            `json:"license,omitempty"`
	PDFs            map[string]string `json:"pdfs,omitempty"`
	Journal         Journal           `json:"journal"`
	Issue           Issue             `json:"issue"`
}

// PublicationYear returns the year component of the publication date.
func (d Document) PublicationYear() string {
	if len(d.PublicationDate) < 4 {
		return d.PublicationDate
	}
	return d.PublicationDate[:4]
}

// IsCitable reports whether the document's type counts toward citable
// production.
func (d Document) IsCitable() bool {
	return CitableDocumentTypes[strings.ToLower(d.DocumentType)]
}

// Pages returns the document's page span, or zero when the page fields are
// absent, non-numeric, or inverted.
func (d Document) Pages() int {
	first, err := atoiLoose(d.StartPage)
	if err != nil {
		return 0
	}
	last, err := atoiLoose(d.EndPage)
	if err != nil {
		return 0
	}
	if last < first {
		return 0
	}
	return last - first
}

func atoiLoose(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

var pdfPathPattern = regexp.MustCompile(`/pdf.*\.pdf$`)

// FBPEKey converts a PID into its legacy FBPE form:
// S0102-67202009000300001 becomes S0102-6720(09)000300001.
func FBPEKey(code string) string {
	if len(code) < 15 {
		return code
	}
	return code[0:10] + "(" + code[12:14] + ")" + code[14:]
}

// EligibleMatchKeys returns every identifier the usage-counter service may
// hold this document's accesses under: the PID, its legacy FBPE form, the
// DOI, and the server paths of its PDF renditions. Some counter records are
// keyed all-uppercase, so each key also appears uppercased. The result is
// deduplicated and sorted.
func (d Document) EligibleMatchKeys() []string {
	keys := []string{d.PublisherID, FBPEKey(d.PublisherID)}
	if d.DOI != "" {
		keys = append(keys, d.DOI)
	}
	for _, url := range d.PDFs {
		if path := pdfPathPattern.FindString(url); path != "" {
			keys = append(keys, path)
		}
	}

	seen := make(map[string]bool, 2*len(keys))
	for _, key := range keys {
		seen[key] = true
		seen[strings.ToUpper(key)] = true
	}
	unique := make([]string, 0, len(seen))
	for key := range seen {
		unique = append(unique, key)
	}
	sort.Strings(unique)
	return unique
}

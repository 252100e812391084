package export

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
	"github.com/scieloorg/journal-analytics/internal/ratchet"
)

// Format selects the accesses output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// AccessesOptions configure the accesses tabulation.
type AccessesOptions struct {
	// From and Until bound the consolidated access period (inclusive,
	// YYYY-MM-DD). Zero values mean the full history up to today.
	From  string
	Until string
	// Daily switches consolidation from monthly to daily granularity.
	Daily bool
	// Format is CSV by default.
	Format Format
	// Now anchors the extraction-date column; nil means the wall clock.
	Now func() time.Time
}

// Accesses joins each document's metadata with its consolidated usage
// counters: one output line per document and access period. A document's
// counters may be spread over several keys (its PID, the legacy FBPE form
// of the PID, its DOI, PDF file paths); all of them are fetched and summed.
type Accesses struct {
	ratchet *ratchet.Client
	from    string
	until   string
	daily   bool
	format  Format
	now     func() time.Time
}

// NewAccesses creates the accesses tabulation over the given usage-counter
// client.
func NewAccesses(counters *ratchet.Client, opts AccessesOptions) *Accesses {
	a := &Accesses{
		ratchet: counters,
		from:    opts.From,
		until:   opts.Until,
		daily:   opts.Daily,
		format:  opts.Format,
		now:     opts.Now,
	}
	if a.from == "" {
		a.from = "1500-01-01"
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.until == "" {
		a.until = a.now().Format("2006-01-02")
	}
	if a.format == "" {
		a.format = FormatCSV
	}
	return a
}

func (a *Accesses) Unit() string { return "accesses" }

func (a *Accesses) Header() string {
	if a.format == FormatJSON {
		return ""
	}
	header := []string{
		"extraction date",
		"study unit",
		"collection",
		"ISSN SciELO",
		"ISSN's",
		"title at SciELO",
		"title thematic areas",
	}
	header = thematicHeader(header)
	header = append(header,
		"title is multidisciplinary",
		"title current status",
		"document publishing ID (PID SciELO)",
		"document publishing year",
		"document type",
		"document is citable",
		"issue",
		"issue title",
		"document title",
		"processing date",
		"publication date at SciELO",
		"publication date",
		"access date",
		"access year",
		"access month",
		"access to abstract",
		"access to html",
		"access to pdf",
		"access to epdf",
		"access total",
	)
	return QuoteRow(header)
}

func (a *Accesses) DocumentLines(ctx context.Context, doc articlemeta.Document) ([]string, error) {
	records, err := a.fetchUsage(doc)
	if err != nil {
		return nil, err
	}
	entries := joinUsage(records, a.from, a.until, a.daily)

	lines := make([]string, 0, len(entries))
	for _, entry := range entries {
		var line string
		if a.format == FormatJSON {
			line, err = a.jsonLine(doc, entry)
		} else {
			line, err = a.csvLine(doc, entry)
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (a *Accesses) fetchUsage(doc articlemeta.Document) ([]usageRecord, error) {
	var records []usageRecord
	for _, key := range doc.EligibleMatchKeys() {
		raw, err := a.ratchet.Document(key)
		if err != nil {
			return nil, err
		}
		found, err := parseUsage(raw)
		if err != nil {
			return nil, err
		}
		if len(found) > 0 {
			records = append(records, found[0])
		}
	}
	return records, nil
}

// subjectAreas collapses a journal with more than two subject areas into
// the single Multidisciplinary label, as the published dumps do.
func subjectAreas(doc articlemeta.Document) []string {
	areas := doc.Journal.SubjectAreas
	if len(areas) == 0 {
		return []string{"undefined"}
	}
	if len(areas) > 2 {
		return []string{"Multidisciplinary"}
	}
	return areas
}

func issueTitle(doc articlemeta.Document) string {
	year := doc.Issue.PublicationDate
	if len(year) > 4 {
		year = year[:4]
	}
	return strings.Join([]string{doc.Journal.AbbreviatedTitle, year, doc.Issue.Label}, ", ")
}

// accessTimestamp expands an access period into an ISO timestamp at the
// start of the period.
func accessTimestamp(date string) string {
	for _, layout := range []string{"2006-01", "2006-01-02"} {
		if t, err := time.Parse(layout, date); err == nil {
			return t.Format("2006-01-02T15:04:05")
		}
	}
	return date
}

func (a *Accesses) csvLine(doc articlemeta.Document, entry AccessEntry) (string, error) {
	areas := subjectAreas(doc)
	year, month, _ := SplitDate(entry.Date)

	line := []string{
		a.now().Format("2006-01-02"),
		"document",
		doc.Collection,
		doc.Journal.SciELOISSN,
		strings.Join(accessISSNs(doc), ";"),
		doc.Journal.Title,
		strings.Join(areas, ", "),
	}
	line = thematicIndicators(line, areas)
	line = append(line,
		indicator(len(areas) > 2),
		doc.Journal.CurrentStatus,
		doc.PublisherID,
		doc.PublicationYear(),
		doc.DocumentType,
		indicator(doc.IsCitable()),
		doc.Issue.PublisherID,
		issueTitle(doc),
		doc.Title,
		doc.ProcessingDate,
		doc.CreationDate,
		doc.PublicationDate,
		accessTimestamp(entry.Date),
		year,
		month,
		strconv.FormatInt(entry.Counts.Abstract, 10),
		strconv.FormatInt(entry.Counts.HTML, 10),
		strconv.FormatInt(entry.Counts.PDF, 10),
		strconv.FormatInt(entry.Counts.EPDF, 10),
		strconv.FormatInt(entry.Counts.Total(), 10),
	)
	return QuoteRow(line), nil
}

// accessISSNs lists the journal's ISSNs starting with the SciELO one,
// deduplicated in order.
func accessISSNs(doc articlemeta.Document) []string {
	seen := make(map[string]bool, 3)
	var issns []string
	for _, issn := range append([]string{doc.Journal.SciELOISSN}, doc.Journal.ISSNs()...) {
		if issn == "" || seen[issn] {
			continue
		}
		seen[issn] = true
		issns = append(issns, issn)
	}
	return issns
}

// accessRecord is the JSON encoding of one consolidated period.
type accessRecord struct {
	ID              string   `json:"id"`
	PID             string   `json:"pid"`
	ISSN            string   `json:"issn"`
	JournalTitle    string   `json:"journal_title"`
	Issue           string   `json:"issue"`
	IssueTitle      string   `json:"issue_title"`
	DocumentTitle   string   `json:"document_title"`
	ProcessingDate  string   `json:"processing_date"`
	CreationDate    string   `json:"publication_date_at_scielo"`
	PublicationDate string   `json:"publication_date"`
	PublicationYear string   `json:"publication_year"`
	SubjectAreas    []string `json:"subject_areas"`
	Collection      string   `json:"collection"`
	DocumentType    string   `json:"document_type"`
	Languages       []string `json:"languages"`
	AccessDate      string   `json:"access_date"`
	AccessYear      string   `json:"access_year"`
	AccessMonth     string   `json:"access_month"`
	AccessAbstract  int64    `json:"access_abstract"`
	AccessHTML      int64    `json:"access_html"`
	AccessPDF       int64    `json:"access_pdf"`
	AccessEPDF      int64    `json:"access_epdf"`
	AccessTotal     int64    `json:"access_total"`
}

func (a *Accesses) jsonLine(doc articlemeta.Document, entry AccessEntry) (string, error) {
	year, month, _ := SplitDate(entry.Date)
	record := accessRecord{
		ID:              doc.Collection + "_" + doc.PublisherID,
		PID:             doc.PublisherID,
		ISSN:            doc.Journal.SciELOISSN,
		JournalTitle:    doc.Journal.Title,
		Issue:           doc.Issue.PublisherID,
		IssueTitle:      issueTitle(doc),
		DocumentTitle:   doc.Title,
		ProcessingDate:  doc.ProcessingDate,
		CreationDate:    doc.CreationDate,
		PublicationDate: doc.PublicationDate,
		PublicationYear: doc.PublicationYear(),
		SubjectAreas:    subjectAreas(doc),
		Collection:      doc.Collection,
		DocumentType:    doc.DocumentType,
		Languages:       doc.Languages,
		AccessDate:      accessTimestamp(entry.Date),
		AccessYear:      year,
		AccessMonth:     month,
		AccessAbstract:  entry.Counts.Abstract,
		AccessHTML:      entry.Counts.HTML,
		AccessPDF:       entry.Counts.PDF,
		AccessEPDF:      entry.Counts.EPDF,
		AccessTotal:     entry.Counts.Total(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

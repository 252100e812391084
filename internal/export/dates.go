package export

import (
	"context"
	"time"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
)

// Dates tabulates the editorial timeline of each document: submission,
// acceptance, review, publication, site entry, and last update, each also
// split into year/month/day columns.
type Dates struct {
	now func() time.Time
}

// NewDates creates the dates tabulation. now anchors the extraction-date
// column; pass nil for the wall clock.
func NewDates(now func() time.Time) *Dates {
	if now == nil {
		now = time.Now
	}
	return &Dates{now: now}
}

func (d *Dates) Unit() string { return "dates" }

// dateColumns are the timeline columns, in output order, paired with a
// getter for the document field they render.
var dateColumns = []struct {
	label string
	get   func(articlemeta.Document) string
}{
	{"document submited at", func(doc articlemeta.Document) string { return doc.ReceiveDate }},
	{"document accepted at", func(doc articlemeta.Document) string { return doc.AcceptanceDate }},
	{"document reviewed at", func(doc articlemeta.Document) string { return doc.ReviewDate }},
	{"document published at", func(doc articlemeta.Document) string { return doc.PublicationDate }},
	{"document published in SciELO at", func(doc articlemeta.Document) string { return doc.CreationDate }},
	{"document updated in SciELO at", func(doc articlemeta.Document) string { return doc.UpdateDate }},
}

func (d *Dates) Header() string {
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
	)
	for _, col := range dateColumns {
		header = append(header,
			col.label,
			col.label+" year",
			col.label+" month",
			col.label+" day",
		)
	}
	return QuoteRow(header)
}

func (d *Dates) DocumentLines(_ context.Context, doc articlemeta.Document) ([]string, error) {
	line := journalColumns(d.now(), "document", doc, ";")
	line = append(line,
		indicator(len(doc.Journal.SubjectAreas) > 1),
		doc.Journal.CurrentStatus,
		doc.PublisherID,
		doc.PublicationYear(),
		doc.DocumentType,
		indicator(doc.IsCitable()),
	)
	for _, col := range dateColumns {
		date := col.get(doc)
		year, month, day := SplitDate(date)
		line = append(line, date, year, month, day)
	}
	return []string{QuoteRow(line)}, nil
}

package export

import (
	"context"
	"strconv"
	"time"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
)

// Counts tabulates per-document totals of authors, pages, and references,
// with indicator columns for each author-count band.
type Counts struct {
	now func() time.Time
}

// NewCounts creates the counts tabulation. now anchors the extraction-date
// column; pass nil for the wall clock.
func NewCounts(now func() time.Time) *Counts {
	if now == nil {
		now = time.Now
	}
	return &Counts{now: now}
}

func (c *Counts) Unit() string { return "counts" }

// Header returns the header row. It is deliberately unquoted while the
// data rows are quoted; downstream consumers of the published dumps depend
// on that shape.
func (c *Counts) Header() string {
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
		"title current status",
		"document publishing ID (PID SciELO)",
		"document publishing year",
		"document type",
		"authors",
		"0 authors",
		"1 author",
		"2 authors",
		"3 authors",
		"4 authors",
		"5 authors",
		"+6 authors",
		"pages",
		"references",
	)
	return RawRow(header)
}

func (c *Counts) DocumentLines(_ context.Context, doc articlemeta.Document) ([]string, error) {
	authors := len(doc.Authors)

	line := journalColumns(c.now(), "documents", doc, ";")
	line = append(line,
		doc.Journal.CurrentStatus,
		doc.PublisherID,
		doc.PublicationYear(),
		doc.DocumentType,
		strconv.Itoa(authors),
		indicator(authors == 0),
		indicator(authors == 1),
		indicator(authors == 2),
		indicator(authors == 3),
		indicator(authors == 4),
		indicator(authors == 5),
		indicator(authors >= 6),
		strconv.Itoa(doc.Pages()),
		strconv.Itoa(doc.Citations),
	)
	return []string{QuoteRow(line)}, nil
}

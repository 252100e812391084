package export

import (
	"context"
	"time"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
)

// Licenses tabulates the publishing license of each document.
type Licenses struct {
	now func() time.Time
}

// NewLicenses creates the licenses tabulation. now anchors the
// extraction-date column; pass nil for the wall clock.
func NewLicenses(now func() time.Time) *Licenses {
	if now == nil {
		now = time.Now
	}
	return &Licenses{now: now}
}

func (l *Licenses) Unit() string { return "licenses" }

// Header returns the header row, unquoted like the counts tabulation.
func (l *Licenses) Header() string {
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
		"license",
	)
	return RawRow(header)
}

func (l *Licenses) DocumentLines(_ context.Context, doc articlemeta.Document) ([]string, error) {
	line := journalColumns(l.now(), "documents", doc, ";")
	line = append(line,
		doc.Journal.CurrentStatus,
		doc.PublisherID,
		doc.PublicationYear(),
		doc.DocumentType,
		doc.License,
	)
	return []string{QuoteRow(line)}, nil
}

package export

import (
	"strings"
	"time"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
)

// thematicHeader appends one "title is <area>" column per thematic area.
func thematicHeader(header []string) []string {
	for _, area := range articlemeta.ThematicAreas {
		header = append(header, "title is "+strings.ToLower(area))
	}
	return header
}

// thematicIndicators appends one 1/0 column per thematic area, matched
// case-insensitively against the journal's subject areas.
func thematicIndicators(line []string, subjectAreas []string) []string {
	lowered := make(map[string]bool, len(subjectAreas))
	for _, area := range subjectAreas {
		lowered[strings.ToLower(area)] = true
	}
	for _, area := range articlemeta.ThematicAreas {
		line = append(line, indicator(lowered[strings.ToLower(area)]))
	}
	return line
}

// journalColumns is the shared row prefix of every tabulation: extraction
// date, study unit, collection, ISSNs, title, thematic areas and their
// indicator columns.
func journalColumns(now time.Time, studyUnit string, doc articlemeta.Document, areaSeparator string) []string {
	line := []string{
		now.Format("2006-01-02"),
		studyUnit,
		doc.Collection,
		doc.Journal.SciELOISSN,
		strings.Join(doc.Journal.ISSNs(), ";"),
		doc.Journal.Title,
		strings.Join(doc.Journal.SubjectAreas, areaSeparator),
	}
	return thematicIndicators(line, doc.Journal.SubjectAreas)
}

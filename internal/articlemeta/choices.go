package articlemeta

// ThematicAreas is the fixed vocabulary of journal thematic areas, in the
// column order the tabular exports use.
var ThematicAreas = []string{
	"Agricultural Sciences",
	"Applied Social Sciences",
	"Biological Sciences",
	"Engineering",
	"Exact and Earth Sciences",
	"Health Sciences",
	"Human Sciences",
	"Linguistics, Letters and Arts",
	"Multidisciplinary",
}

// CitableDocumentTypes holds the document types (lowercased) that count as
// citable production.
var CitableDocumentTypes = map[string]bool{
	"article-commentary":  true,
	"brief-report":        true,
	"case-report":         true,
	"rapid-communication": true,
	"research-article":    true,
	"review-article":      true,
}

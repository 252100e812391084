// Package publication is the analytics client for the publication
// statistics service: article and issue counts per year, language
// distributions, and first/last included document lookups.
package publication

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/scieloorg/journal-analytics/internal/search"
	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// docType is the backend document type every publication query runs against.
const docType = "article"

// Client queries the PublicationStats service. Year windows anchor to the
// clock injected at construction (wall clock by default), so results for
// "the last N years" always count back from today rather than from the
// newest document.
type Client struct {
	channel rpc.Factory
	now     func() time.Time
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithClock overrides the wall clock used to anchor year windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a PublicationStats client over the given channel factory.
func New(channel rpc.Factory, opts ...Option) *Client {
	c := &Client{
		channel: channel,
		now:     time.Now,
		logger:  logger.WithComponent("publicationstats"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DocumentsLanguagesByYear returns the journal's per-language document
// counts for the `years` most recent calendar years, newest first. Years
// the backend has no data for come back zero-filled; response years
// outside the window are dropped.
func (c *Client) DocumentsLanguagesByYear(issn, collection string, years int) ([]YearLanguages, error) {
	query, err := search.New(
		search.Match("issn", issn),
		search.Match("collection", collection),
		search.Size(0),
		search.WithAgg("publication_year", search.TermsBuckets(
			"publication_year", years, search.OrderByTerm,
			map[string]search.Agg{
				"languages": search.TermsBuckets("languages", search.UnboundedBuckets, "", nil),
			},
		)),
	)
	if err != nil {
		return nil, err
	}

	result, err := c.search(query)
	if err != nil {
		return nil, err
	}
	return reduceLanguagesByYear(result, search.YearWindow(c.now(), years)), nil
}

// NumberOfArticles returns the distinct article count for the whole
// journal, optionally restricted to the given document types.
func (c *Client) NumberOfArticles(issn, collection string, documentTypes ...string) (int64, error) {
	opts := []search.Option{
		search.Match("issn", issn),
		search.Match("collection", collection),
		search.Size(0),
		search.WithAgg("id", search.Cardinality("id")),
	}
	if len(documentTypes) > 0 {
		opts = append(opts, search.MatchAny("document_type", documentTypes...))
	}
	query, err := search.New(opts...)
	if err != nil {
		return 0, err
	}

	result, err := c.search(query)
	if err != nil {
		return 0, err
	}
	return result.Aggregation("id").IntValue(), nil
}

// NumberOfArticlesByYear returns distinct article counts per year over the
// `years` most recent calendar years, newest first and zero-filled.
func (c *Client) NumberOfArticlesByYear(issn, collection string, documentTypes []string, years int) ([]YearCount, error) {
	if years <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "years must be positive; use NumberOfArticles for a journal-wide count")
	}
	opts := []search.Option{
		search.Match("issn", issn),
		search.Match("collection", collection),
		search.Size(0),
		search.WithAgg("publication_year", search.TermsBuckets(
			"publication_year", years, search.OrderByTerm,
			map[string]search.Agg{"id": search.Cardinality("id")},
		)),
	}
	if len(documentTypes) > 0 {
		opts = append(opts, search.MatchAny("document_type", documentTypes...))
	}
	query, err := search.New(opts...)
	if err != nil {
		return nil, err
	}

	result, err := c.search(query)
	if err != nil {
		return nil, err
	}
	return reduceCountByYear(result, search.YearWindow(c.now(), years), "id"), nil
}

// NumberOfIssues returns the distinct issue count for the whole journal,
// optionally restricted to one issue type (regular, supplement,
// pressrelease, ahead, special).
func (c *Client) NumberOfIssues(issn, collection, issueType string) (int64, error) {
	opts := []search.Option{
		search.Match("issn", issn),
		search.Match("collection", collection),
		search.Size(0),
		search.WithAgg("issue", search.Cardinality("issue")),
	}
	if issueType != "" {
		opts = append(opts, search.Match("issue_type", issueType))
	}
	query, err := search.New(opts...)
	if err != nil {
		return 0, err
	}

	result, err := c.search(query)
	if err != nil {
		return 0, err
	}
	return result.Aggregation("issue").IntValue(), nil
}

// NumberOfIssuesByYear returns distinct issue counts per year over the
// `years` most recent calendar years, newest first and zero-filled.
func (c *Client) NumberOfIssuesByYear(issn, collection string, years int, issueType string) ([]YearCount, error) {
	if years <= 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "years must be positive; use NumberOfIssues for a journal-wide count")
	}
	opts := []search.Option{
		search.Match("issn", issn),
		search.Match("collection", collection),
		search.Size(0),
		search.WithAgg("publication_year", search.TermsBuckets(
			"publication_year", years, search.OrderByTerm,
			map[string]search.Agg{"issue": search.Cardinality("issue")},
		)),
	}
	if issueType != "" {
		opts = append(opts, search.Match("issue_type", issueType))
	}
	query, err := search.New(opts...)
	if err != nil {
		return nil, err
	}

	result, err := c.search(query)
	if err != nil {
		return nil, err
	}
	return reduceCountByYear(result, search.YearWindow(c.now(), years), "issue"), nil
}

// FirstIncludedDocumentByJournal returns the raw source record of the
// journal's earliest regular-issue document, or ErrNotFound when the
// journal has none. Absence is distinct from a record with empty fields.
func (c *Client) FirstIncludedDocumentByJournal(issn, collection string) (json.RawMessage, error) {
	return c.lookupDocument(issn, collection, "asc", false)
}

// LastIncludedDocumentByJournal returns the raw source record of the
// journal's most recent regular-issue document with a publication date,
// or ErrNotFound.
func (c *Client) LastIncludedDocumentByJournal(issn, collection string) (json.RawMessage, error) {
	return c.lookupDocument(issn, collection, "desc", true)
}

func (c *Client) lookupDocument(issn, collection, order string, requireDate bool) (json.RawMessage, error) {
	opts := []search.Option{
		search.Match("collection", collection),
		search.Match("issn", issn),
		search.Match("issue_type", "regular"),
		search.SortBy("publication_date", order),
		search.Size(1),
	}
	if requireDate {
		opts = append(opts, search.Exists("publication_date"))
	}
	query, err := search.New(opts...)
	if err != nil {
		return nil, err
	}

	result, err := c.searchWithSize(query, "1")
	if err != nil {
		return nil, err
	}
	if len(result.Hits.Hits) == 0 {
		return nil, apperrors.Newf(apperrors.ErrNotFound, "no included document for %s/%s", collection, issn)
	}
	return result.Hits.Hits[0].Source, nil
}

func (c *Client) search(query search.Query) (search.Result, error) {
	return c.searchWithSize(query, "0")
}

func (c *Client) searchWithSize(query search.Query, size string) (search.Result, error) {
	body, err := query.Body()
	if err != nil {
		return search.Result{}, err
	}

	ch, err := c.channel()
	if err != nil {
		return search.Result{}, err
	}
	defer ch.Close()

	c.logger.Debug("publication query", "body", body)

	var raw string
	err = ch.Call("PublicationStats.Search", rpc.SearchRequest{
		DocType:    docType,
		Body:       body,
		Parameters: []rpc.KV{{Key: "size", Value: size}},
	}, &raw)
	if err != nil {
		return search.Result{}, err
	}
	return search.ParseResult(raw)
}

package publication

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/journal-analytics/pkg/config"
	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// testNow fixes the wall clock so year windows are stable.
var testNow = func() time.Time {
	return time.Date(2016, time.August, 10, 12, 0, 0, 0, time.UTC)
}

// fakeBackend runs an in-process PublicationStats service whose Search
// handler records the received request and replies with a canned response.
func fakeBackend(t *testing.T, response string, got *rpc.SearchRequest) rpc.Factory {
	t.Helper()
	srv := rpc.NewServer()
	srv.Register("PublicationStats.Search", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req rpc.SearchRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if got != nil {
			*got = req
		}
		return response, nil
	})
	addr, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(srv.Stop)
	return rpc.NewFactory(addr, config.RPCConfig{
		DialTimeout: time.Second,
		CallTimeout: 5 * time.Second,
		DialRetry:   config.RetryConfig{MaxAttempts: 1},
	})
}

func newTestClient(t *testing.T, response string, got *rpc.SearchRequest) *Client {
	return New(fakeBackend(t, response, got), WithClock(testNow))
}

func TestDocumentsLanguagesByYearQueryBody(t *testing.T) {
	var got rpc.SearchRequest
	client := newTestClient(t, `{}`, &got)

	_, err := client.DocumentsLanguagesByYear("0001-3765", "scl", 2)
	require.NoError(t, err)

	assert.Equal(t, "article", got.DocType)
	assert.JSONEq(t, `{
		"query": {"bool": {"must": [
			{"match": {"issn": "0001-3765"}},
			{"match": {"collection": "scl"}}
		]}},
		"size": 0,
		"aggs": {
			"publication_year": {
				"terms": {"field": "publication_year", "size": 2, "order": {"_term": "desc"}},
				"aggs": {"languages": {"terms": {"field": "languages", "size": 0}}}
			}
		}
	}`, got.Body)
}

func TestDocumentsLanguagesByYearWindow(t *testing.T) {
	response := `{
		"aggregations": {
			"publication_year": {"buckets": [
				{"key": "2016", "languages": {"buckets": [
					{"key": "pt", "doc_count": 11},
					{"key": "en", "doc_count": 4},
					{"key": "fr", "doc_count": 5},
					{"key": "de", "doc_count": 2}
				]}},
				{"key": "1998", "languages": {"buckets": [
					{"key": "pt", "doc_count": 99}
				]}}
			]}
		}
	}`
	client := newTestClient(t, response, nil)

	series, err := client.DocumentsLanguagesByYear("0001-3765", "scl", 3)
	require.NoError(t, err)

	// Exactly 3 entries, current year first, zero-filled gaps; 1998 is
	// outside the window and dropped; fr/de fold into Other.
	require.Len(t, series, 3)
	assert.Equal(t, YearLanguages{Year: "2016", Languages: LanguageCounts{PT: 11, EN: 4, ES: 0, Other: 7}}, series[0])
	assert.Equal(t, YearLanguages{Year: "2015"}, series[1])
	assert.Equal(t, YearLanguages{Year: "2014"}, series[2])
}

func TestDocumentsLanguagesByYearZeroYears(t *testing.T) {
	client := newTestClient(t, `{
		"aggregations": {"publication_year": {"buckets": [
			{"key": "2016", "languages": {"buckets": [{"key": "pt", "doc_count": 1}]}}
		]}}
	}`, nil)

	series, err := client.DocumentsLanguagesByYear("0001-3765", "scl", 0)
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestNumberOfArticlesScalar(t *testing.T) {
	var got rpc.SearchRequest
	client := newTestClient(t, `{"aggregations": {"id": {"value": 1842}}}`, &got)

	total, err := client.NumberOfArticles("0001-3765", "scl")
	require.NoError(t, err)
	assert.Equal(t, int64(1842), total)

	assert.JSONEq(t, `{
		"query": {"bool": {"must": [
			{"match": {"issn": "0001-3765"}},
			{"match": {"collection": "scl"}}
		]}},
		"size": 0,
		"aggs": {"id": {"cardinality": {"field": "id"}}}
	}`, got.Body)
}

func TestNumberOfArticlesDocumentTypeFilter(t *testing.T) {
	var got rpc.SearchRequest
	client := newTestClient(t, `{"aggregations": {"id": {"value": 7}}}`, &got)

	_, err := client.NumberOfArticles("0001-3765", "scl", "research-article", "review-article")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"query": {"bool": {
			"must": [
				{"match": {"issn": "0001-3765"}},
				{"match": {"collection": "scl"}}
			],
			"should": [
				{"match": {"document_type": "research-article"}},
				{"match": {"document_type": "review-article"}}
			]
		}},
		"size": 0,
		"aggs": {"id": {"cardinality": {"field": "id"}}}
	}`, got.Body)
}

func TestNumberOfArticlesByYear(t *testing.T) {
	response := `{
		"aggregations": {"publication_year": {"buckets": [
			{"key": "2016", "id": {"value": 40}},
			{"key": "2014", "id": {"value": 25}},
			{"key": "2002", "id": {"value": 99}}
		]}}
	}`
	client := newTestClient(t, response, nil)

	series, err := client.NumberOfArticlesByYear("0001-3765", "scl", nil, 3)
	require.NoError(t, err)

	assert.Equal(t, []YearCount{
		{Year: "2016", Count: 40},
		{Year: "2015", Count: 0},
		{Year: "2014", Count: 25},
	}, series)
}

func TestNumberOfArticlesByYearRejectsZeroYears(t *testing.T) {
	client := newTestClient(t, `{}`, nil)

	_, err := client.NumberOfArticlesByYear("0001-3765", "scl", nil, 0)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNumberOfIssuesScalar(t *testing.T) {
	var got rpc.SearchRequest
	client := newTestClient(t, `{"aggregations": {"issue": {"value": 120}}}`, &got)

	total, err := client.NumberOfIssues("0001-3765", "scl", "regular")
	require.NoError(t, err)
	assert.Equal(t, int64(120), total)

	assert.JSONEq(t, `{
		"query": {"bool": {"must": [
			{"match": {"issn": "0001-3765"}},
			{"match": {"collection": "scl"}},
			{"match": {"issue_type": "regular"}}
		]}},
		"size": 0,
		"aggs": {"issue": {"cardinality": {"field": "issue"}}}
	}`, got.Body)
}

func TestNumberOfIssuesByYearEndToEnd(t *testing.T) {
	// Backend has data only for the current year: the two older years of
	// a 3-year window come back as explicit zeros, newest first.
	response := `{
		"aggregations": {"publication_year": {"buckets": [
			{"key": "2016", "issue": {"value": 4}}
		]}}
	}`
	client := newTestClient(t, response, nil)

	series, err := client.NumberOfIssuesByYear("0001-3765", "scl", 3, "")
	require.NoError(t, err)

	assert.Equal(t, []YearCount{
		{Year: "2016", Count: 4},
		{Year: "2015", Count: 0},
		{Year: "2014", Count: 0},
	}, series)
}

func TestNumberOfIssuesByYearMissingMetric(t *testing.T) {
	response := `{
		"aggregations": {"publication_year": {"buckets": [
			{"key": "2016", "doc_count": 17}
		]}}
	}`
	client := newTestClient(t, response, nil)

	series, err := client.NumberOfIssuesByYear("0001-3765", "scl", 1, "")
	require.NoError(t, err)
	assert.Equal(t, []YearCount{{Year: "2016", Count: 0}}, series)
}

func TestFirstIncludedDocumentByJournal(t *testing.T) {
	var got rpc.SearchRequest
	client := newTestClient(t, `{"hits": {"hits": [{"_source": {"code": "S0001-37651950000100001"}}]}}`, &got)

	doc, err := client.FirstIncludedDocumentByJournal("0001-3765", "scl")
	require.NoError(t, err)
	assert.JSONEq(t, `{"code": "S0001-37651950000100001"}`, string(doc))

	assert.JSONEq(t, `{
		"query": {"bool": {"must": [
			{"match": {"collection": "scl"}},
			{"match": {"issn": "0001-3765"}},
			{"match": {"issue_type": "regular"}}
		]}},
		"size": 1,
		"sort": [{"publication_date": {"order": "asc"}}]
	}`, got.Body)
	assert.Equal(t, []rpc.KV{{Key: "size", Value: "1"}}, got.Parameters)
}

func TestLastIncludedDocumentByJournal(t *testing.T) {
	var got rpc.SearchRequest
	client := newTestClient(t, `{"hits": {"hits": [{"_source": {"code": "S0001-37652016000400001"}}]}}`, &got)

	_, err := client.LastIncludedDocumentByJournal("0001-3765", "scl")
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"query": {"bool": {
			"must": [
				{"match": {"collection": "scl"}},
				{"match": {"issn": "0001-3765"}},
				{"match": {"issue_type": "regular"}}
			],
			"filter": {"exists": {"field": "publication_date"}}
		}},
		"size": 1,
		"sort": [{"publication_date": {"order": "desc"}}]
	}`, got.Body)
}

func TestDocumentLookupNotFound(t *testing.T) {
	client := newTestClient(t, `{"hits": {"hits": []}}`, nil)

	doc, err := client.FirstIncludedDocumentByJournal("0001-3765", "scl")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Nil(t, doc)
}

func TestYearSeriesExactWindow(t *testing.T) {
	for _, years := range []int{1, 2, 5, 10} {
		t.Run(fmt.Sprintf("years=%d", years), func(t *testing.T) {
			client := newTestClient(t, `{}`, nil)

			series, err := client.NumberOfArticlesByYear("0001-3765", "scl", nil, years)
			require.NoError(t, err)
			require.Len(t, series, years)
			assert.Equal(t, "2016", series[0].Year)
			assert.Equal(t, fmt.Sprintf("%d", 2016-years+1), series[years-1].Year)
		})
	}
}

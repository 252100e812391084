// Package accessstats is the analytics client for the access statistics
// service. Its one operation folds the backend's nested
// publication-year/access-year aggregation into a flat usage lifetime.
package accessstats

import (
	"log/slog"
	"sort"

	"github.com/scieloorg/journal-analytics/internal/search"
	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// LifetimePoint is the access volume one publication year received during
// one access year, split by rendition.
type LifetimePoint struct {
	PublicationYear string `json:"publication_year"`
	AccessYear      string `json:"access_year"`
	HTML            int64  `json:"html"`
	Abstract        int64  `json:"abstract"`
	PDF             int64  `json:"pdf"`
	EPDF            int64  `json:"epdf"`
	Total           int64  `json:"total"`
}

// Client queries the AccessStats service. Each operation obtains a fresh
// channel from the factory, performs one round trip, and closes it.
type Client struct {
	channel rpc.Factory
	logger  *slog.Logger
}

// New creates an AccessStats client over the given channel factory.
func New(channel rpc.Factory) *Client {
	return &Client{
		channel: channel,
		logger:  logger.WithComponent("accessstats"),
	}
}

// AccessLifetime returns every (publication year, access year) pair the
// journal accumulated accesses for, sorted ascending by publication year
// then access year.
func (c *Client) AccessLifetime(issn, collection string) ([]LifetimePoint, error) {
	raw, err := c.RawAccessLifetime(issn, collection)
	if err != nil {
		return nil, err
	}
	result, err := search.ParseResult(raw)
	if err != nil {
		return nil, err
	}
	return reduceLifetime(result), nil
}

// RawAccessLifetime returns the backend's unreduced response body.
func (c *Client) RawAccessLifetime(issn, collection string) (string, error) {
	query, err := lifetimeQuery(issn, collection)
	if err != nil {
		return "", err
	}
	body, err := query.Body()
	if err != nil {
		return "", err
	}

	ch, err := c.channel()
	if err != nil {
		return "", err
	}
	defer ch.Close()

	c.logger.Debug("access lifetime query", "issn", issn, "collection", collection)

	var raw string
	err = ch.Call("AccessStats.Search", rpc.SearchRequest{
		Body:       body,
		Parameters: []rpc.KV{{Key: "size", Value: "0"}},
	}, &raw)
	if err != nil {
		return "", err
	}
	return raw, nil
}

// lifetimeQuery buckets by publication year, then by access year, with the
// five rendition sums computed per inner bucket. Both levels order by the
// access_total metric.
func lifetimeQuery(issn, collection string) (search.Query, error) {
	renditions := func() map[string]search.Agg {
		return map[string]search.Agg{
			"access_total":    search.Sum("access_total"),
			"access_abstract": search.Sum("access_abstract"),
			"access_epdf":     search.Sum("access_epdf"),
			"access_html":     search.Sum("access_html"),
			"access_pdf":      search.Sum("access_pdf"),
		}
	}

	return search.New(
		search.Match("collection", collection),
		search.Match("issn", issn),
		search.Size(0),
		search.WithAgg("publication_year", search.TermsBuckets(
			"publication_year", search.UnboundedBuckets, "access_total",
			map[string]search.Agg{
				"access_total": search.Sum("access_total"),
				"access_year": search.TermsBuckets(
					"access_year", search.UnboundedBuckets, "access_total",
					renditions(),
				),
			},
		)),
	)
}

// reduceLifetime flattens the two-level bucket tree into one point per
// (publication year, access year) pair. Missing metrics read as zero.
func reduceLifetime(result search.Result) []LifetimePoint {
	var points []LifetimePoint
	for _, pub := range result.Aggregation("publication_year").Buckets {
		for _, access := range pub.Sub("access_year").Buckets {
			points = append(points, LifetimePoint{
				PublicationYear: pub.Key,
				AccessYear:      access.Key,
				HTML:            access.Sub("access_html").IntValue(),
				Abstract:        access.Sub("access_abstract").IntValue(),
				PDF:             access.Sub("access_pdf").IntValue(),
				EPDF:            access.Sub("access_epdf").IntValue(),
				Total:           access.Sub("access_total").IntValue(),
			})
		}
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].PublicationYear != points[j].PublicationYear {
			return points[i].PublicationYear < points[j].PublicationYear
		}
		return points[i].AccessYear < points[j].AccessYear
	})
	return points
}

package articlemeta

import (
	"encoding/json"
	"log/slog"

	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// DefaultPageSize is how many documents each feed page requests.
const DefaultPageSize = 1000

// Client reads the ArticleMeta document feed.
type Client struct {
	channel  rpc.Factory
	pageSize int
	logger   *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithPageSize overrides the feed page size.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// New creates an ArticleMeta client over the given channel factory.
func New(channel rpc.Factory, opts ...Option) *Client {
	c := &Client{
		channel:  channel,
		pageSize: DefaultPageSize,
		logger:   logger.WithComponent("articlemeta"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Documents iterates over every document of a collection, optionally
// restricted to one journal's ISSN (empty issn means the whole collection).
// The feed is paged; a short page ends the iteration.
func (c *Client) Documents(collection, issn string) *Iterator {
	return &Iterator{client: c, collection: collection, issn: issn}
}

// Iterator walks the document feed one record at a time:
//
//	it := client.Documents("scl", "0001-3765")
//	for it.Next() {
//	    doc := it.Document()
//	    ...
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator struct {
	client     *Client
	collection string
	issn       string

	page []Document
	pos  int
	from int
	done bool
	err  error
}

// Next advances to the next document, fetching the next feed page when the
// current one is exhausted. It returns false at the end of the feed or on
// error.
func (it *Iterator) Next() bool {
	if it.err != nil {
		return false
	}
	if it.pos < len(it.page) {
		return true
	}
	if it.done {
		return false
	}
	if err := it.fetch(); err != nil {
		it.err = err
		return false
	}
	return it.pos < len(it.page)
}

// Document returns the current record. Next must have returned true.
func (it *Iterator) Document() Document {
	doc := it.page[it.pos]
	it.pos++
	return doc
}

// Err returns the error that stopped the iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

func (it *Iterator) fetch() error {
	c := it.client

	ch, err := c.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	var raw string
	err = ch.Call("ArticleMeta.Documents", rpc.DocumentsRequest{
		Collection: it.collection,
		ISSN:       it.issn,
		From:       it.from,
		Limit:      c.pageSize,
	}, &raw)
	if err != nil {
		return err
	}

	var page []Document
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return err
	}

	c.logger.Debug("feed page read",
		"collection", it.collection, "issn", it.issn,
		"from", it.from, "documents", len(page))

	it.page = page
	it.pos = 0
	it.from += len(page)
	if len(page) < c.pageSize {
		it.done = true
	}
	return nil
}

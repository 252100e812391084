// Package citedby is the passthrough client for the citation index
// service. Responses are opaque JSON documents handed to the caller as-is;
// no local interpretation or caching happens here.
package citedby

import (
	"log/slog"

	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// Client queries the Citedby service.
type Client struct {
	channel rpc.Factory
	logger  *slog.Logger
}

// New creates a Citedby client over the given channel factory.
func New(channel rpc.Factory) *Client {
	return &Client{
		channel: channel,
		logger:  logger.WithComponent("citedby"),
	}
}

// CitedbyPID returns the citations of the document identified by its PID.
// With metaonly the backend omits the full citing records and returns
// metadata only.
func (c *Client) CitedbyPID(code string, metaonly bool) (string, error) {
	return c.call("Citedby.CitedbyPID", rpc.CitedbyPIDRequest{
		Code:     code,
		Metaonly: metaonly,
	})
}

// CitedbyMeta looks up citations by article metadata instead of PID: title,
// first author surname, and publication year.
func (c *Client) CitedbyMeta(title, authorSurname, year string, metaonly bool) (string, error) {
	return c.call("Citedby.CitedbyMeta", rpc.CitedbyMetaRequest{
		Title:         title,
		AuthorSurname: authorSurname,
		Year:          year,
		Metaonly:      metaonly,
	})
}

func (c *Client) call(method string, params any) (string, error) {
	ch, err := c.channel()
	if err != nil {
		return "", err
	}
	defer ch.Close()

	var raw string
	if err := ch.Call(method, params, &raw); err != nil {
		return "", err
	}
	return raw, nil
}

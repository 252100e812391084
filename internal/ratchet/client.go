// Package ratchet is the passthrough client for the usage-counter
// service. A ratchet record holds the raw access counters the exporters
// consolidate; this client does not interpret it.
package ratchet

import (
	"log/slog"

	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

// Client queries the RatchetStats service.
type Client struct {
	channel rpc.Factory
	logger  *slog.Logger
}

// New creates a RatchetStats client over the given channel factory.
func New(channel rpc.Factory) *Client {
	return &Client{
		channel: channel,
		logger:  logger.WithComponent("ratchet"),
	}
}

// Document returns the raw access-counter record for the given document
// code as an opaque JSON string.
func (c *Client) Document(code string) (string, error) {
	ch, err := c.channel()
	if err != nil {
		return "", err
	}
	defer ch.Close()

	var raw string
	if err := ch.Call("RatchetStats.General", rpc.GeneralRequest{Code: code}, &raw); err != nil {
		return "", err
	}
	return raw, nil
}

package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
	"github.com/scieloorg/journal-analytics/pkg/metrics"
)

// Client is a lightweight JSON-over-TCP RPC client. Transport failures are
// reported as ErrServiceUnavailable; errors reported by the remote service
// are reported as ErrServerError with the remote message attached.
type Client struct {
	conn        net.Conn
	encoder     *json.Encoder
	decoder     *json.Decoder
	callTimeout time.Duration
	metrics     *metrics.Metrics
	mu          sync.Mutex
	nextID      atomic.Int64
}

// DialOption configures a Client created by Dial.
type DialOption func(*dialOptions)

type dialOptions struct {
	dialTimeout time.Duration
	callTimeout time.Duration
	metrics     *metrics.Metrics
}

// WithDialTimeout bounds connection establishment.
func WithDialTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.dialTimeout = d }
}

// WithCallTimeout bounds each round trip via connection deadlines. The
// timeout lives here, at the transport boundary; the analytics clients
// impose none of their own.
func WithCallTimeout(d time.Duration) DialOption {
	return func(o *dialOptions) { o.callTimeout = d }
}

// WithMetrics instruments every call with the given collectors.
func WithMetrics(m *metrics.Metrics) DialOption {
	return func(o *dialOptions) { o.metrics = m }
}

// Dial connects to an RPC server at the given address.
func Dial(addr string, opts ...DialOption) (*Client, error) {
	var o dialOptions
	for _, opt := range opts {
		opt(&o)
	}
	conn, err := net.DialTimeout("tcp", addr, o.dialTimeout)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrServiceUnavailable, "dialing %s: %v", addr, err)
	}
	return &Client{
		conn:        conn,
		encoder:     json.NewEncoder(conn),
		decoder:     json.NewDecoder(conn),
		callTimeout: o.callTimeout,
		metrics:     o.metrics,
	}, nil
}

// Call invokes the named RPC method with params and decodes the response
// into result. Call is safe for concurrent use.
func (c *Client) Call(method string, params any, result any) error {
	start := time.Now()
	err := c.call(method, params, result)
	c.observe(method, start, err)
	return err
}

func (c *Client) call(method string, params any, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID.Add(1)

	raw, err := json.Marshal(params)
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidInput, "marshaling params for %s: %v", method, err)
	}

	req := Request{
		Method: method,
		ID:     fmt.Sprintf("%d", id),
		Params: raw,
	}

	if c.callTimeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.callTimeout)); err != nil {
			return apperrors.Newf(apperrors.ErrServiceUnavailable, "setting deadline: %v", err)
		}
	}

	if err := c.encoder.Encode(req); err != nil {
		return apperrors.Newf(apperrors.ErrServiceUnavailable, "sending %s request: %v", method, err)
	}

	var resp Response
	if err := c.decoder.Decode(&resp); err != nil {
		return apperrors.Newf(apperrors.ErrServiceUnavailable, "reading %s response: %v", method, err)
	}

	if resp.Error != "" {
		return apperrors.Newf(apperrors.ErrServerError, "%s: %s", method, resp.Error)
	}

	if result != nil {
		data, err := json.Marshal(resp.Data)
		if err != nil {
			return apperrors.Newf(apperrors.ErrServerError, "marshaling %s response data: %v", method, err)
		}
		if err := json.Unmarshal(data, result); err != nil {
			return apperrors.Newf(apperrors.ErrServerError, "unmarshaling %s result: %v", method, err)
		}
	}

	return nil
}

func (c *Client) observe(method string, start time.Time, err error) {
	if c.metrics == nil {
		return
	}
	service, name, ok := strings.Cut(method, ".")
	if !ok {
		service, name = "unknown", method
	}
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrServerError):
		status = "server_error"
	default:
		status = "unavailable"
	}
	c.metrics.RPCCallsTotal.WithLabelValues(service, name, status).Inc()
	c.metrics.RPCCallDuration.WithLabelValues(service, name).Observe(time.Since(start).Seconds())
}

// Close closes the underlying TCP connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

package rpc

import (
	"context"

	"github.com/scieloorg/journal-analytics/pkg/config"
	"github.com/scieloorg/journal-analytics/pkg/resilience"
)

// Factory produces a fresh channel to one backend service. The analytics
// clients hold a Factory instead of a connection: each public operation
// obtains a channel, performs one round trip, and closes it, so there is
// no cross-call state to protect.
type Factory func() (*Client, error)

// NewFactory returns a Factory that dials addr with the given transport
// settings. Dial retries and the per-call deadline both live here, at the
// transport boundary; the clients built on top never retry.
func NewFactory(addr string, rpcCfg config.RPCConfig, opts ...DialOption) Factory {
	opts = append([]DialOption{
		WithDialTimeout(rpcCfg.DialTimeout),
		WithCallTimeout(rpcCfg.CallTimeout),
	}, opts...)
	return func() (*Client, error) {
		var client *Client
		err := resilience.Retry(context.Background(), "dial "+addr, rpcCfg.DialRetry, func() error {
			var dialErr error
			client, dialErr = Dial(addr, opts...)
			return dialErr
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

// WithBreaker wraps a Factory with a circuit breaker so bulk exports fail
// fast when a backend stays down.
func WithBreaker(f Factory, b *resilience.Breaker) Factory {
	return func() (*Client, error) {
		var client *Client
		err := b.Execute(func() error {
			var dialErr error
			client, dialErr = f()
			return dialErr
		})
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}

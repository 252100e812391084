package ratchet

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/journal-analytics/pkg/config"
	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

func newFactory(t *testing.T, addr string) rpc.Factory {
	t.Helper()
	return rpc.NewFactory(addr, config.RPCConfig{
		DialTimeout: time.Second,
		CallTimeout: 5 * time.Second,
		DialRetry:   config.RetryConfig{MaxAttempts: 1},
	})
}

func TestDocument(t *testing.T) {
	var got json.RawMessage
	srv := rpc.NewServer()
	srv.Register("RatchetStats.General", func(ctx context.Context, raw json.RawMessage) (any, error) {
		got = append(json.RawMessage(nil), raw...)
		return `{"code": "S0034-89102010000400007", "total": 320, "y2015": {"total": 120}}`, nil
	})
	addr, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(srv.Stop)

	client := New(newFactory(t, addr))

	raw, err := client.Document("S0034-89102010000400007")
	require.NoError(t, err)

	assert.JSONEq(t, `{"code": "S0034-89102010000400007", "total": 320, "y2015": {"total": 120}}`, raw)
	assert.JSONEq(t, `{"code": "S0034-89102010000400007"}`, string(got))
}

func TestDocumentServerError(t *testing.T) {
	srv := rpc.NewServer()
	addr, err := srv.Listen("127.0.0.1:0")
	require.NoError(t, err)
	go srv.Serve()
	t.Cleanup(srv.Stop)

	client := New(newFactory(t, addr))

	_, err = client.Document("S0034-89102010000400007")
	assert.ErrorIs(t, err, apperrors.ErrServerError)
}

func TestDocumentServiceUnavailable(t *testing.T) {
	client := New(rpc.NewFactory("127.0.0.1:1", config.RPCConfig{
		DialTimeout: 200 * time.Millisecond,
		CallTimeout: time.Second,
		DialRetry:   config.RetryConfig{MaxAttempts: 1},
	}))

	_, err := client.Document("S0034-89102010000400007")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavailable)
}

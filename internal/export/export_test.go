package export

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
	"github.com/scieloorg/journal-analytics/internal/ratchet"
	"github.com/scieloorg/journal-analytics/pkg/config"
	"github.com/scieloorg/journal-analytics/pkg/rpc"
)

func testFactory(t *testing.T, srv *rpc.Server) rpc.Factory {
	t.Helper()
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

func feedOf(t *testing.T, docsByISSN map[string][]articlemeta.Document) rpc.Factory {
	t.Helper()
	srv := rpc.NewServer()
	srv.Register("ArticleMeta.Documents", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req rpc.DocumentsRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		docs := docsByISSN[req.ISSN]
		if req.From > len(docs) {
			docs = nil
		} else {
			docs = docs[req.From:]
		}
		if len(docs) > req.Limit {
			docs = docs[:req.Limit]
		}
		page, err := json.Marshal(docs)
		if err != nil {
			return nil, err
		}
		return string(page), nil
	})
	return testFactory(t, srv)
}

func TestExporterWritesHeaderAndRows(t *testing.T) {
	doc := sampleDocument()
	feed := articlemeta.New(feedOf(t, map[string][]articlemeta.Document{
		"0001-3765": {doc},
	}))

	var out strings.Builder
	exporter := NewExporter(feed, nil, 2)
	err := exporter.Run(context.Background(), "scl", []string{"0001-3765"}, NewCounts(fixedNow), &out)
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\r\n")
	require.Len(t, lines, 3) // header, one row, trailing terminator
	assert.True(t, strings.HasPrefix(lines[0], "extraction date,"))
	assert.True(t, strings.HasPrefix(lines[1], `"2016-08-10","documents","scl"`))
	assert.Empty(t, lines[2])
}

func TestExporterMultipleISSNs(t *testing.T) {
	docA := sampleDocument()
	docB := sampleDocument()
	docB.PublisherID = "S0034-89102016000100001"
	docB.Journal.SciELOISSN = "0034-8910"

	feed := articlemeta.New(feedOf(t, map[string][]articlemeta.Document{
		"0001-3765": {docA},
		"0034-8910": {docB},
	}))

	var out strings.Builder
	exporter := NewExporter(feed, nil, 2)
	err := exporter.Run(context.Background(), "scl", []string{"0001-3765", "0034-8910"}, NewLicenses(fixedNow), &out)
	require.NoError(t, err)

	content := out.String()
	assert.Contains(t, content, docA.PublisherID)
	assert.Contains(t, content, docB.PublisherID)
	assert.Equal(t, 3, strings.Count(content, "\r\n"))
}

func TestExporterFeedFailure(t *testing.T) {
	feed := articlemeta.New(rpc.NewFactory("127.0.0.1:1", config.RPCConfig{
		DialTimeout: 200 * time.Millisecond,
		CallTimeout: time.Second,
		DialRetry:   config.RetryConfig{MaxAttempts: 1},
	}))

	var out strings.Builder
	exporter := NewExporter(feed, nil, 1)
	err := exporter.Run(context.Background(), "scl", nil, NewCounts(fixedNow), &out)
	assert.Error(t, err)
}

func TestAccessesEndToEnd(t *testing.T) {
	doc := sampleDocument()
	feed := articlemeta.New(feedOf(t, map[string][]articlemeta.Document{
		"0001-3765": {doc},
	}))

	// Counters exist under the PID only; every other eligible key has no
	// record.
	counterSrv := rpc.NewServer()
	counterSrv.Register("RatchetStats.General", func(ctx context.Context, raw json.RawMessage) (any, error) {
		var req rpc.GeneralRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, err
		}
		if req.Code != doc.PublisherID {
			return `{"objects": []}`, nil
		}
		return `{"objects": [{
			"code": "S0001-37652016000200301",
			"html": {"y2016": {"m04": {"total": 12}, "m05": {"total": 3}}},
			"pdf": {"y2016": {"m04": {"total": 8}}}
		}]}`, nil
	})
	counters := ratchet.New(testFactory(t, counterSrv))

	tab := NewAccesses(counters, AccessesOptions{
		From:  "2016-01-01",
		Until: "2016-12-31",
		Now:   fixedNow,
	})

	var out strings.Builder
	exporter := NewExporter(feed, nil, 1)
	err := exporter.Run(context.Background(), "scl", []string{"0001-3765"}, tab, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out.String(), "\r\n"), "\r\n")
	require.Len(t, lines, 3) // header + one row per accessed month

	assert.True(t, strings.HasPrefix(lines[0], `"extraction date",`))
	assert.Contains(t, lines[1],
		`"2016-04-01T00:00:00","2016","04","0","12","8","0","20"`)
	assert.Contains(t, lines[2],
		`"2016-05-01T00:00:00","2016","05","0","3","0","0","3"`)
	// Journal columns carried onto every accesses row.
	assert.Contains(t, lines[1], `"An. Acad. Bras. Cienc., 2016, v88n2"`)
	assert.Contains(t, lines[1], `"Biological Sciences, Multidisciplinary"`)
}

func TestAccessesJSONFormat(t *testing.T) {
	doc := sampleDocument()

	counterSrv := rpc.NewServer()
	counterSrv.Register("RatchetStats.General", func(ctx context.Context, raw json.RawMessage) (any, error) {
		return `{"objects": [{"html": {"y2016": {"m04": {"total": 5}}}}]}`, nil
	})
	counters := ratchet.New(testFactory(t, counterSrv))

	tab := NewAccesses(counters, AccessesOptions{
		From:   "2016-01-01",
		Until:  "2016-12-31",
		Format: FormatJSON,
		Now:    fixedNow,
	})

	assert.Empty(t, tab.Header())

	lines, err := tab.DocumentLines(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, lines, 1)

	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &record))
	assert.Equal(t, "scl_S0001-37652016000200301", record["id"])
	assert.Equal(t, "2016-04-01T00:00:00", record["access_date"])
	// Each eligible key contributes its counters once per record; this
	// fake returns the same record for every key, so totals multiply by
	// the key count.
	keys := float64(len(doc.EligibleMatchKeys()))
	assert.Equal(t, 5*keys, record["access_html"])
}

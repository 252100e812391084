// Package export produces the tabular dumps of the document feed: access
// statistics, author/page/citation counts, licenses, and editorial dates.
// Each tabulation writes one CSV row per document (or per document-month
// for accesses) in the published format: quoted fields with doubled
// quotes, comma separator, CRLF line endings.
package export

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
	"github.com/scieloorg/journal-analytics/pkg/logger"
	"github.com/scieloorg/journal-analytics/pkg/metrics"
)

// Tabulator turns one document record into output lines. Header returns
// the formatted header line, or "" when the format has none.
type Tabulator interface {
	Unit() string
	Header() string
	DocumentLines(ctx context.Context, doc articlemeta.Document) ([]string, error)
}

// Exporter drives a Tabulator over the document feed. ISSNs are processed
// concurrently by a bounded worker group; each worker walks its own feed
// iterator, and a single collector serializes the output lines.
type Exporter struct {
	feed    *articlemeta.Client
	metrics *metrics.Metrics
	workers int
	logger  *slog.Logger
}

// NewExporter creates an Exporter over the given feed client. workers
// bounds ISSN-level concurrency; metrics may be nil.
func NewExporter(feed *articlemeta.Client, m *metrics.Metrics, workers int) *Exporter {
	if workers < 1 {
		workers = 1
	}
	return &Exporter{
		feed:    feed,
		metrics: m,
		workers: workers,
		logger:  logger.WithComponent("export"),
	}
}

// Run exports every document of the collection restricted to the given
// ISSNs (none means the whole collection) through tab, writing lines to
// out. Documents that fail to tabulate are logged, counted, and skipped;
// feed errors abort the run.
func (e *Exporter) Run(ctx context.Context, collection string, issns []string, tab Tabulator, out io.Writer) error {
	if header := tab.Header(); header != "" {
		if _, err := io.WriteString(out, header+"\r\n"); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	if len(issns) == 0 {
		issns = []string{""}
	}

	lines := make(chan string, 64)
	done := make(chan struct{})
	var writeErr error
	go func() {
		defer close(done)
		for line := range lines {
			if writeErr != nil {
				continue // drain
			}
			if _, err := io.WriteString(out, line+"\r\n"); err != nil {
				writeErr = err
				continue
			}
			if e.metrics != nil {
				e.metrics.ExportRowsTotal.WithLabelValues(tab.Unit()).Inc()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for _, issn := range issns {
		issn := issn
		g.Go(func() error {
			return e.exportISSN(gctx, collection, issn, tab, lines)
		})
	}

	err := g.Wait()
	close(lines)
	<-done

	if err != nil {
		return err
	}
	return writeErr
}

func (e *Exporter) exportISSN(ctx context.Context, collection, issn string, tab Tabulator, lines chan<- string) error {
	it := e.feed.Documents(collection, issn)
	for it.Next() {
		doc := it.Document()
		if e.metrics != nil {
			e.metrics.DocumentsRead.Inc()
		}
		e.logger.Debug("reading document", "pid", doc.PublisherID)

		docLines, err := tab.DocumentLines(ctx, doc)
		if err != nil {
			e.logger.Error("skipping document",
				"pid", doc.PublisherID, "collection", doc.Collection, "error", err)
			if e.metrics != nil {
				e.metrics.ExportErrorsTotal.WithLabelValues(tab.Unit()).Inc()
			}
			continue
		}
		for _, line := range docLines {
			select {
			case lines <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return it.Err()
}

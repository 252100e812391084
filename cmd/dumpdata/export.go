package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/scieloorg/journal-analytics/internal/articlemeta"
	"github.com/scieloorg/journal-analytics/internal/export"
	"github.com/scieloorg/journal-analytics/internal/ratchet"
	"github.com/scieloorg/journal-analytics/pkg/config"
	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
)

// exportFlags are the flags every export subcommand shares. Positional
// arguments are ISSNs; none means the whole collection.
type exportFlags struct {
	collection string
	output     string
}

func (f *exportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.collection, "collection", "c", "", "collection acronym")
	cmd.Flags().StringVarP(&f.output, "output", "r", "", "file to receive the dumped data (stdout when empty)")
	cmd.MarkFlagRequired("collection")
}

// runExport wires the feed client, runs the preflight, and drives the
// tabulation over every requested ISSN.
func runExport(cmd *cobra.Command, a *app, flags *exportFlags, issns []string, tab export.Tabulator, extraServices map[string]config.Endpoint) error {
	ctx := cmd.Context()

	services := map[string]config.Endpoint{
		"articlemeta": a.cfg.Services.ArticleMeta,
	}
	for name, ep := range extraServices {
		services[name] = ep
	}
	if err := a.preflight(ctx, services); err != nil {
		return err
	}

	out, closeOut, err := openOutput(flags.output)
	if err != nil {
		return err
	}

	feed := articlemeta.New(
		a.exportFactory("articlemeta", a.cfg.Services.ArticleMeta),
		articlemeta.WithPageSize(a.cfg.Export.BatchSize),
	)
	exporter := export.NewExporter(feed, a.metrics, a.cfg.Export.Workers)
	if err := exporter.Run(ctx, flags.collection, issns, tab, out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func newCountsCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "counts [issn...]",
		Short: "Dump author, page, and reference counts per document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, flags, args, export.NewCounts(nil), nil)
		},
	}
	flags.register(cmd)
	return cmd
}

func newLicensesCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "licenses [issn...]",
		Short: "Dump the publishing license of each document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, flags, args, export.NewLicenses(nil), nil)
		},
	}
	flags.register(cmd)
	return cmd
}

func newDatesCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	cmd := &cobra.Command{
		Use:   "dates [issn...]",
		Short: "Dump the editorial timeline of each document",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, a, flags, args, export.NewDates(nil), nil)
		},
	}
	flags.register(cmd)
	return cmd
}

func newAccessesCmd(a *app) *cobra.Command {
	flags := &exportFlags{}
	var (
		from   string
		until  string
		daily  bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "accesses [issn...]",
		Short: "Dump document metadata joined with consolidated access counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, date := range []string{from, until} {
				if date == "" {
					continue
				}
				if _, err := time.Parse("2006-01-02", date); err != nil {
					return apperrors.Newf(apperrors.ErrInvalidInput, "invalid date %q, want YYYY-MM-DD", date)
				}
			}
			if format != string(export.FormatCSV) && format != string(export.FormatJSON) {
				return apperrors.Newf(apperrors.ErrInvalidInput, "invalid format %q, want csv or json", format)
			}

			counters := ratchet.New(a.exportFactory("ratchet", a.cfg.Services.Ratchet))
			tab := export.NewAccesses(counters, export.AccessesOptions{
				From:   from,
				Until:  until,
				Daily:  daily,
				Format: export.Format(format),
			})
			return runExport(cmd, a, flags, args, tab, map[string]config.Endpoint{
				"ratchet": a.cfg.Services.Ratchet,
			})
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVarP(&from, "from", "b", "", "start of the accesses period (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&until, "until", "u", "", "end of the accesses period (YYYY-MM-DD)")
	cmd.Flags().BoolVarP(&daily, "daily", "d", false, "consolidate accesses per day instead of per month")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "output format (csv or json)")
	return cmd
}

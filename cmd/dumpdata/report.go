package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scieloorg/journal-analytics/internal/accessstats"
	"github.com/scieloorg/journal-analytics/internal/publication"
	"github.com/scieloorg/journal-analytics/pkg/config"
	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
)

// journalReport is the aggregated analytics snapshot of one journal.
type journalReport struct {
	ISSN            string                      `json:"issn"`
	Collection      string                      `json:"collection"`
	Articles        int64                       `json:"articles"`
	Issues          int64                       `json:"issues"`
	ArticlesByYear  []publication.YearCount     `json:"articles_by_year"`
	IssuesByYear    []publication.YearCount     `json:"issues_by_year"`
	LanguagesByYear []publication.YearLanguages `json:"languages_by_year"`
	FirstDocument   json.RawMessage             `json:"first_document,omitempty"`
	LastDocument    json.RawMessage             `json:"last_document,omitempty"`
	AccessLifetime  []accessstats.LifetimePoint `json:"access_lifetime"`
}

func newReportCmd(a *app) *cobra.Command {
	var (
		collection string
		years      int
		output     string
	)
	cmd := &cobra.Command{
		Use:   "report <issn>",
		Short: "Print an analytics snapshot of one journal as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			issn := args[0]
			ctx := cmd.Context()

			err := a.preflight(ctx, map[string]config.Endpoint{
				"publicationstats": a.cfg.Services.PublicationStats,
				"accessstats":      a.cfg.Services.AccessStats,
			})
			if err != nil {
				return err
			}

			pubs := publication.New(a.factory(a.cfg.Services.PublicationStats))
			accesses := accessstats.New(a.factory(a.cfg.Services.AccessStats))

			report := journalReport{ISSN: issn, Collection: collection}

			if report.Articles, err = pubs.NumberOfArticles(issn, collection); err != nil {
				return err
			}
			if report.Issues, err = pubs.NumberOfIssues(issn, collection, ""); err != nil {
				return err
			}
			if report.ArticlesByYear, err = pubs.NumberOfArticlesByYear(issn, collection, nil, years); err != nil {
				return err
			}
			if report.IssuesByYear, err = pubs.NumberOfIssuesByYear(issn, collection, years, ""); err != nil {
				return err
			}
			if report.LanguagesByYear, err = pubs.DocumentsLanguagesByYear(issn, collection, years); err != nil {
				return err
			}
			// A journal without any included document is still reportable.
			if report.FirstDocument, err = pubs.FirstIncludedDocumentByJournal(issn, collection); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if report.LastDocument, err = pubs.LastIncludedDocumentByJournal(issn, collection); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			if report.AccessLifetime, err = accesses.AccessLifetime(issn, collection); err != nil {
				return err
			}

			out, closeOut, err := openOutput(output)
			if err != nil {
				return err
			}
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(report); err != nil {
				closeOut()
				return fmt.Errorf("encoding report: %w", err)
			}
			return closeOut()
		},
	}
	cmd.Flags().StringVarP(&collection, "collection", "c", "", "collection acronym")
	cmd.Flags().IntVarP(&years, "years", "y", 5, "how many recent years the per-year series cover")
	cmd.Flags().StringVarP(&output, "output", "r", "", "file to receive the report (stdout when empty)")
	cmd.MarkFlagRequired("collection")
	return cmd
}

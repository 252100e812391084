// Command dumpdata exports tabulations of the document feed (accesses,
// counts, licenses, dates) and runs per-journal analytics reports against
// the backend services.
package main

import (
	"os"

	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(apperrors.ExitCode(err))
	}
}

package publication

import "github.com/scieloorg/journal-analytics/internal/search"

// LanguageCounts is a per-year language breakdown. Anything that is not
// Portuguese, English, or Spanish accumulates into Other.
type LanguageCounts struct {
	PT    int64 `json:"pt"`
	EN    int64 `json:"en"`
	ES    int64 `json:"es"`
	Other int64 `json:"other"`
}

// YearLanguages is one entry of a language-by-year series.
type YearLanguages struct {
	Year      string         `json:"year"`
	Languages LanguageCounts `json:"languages"`
}

// YearCount is one entry of a count-by-year series.
type YearCount struct {
	Year  string `json:"year"`
	Count int64  `json:"count"`
}

// reduceLanguagesByYear merges the response's year buckets into the
// canonical window. The window is authoritative: years outside it are
// dropped, years without data stay zero-filled.
func reduceLanguagesByYear(result search.Result, window []string) []YearLanguages {
	sparse := make(map[string]LanguageCounts)
	for _, bucket := range result.Aggregation("publication_year").Buckets {
		var counts LanguageCounts
		for _, lang := range bucket.Sub("languages").Buckets {
			switch lang.Key {
			case "pt":
				counts.PT += lang.DocCount
			case "en":
				counts.EN += lang.DocCount
			case "es":
				counts.ES += lang.DocCount
			default:
				counts.Other += lang.DocCount
			}
		}
		sparse[bucket.Key] = counts
	}

	series := make([]YearLanguages, 0, len(window))
	for _, entry := range search.FillYearWindow(window, sparse) {
		series = append(series, YearLanguages{Year: entry.Year, Languages: entry.Value})
	}
	return series
}

// reduceCountByYear merges per-year metric values into the canonical
// window. A bucket without the named metric counts as zero.
func reduceCountByYear(result search.Result, window []string, metric string) []YearCount {
	sparse := make(map[string]int64)
	for _, bucket := range result.Aggregation("publication_year").Buckets {
		sparse[bucket.Key] = bucket.Sub(metric).IntValue()
	}

	series := make([]YearCount, 0, len(window))
	for _, entry := range search.FillYearWindow(window, sparse) {
		series = append(series, YearCount{Year: entry.Year, Count: entry.Value})
	}
	return series
}

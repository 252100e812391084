package export

import "strings"

// QuoteRow joins fields into one CSV line with every field quoted and
// embedded quotes doubled. Lines are terminated with CRLF by the writer,
// not here.
func QuoteRow(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}

// RawRow joins fields without quoting. The counts and licenses tabulations
// emit their header rows this way while quoting the data rows; the quirk
// is part of the published format and is preserved.
func RawRow(fields []string) string {
	return strings.Join(fields, ",")
}

// SplitDate splits an ISO-ish date into its year, month, and day parts.
// Missing components come back empty: "2016-03" yields ("2016", "03", "").
func SplitDate(date string) (year, month, day string) {
	parts := strings.SplitN(date, "-", 3)
	switch len(parts) {
	case 3:
		day = parts[2]
		fallthrough
	case 2:
		month = parts[1]
		fallthrough
	case 1:
		year = parts[0]
	}
	return year, month, day
}

// indicator renders a boolean as the "1"/"0" column value the
// tabulations use.
func indicator(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

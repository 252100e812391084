package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteRow(t *testing.T) {
	assert.Equal(t, `"a","b"`, QuoteRow([]string{"a", "b"}))
	assert.Equal(t, `""`, QuoteRow([]string{""}))
	assert.Equal(t, `"say ""hi"", twice"`, QuoteRow([]string{`say "hi", twice`}))
}

func TestRawRow(t *testing.T) {
	assert.Equal(t, "extraction date,study unit", RawRow([]string{"extraction date", "study unit"}))
}

func TestSplitDate(t *testing.T) {
	cases := []struct {
		date             string
		year, month, day string
	}{
		{"2016-03-01", "2016", "03", "01"},
		{"2016-03", "2016", "03", ""},
		{"2016", "2016", "", ""},
		{"", "", "", ""},
	}
	for _, tc := range cases {
		year, month, day := SplitDate(tc.date)
		assert.Equal(t, tc.year, year, tc.date)
		assert.Equal(t, tc.month, month, tc.date)
		assert.Equal(t, tc.day, day, tc.date)
	}
}

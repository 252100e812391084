package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const usageFixture = `{
	"objects": [{
		"code": "S0102-67202009000300001",
		"total": 60,
		"html": {
			"total": 40,
			"y2015": {
				"total": 40,
				"m01": {"total": 30, "d03": 10, "d04": 20},
				"m02": {"total": 10, "d10": 10}
			}
		},
		"pdf": {
			"total": 20,
			"y2015": {
				"total": 15,
				"m01": {"total": 15, "d03": 15}
			},
			"y2016": {
				"total": 5,
				"m06": {"total": 5, "d01": 5}
			}
		}
	}]
}`

func TestJoinUsageMonthly(t *testing.T) {
	records, err := parseUsage(usageFixture)
	require.NoError(t, err)

	entries := joinUsage(records, "1500-01-01", "2016-12-31", false)

	assert.Equal(t, []AccessEntry{
		{Date: "2015-01", Counts: RenditionCounts{HTML: 30, PDF: 15}},
		{Date: "2015-02", Counts: RenditionCounts{HTML: 10}},
		{Date: "2016-06", Counts: RenditionCounts{PDF: 5}},
	}, entries)
	assert.Equal(t, int64(45), entries[0].Counts.Total())
}

func TestJoinUsageWindow(t *testing.T) {
	records, err := parseUsage(usageFixture)
	require.NoError(t, err)

	entries := joinUsage(records, "2015-02-01", "2015-12-31", false)

	assert.Equal(t, []AccessEntry{
		{Date: "2015-02", Counts: RenditionCounts{HTML: 10}},
	}, entries)
}

func TestJoinUsageDaily(t *testing.T) {
	records, err := parseUsage(usageFixture)
	require.NoError(t, err)

	entries := joinUsage(records, "2015-01-01", "2015-01-31", true)

	assert.Equal(t, []AccessEntry{
		{Date: "2015-01-03", Counts: RenditionCounts{HTML: 10, PDF: 15}},
		{Date: "2015-01-04", Counts: RenditionCounts{HTML: 20}},
	}, entries)
}

func TestJoinUsageConsolidatesKeys(t *testing.T) {
	// The same document counted under its PID and its legacy FBPE key:
	// periods sum across records.
	pid, err := parseUsage(`{"objects": [{"html": {"y2015": {"m01": {"total": 7}}}}]}`)
	require.NoError(t, err)
	fbpe, err := parseUsage(`{"objects": [{"html": {"y2015": {"m01": {"total": 3}}}}]}`)
	require.NoError(t, err)

	entries := joinUsage(append(pid, fbpe...), "1500-01-01", "2016-12-31", false)

	assert.Equal(t, []AccessEntry{
		{Date: "2015-01", Counts: RenditionCounts{HTML: 10}},
	}, entries)
}

func TestParseUsageNoObjects(t *testing.T) {
	records, err := parseUsage(`{"objects": []}`)
	require.NoError(t, err)
	assert.Empty(t, records)

	entries := joinUsage(records, "1500-01-01", "2016-12-31", false)
	assert.Empty(t, entries)
}

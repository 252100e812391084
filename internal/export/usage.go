package export

import (
	"encoding/json"
	"sort"
)

// usageNode is one level of a usage-counter record: a total plus nested
// period entries (years keyed yYYYY, months mMM, days dDD). Leaf days are
// bare numbers.
type usageNode struct {
	total   int64
	periods map[string]usageNode
}

func (n *usageNode) UnmarshalJSON(data []byte) error {
	var leaf int64
	if err := json.Unmarshal(data, &leaf); err == nil {
		n.total = leaf
		return nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil // non-counter member (code, strings), ignore
	}
	for key, raw := range fields {
		if key == "total" {
			json.Unmarshal(raw, &n.total)
			continue
		}
		var child usageNode
		if err := json.Unmarshal(raw, &child); err != nil {
			continue
		}
		if n.periods == nil {
			n.periods = make(map[string]usageNode)
		}
		n.periods[key] = child
	}
	return nil
}

// usageRecord is one object of a RatchetStats response: access counters
// per rendition type.
type usageRecord map[string]usageNode

// usageRenditions maps counter-record keys to the rendition they count.
// Every other key in a record is ignored.
var usageRenditions = []string{"abstract", "html", "pdf", "readcube"}

// parseUsage decodes a raw RatchetStats response body.
func parseUsage(raw string) ([]usageRecord, error) {
	var envelope struct {
		Objects []usageRecord `json:"objects"`
	}
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, err
	}
	return envelope.Objects, nil
}

// RenditionCounts are the consolidated accesses of one period.
type RenditionCounts struct {
	Abstract int64 `json:"access_abstract"`
	HTML     int64 `json:"access_html"`
	PDF      int64 `json:"access_pdf"`
	EPDF     int64 `json:"access_epdf"`
}

// Total sums all renditions.
func (c RenditionCounts) Total() int64 {
	return c.Abstract + c.HTML + c.PDF + c.EPDF
}

func (c *RenditionCounts) add(rendition string, n int64) {
	switch rendition {
	case "abstract":
		c.Abstract += n
	case "html":
		c.HTML += n
	case "pdf":
		c.PDF += n
	case "readcube":
		c.EPDF += n
	}
}

// AccessEntry is one consolidated period of a document's accesses. Date is
// "YYYY-MM" for monthly granularity, "YYYY-MM-DD" for daily.
type AccessEntry struct {
	Date   string
	Counts RenditionCounts
}

func monthOf(date string) string {
	if len(date) > 7 {
		return date[:7]
	}
	return date
}

// joinUsage consolidates one or more usage-counter records (a document may
// be counted under several keys) into per-period totals within the
// [from, until] window, sorted by period.
func joinUsage(records []usageRecord, from, until string, daily bool) []AccessEntry {
	joined := make(map[string]*RenditionCounts)
	at := func(date string) *RenditionCounts {
		c, ok := joined[date]
		if !ok {
			c = &RenditionCounts{}
			joined[date] = c
		}
		return c
	}

	for _, record := range records {
		for _, rendition := range usageRenditions {
			node, ok := record[rendition]
			if !ok {
				continue
			}
			for yearKey, yearNode := range node.periods {
				year := yearKey[1:]
				for monthKey, monthNode := range yearNode.periods {
					month := year + "-" + monthKey[1:]
					if !daily {
						if month >= monthOf(from) && month <= monthOf(until) {
							at(month).add(rendition, monthNode.total)
						}
						continue
					}
					for dayKey, dayNode := range monthNode.periods {
						day := month + "-" + dayKey[1:]
						if day >= from && day <= until {
							at(day).add(rendition, dayNode.total)
						}
					}
				}
			}
		}
	}

	entries := make([]AccessEntry, 0, len(joined))
	for date, counts := range joined {
		entries = append(entries, AccessEntry{Date: date, Counts: *counts})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Date < entries[j].Date })
	return entries
}

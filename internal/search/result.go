package search

import (
	"encoding/json"
	"strconv"
)

// Result is the backend's response document: a tree of named aggregations
// and, for document lookups, a list of raw hits. Decoding is lenient by
// design: a query may legitimately match nothing, so missing keys read as
// zero values rather than failing.
type Result struct {
	Aggregations map[string]Aggregation `json:"aggregations"`
	Hits         Hits                   `json:"hits"`
}

// Hits is the envelope around raw result records.
type Hits struct {
	Hits []Hit `json:"hits"`
}

// Hit is a single raw document in a lookup result.
type Hit struct {
	Source json.RawMessage `json:"_source"`
}

// Aggregation is either a metric (Value set) or a bucketed sub-aggregation
// (Buckets set).
type Aggregation struct {
	Value   float64  `json:"value"`
	Buckets []Bucket `json:"buckets"`
}

// IntValue returns the metric value truncated to an integer count.
func (a Aggregation) IntValue() int64 {
	return int64(a.Value)
}

// Bucket is one group of an aggregation: a key, its document count, and
// any nested metric or bucket aggregations keyed by name.
type Bucket struct {
	Key      string
	DocCount int64
	subs     map[string]Aggregation
}

// Sub returns the named nested aggregation, or a zero Aggregation when the
// backend did not include it.
func (b Bucket) Sub(name string) Aggregation {
	return b.subs[name]
}

// UnmarshalJSON decodes a bucket's fixed fields and gathers every other
// member as a nested aggregation. Numeric keys are normalized to their
// decimal string form so year buckets compare uniformly.
func (b *Bucket) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for name, raw := range fields {
		switch name {
		case "key":
			b.Key = flexibleKey(raw)
		case "doc_count":
			var n int64
			if err := json.Unmarshal(raw, &n); err == nil {
				b.DocCount = n
			}
		default:
			var agg Aggregation
			if err := json.Unmarshal(raw, &agg); err != nil {
				continue // non-aggregation sibling, ignore
			}
			if b.subs == nil {
				b.subs = make(map[string]Aggregation)
			}
			b.subs[name] = agg
		}
	}
	return nil
}

func flexibleKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return string(raw)
}

// ParseResult decodes a backend response body.
func ParseResult(body string) (Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Aggregation returns the named top-level aggregation, or a zero value
// when absent.
func (r Result) Aggregation(name string) Aggregation {
	return r.Aggregations[name]
}

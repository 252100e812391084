// Package search defines the typed query and result documents exchanged
// with the bibliographic search backend, and the year-window helpers shared
// by the statistic reducers.
//
// Queries are immutable value objects assembled through option functions;
// malformed aggregation trees are rejected at construction instead of by
// the backend.
package search

import (
	"encoding/json"
	"fmt"

	apperrors "github.com/scieloorg/journal-analytics/pkg/errors"
)

// UnboundedBuckets asks the backend for every bucket of a terms
// aggregation. The backend treats a zero bucket size as "no cap"; that
// convention is pinned here instead of being assumed at call sites.
const UnboundedBuckets = 0

// OrderByTerm orders a terms aggregation by the bucket key itself,
// descending, instead of by a sibling metric.
const OrderByTerm = "_term"

// Query is an immutable search request: exact-match filters, an optional
// OR-filter, an optional existence filter, an aggregation tree, a result
// size cap, and an optional sort for document lookups.
type Query struct {
	must   []term
	should []term
	exists string
	aggs   map[string]Agg
	size   int
	sort   []sortClause
}

type term struct {
	field string
	value string
}

type sortClause struct {
	field string
	order string
}

// Option configures a Query under construction.
type Option func(*Query)

// Match adds an exact-match term filter.
func Match(field, value string) Option {
	return func(q *Query) {
		q.must = append(q.must, term{field: field, value: value})
	}
}

// MatchAny adds an OR-filter matching any of the given values.
func MatchAny(field string, values ...string) Option {
	return func(q *Query) {
		for _, v := range values {
			q.should = append(q.should, term{field: field, value: v})
		}
	}
}

// Exists requires the given field to be present on matching documents.
func Exists(field string) Option {
	return func(q *Query) { q.exists = field }
}

// Size caps the number of returned hits. Aggregation-only queries use 0.
func Size(n int) Option {
	return func(q *Query) { q.size = n }
}

// SortBy appends a sort clause; order is "asc" or "desc".
func SortBy(field, order string) Option {
	return func(q *Query) {
		q.sort = append(q.sort, sortClause{field: field, order: order})
	}
}

// WithAgg attaches a named aggregation to the query root.
func WithAgg(name string, agg Agg) Option {
	return func(q *Query) {
		if q.aggs == nil {
			q.aggs = make(map[string]Agg)
		}
		q.aggs[name] = agg
	}
}

// New builds a Query and validates its aggregation tree.
func New(opts ...Option) (Query, error) {
	var q Query
	for _, opt := range opts {
		opt(&q)
	}
	for name, agg := range q.aggs {
		if err := agg.validate(name); err != nil {
			return Query{}, err
		}
	}
	return q, nil
}

// Body serializes the query to the backend's JSON request format.
func (q Query) Body() (string, error) {
	data, err := json.Marshal(q.document())
	if err != nil {
		return "", fmt.Errorf("marshaling query: %w", err)
	}
	return string(data), nil
}

func (q Query) document() map[string]any {
	boolClause := map[string]any{}
	must := make([]any, 0, len(q.must))
	for _, t := range q.must {
		must = append(must, map[string]any{"match": map[string]any{t.field: t.value}})
	}
	boolClause["must"] = must
	if len(q.should) > 0 {
		should := make([]any, 0, len(q.should))
		for _, t := range q.should {
			should = append(should, map[string]any{"match": map[string]any{t.field: t.value}})
		}
		boolClause["should"] = should
	}
	if q.exists != "" {
		boolClause["filter"] = map[string]any{"exists": map[string]any{"field": q.exists}}
	}

	doc := map[string]any{
		"query": map[string]any{"bool": boolClause},
		"size":  q.size,
	}
	if len(q.aggs) > 0 {
		aggs := make(map[string]any, len(q.aggs))
		for name, agg := range q.aggs {
			aggs[name] = agg.document()
		}
		doc["aggs"] = aggs
	}
	if len(q.sort) > 0 {
		sort := make([]any, 0, len(q.sort))
		for _, s := range q.sort {
			sort = append(sort, map[string]any{s.field: map[string]any{"order": s.order}})
		}
		doc["sort"] = sort
	}
	return doc
}

type aggKind int

const (
	aggTerms aggKind = iota
	aggSum
	aggCardinality
)

// Agg is one node of an aggregation tree: a terms bucketing with optional
// sub-aggregations, or a sum/cardinality metric leaf.
type Agg struct {
	kind    aggKind
	field   string
	size    int
	orderBy string
	subs    map[string]Agg
}

// Sum creates a sum metric over the given field.
func Sum(field string) Agg {
	return Agg{kind: aggSum, field: field}
}

// Cardinality creates an approximate distinct-count metric over the field.
func Cardinality(field string) Agg {
	return Agg{kind: aggCardinality, field: field}
}

// TermsBuckets groups documents by field value. size caps the bucket count
// (UnboundedBuckets for all). orderBy is OrderByTerm or the name of a
// metric in subs; it may be empty only for non-year fields.
func TermsBuckets(field string, size int, orderBy string, subs map[string]Agg) Agg {
	return Agg{kind: aggTerms, field: field, size: size, orderBy: orderBy, subs: subs}
}

// yearFields are the bucket fields whose ordering must always be declared.
var yearFields = map[string]bool{
	"publication_year": true,
	"access_year":      true,
}

func (a Agg) validate(name string) error {
	if a.kind != aggTerms {
		return nil
	}
	if yearFields[a.field] && a.orderBy == "" {
		return apperrors.Newf(apperrors.ErrInvalidInput,
			"aggregation %q buckets by %s without declaring an order", name, a.field)
	}
	if a.orderBy != "" && a.orderBy != OrderByTerm {
		sub, ok := a.subs[a.orderBy]
		if !ok || sub.kind == aggTerms {
			return apperrors.Newf(apperrors.ErrInvalidInput,
				"aggregation %q orders by %q, which is not a sibling metric", name, a.orderBy)
		}
	}
	for subName, sub := range a.subs {
		if err := sub.validate(subName); err != nil {
			return err
		}
	}
	return nil
}

func (a Agg) document() map[string]any {
	switch a.kind {
	case aggSum:
		return map[string]any{"sum": map[string]any{"field": a.field}}
	case aggCardinality:
		return map[string]any{"cardinality": map[string]any{"field": a.field}}
	default:
		terms := map[string]any{
			"field": a.field,
			"size":  a.size,
		}
		if a.orderBy != "" {
			terms["order"] = map[string]any{a.orderBy: "desc"}
		}
		doc := map[string]any{"terms": terms}
		if len(a.subs) > 0 {
			subs := make(map[string]any, len(a.subs))
			for name, sub := range a.subs {
				subs[name] = sub.document()
			}
			doc["aggs"] = subs
		}
		return doc
	}
}

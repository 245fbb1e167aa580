package domain

import orderedmap "github.com/wk8/go-ordered-map/v2"

// OrderedResults maps query strings to per-query results, iterating in
// insertion order. Replacing a key keeps its original position.
type OrderedResults[V any] struct {
	m *orderedmap.OrderedMap[string, V]
}

type (
	CandidateSet    = OrderedResults[[]Fragment]
	SubqueryResults = OrderedResults[[]RankedFragment]
)

func NewOrderedResults[V any]() *OrderedResults[V] {
	return &OrderedResults[V]{m: orderedmap.New[string, V]()}
}

func NewCandidateSet() *CandidateSet {
	return NewOrderedResults[[]Fragment]()
}

func NewSubqueryResults() *SubqueryResults {
	return NewOrderedResults[[]RankedFragment]()
}

func (r *OrderedResults[V]) Set(query string, value V) {
	r.m.Set(query, value)
}

func (r *OrderedResults[V]) Get(query string) (V, bool) {
	return r.m.Get(query)
}

func (r *OrderedResults[V]) Len() int {
	if r == nil || r.m == nil {
		return 0
	}
	return r.m.Len()
}

func (r *OrderedResults[V]) Queries() []string {
	out := make([]string, 0, r.Len())
	r.Each(func(query string, _ V) {
		out = append(out, query)
	})
	return out
}

// Each visits entries in insertion order.
func (r *OrderedResults[V]) Each(fn func(query string, value V)) {
	if r == nil || r.m == nil {
		return
	}
	for pair := r.m.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

package morceus

import (
	"cmp"
	"slices"
)

// Trie maps strings to value lists, keyed rune by rune. Nodes live in a
// single arena and refer to each other by index; the children of a node are
// kept sorted by rune.
//
// A Trie is not safe for concurrent mutation. Once built it is only read,
// and concurrent Find calls need no locking.
type Trie[T any] struct {
	nodes []trieNode[T]
}

type trieNode[T any] struct {
	children []trieEdge
	values   []T
}

type trieEdge struct {
	r    rune
	next int32
}

const trieRoot = 0

// NewTrie returns an empty trie holding only its root.
func NewTrie[T any]() *Trie[T] {
	return &Trie[T]{nodes: make([]trieNode[T], 1, 64)}
}

// FromMap builds a trie from a key to values map. Keys are inserted in
// sorted order so the layout does not depend on map iteration.
func FromMap[T any](m map[string][]T) *Trie[T] {
	t := NewTrie[T]()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		t.Add(k, m[k]...)
	}
	return t
}

func (t *Trie[T]) child(n int32, r rune) (int32, bool) {
	edges := t.nodes[n].children
	i, ok := slices.BinarySearchFunc(edges, r, func(e trieEdge, r rune) int {
		return cmp.Compare(e.r, r)
	})
	if !ok {
		return 0, false
	}
	return edges[i].next, true
}

// Add walks key from the root, creating missing nodes, and appends values to
// the list at the final node. Repeated additions accumulate.
func (t *Trie[T]) Add(key string, values ...T) {
	n := int32(trieRoot)
	for _, r := range key {
		next, ok := t.child(n, r)
		if !ok {
			next = int32(len(t.nodes))
			t.nodes = append(t.nodes, trieNode[T]{})
			edges := t.nodes[n].children
			i, _ := slices.BinarySearchFunc(edges, r, func(e trieEdge, r rune) int {
				return cmp.Compare(e.r, r)
			})
			t.nodes[n].children = slices.Insert(edges, i, trieEdge{r: r, next: next})
		}
		n = next
	}
	if len(values) > 0 {
		t.nodes[n].values = append(t.nodes[n].values, values...)
	}
}

// Find walks at most end runes of key and returns the values at the node
// reached. The boolean is false when a step is missing or the node reached
// holds no values; a node that only exists as a path to longer keys is not a
// match. The returned slice is shared with the trie and must not be modified.
func (t *Trie[T]) Find(key string, end int) ([]T, bool) {
	n := int32(trieRoot)
	walked := 0
	for _, r := range key {
		if walked >= end {
			break
		}
		next, ok := t.child(n, r)
		if !ok {
			return nil, false
		}
		n = next
		walked++
	}
	values := t.nodes[n].values
	if len(values) == 0 {
		return nil, false
	}
	return slices.Clip(values), true
}

// Len returns the number of nodes, the root included.
func (t *Trie[T]) Len() int {
	return len(t.nodes)
}

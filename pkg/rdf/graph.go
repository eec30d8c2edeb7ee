package rdf

import "sync"

// Sink receives statements. Implementations decide whether duplicates are kept.
type Sink interface {
	Add(t Triple)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(t Triple)

func (f SinkFunc) Add(t Triple) { f(t) }

// Graph is an insertion-ordered set of triples
type Graph struct {
	mu      sync.RWMutex
	triples []Triple
	seen    map[string]struct{}
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{seen: make(map[string]struct{})}
}

// Add inserts t unless an identical triple is already present
func (g *Graph) Add(t Triple) {
	key := t.String()
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.seen[key]; ok {
		return
	}
	g.seen[key] = struct{}{}
	g.triples = append(g.triples, t)
}

// AddAll inserts every triple of other
func (g *Graph) AddAll(other *Graph) {
	for _, t := range other.Triples() {
		g.Add(t)
	}
}

// Contains reports whether t is in the graph
func (g *Graph) Contains(t Triple) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.seen[t.String()]
	return ok
}

// Len returns the number of distinct triples
func (g *Graph) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.triples)
}

// Triples returns a copy of the triples in insertion order
func (g *Graph) Triples() []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Triple, len(g.triples))
	copy(out, g.triples)
	return out
}

// Match returns the triples matching the given pattern. Nil terms and an
// empty predicate act as wildcards.
func (g *Graph) Match(s Term, p IRI, o Term) []Triple {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Triple
	for _, t := range g.triples {
		if s != nil && t.S != s {
			continue
		}
		if p.Value != "" && t.P != p {
			continue
		}
		if o != nil && t.O != o {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Object returns the first object of s/p
func (g *Graph) Object(s Term, p IRI) (Term, bool) {
	matches := g.Match(s, p, nil)
	if len(matches) == 0 {
		return nil, false
	}
	return matches[0].O, true
}

// Subjects returns the distinct subjects of p/o in insertion order
func (g *Graph) Subjects(p IRI, o Term) []Term {
	var out []Term
	seen := make(map[Term]bool)
	for _, t := range g.Match(nil, p, o) {
		if !seen[t.S] {
			seen[t.S] = true
			out = append(out, t.S)
		}
	}
	return out
}

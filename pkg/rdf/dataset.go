package rdf

import "sync"

// Dataset is a default graph plus named graphs kept in creation order
type Dataset struct {
	mu    sync.Mutex
	def   *Graph
	named map[string]*Graph
	order []string
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{def: NewGraph(), named: make(map[string]*Graph)}
}

// Default returns the default graph
func (d *Dataset) Default() *Graph {
	return d.def
}

// Graph returns the graph with the given name, creating it when missing.
// An empty name selects the default graph.
func (d *Dataset) Graph(name string) *Graph {
	if name == "" {
		return d.def
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	g, ok := d.named[name]
	if !ok {
		g = NewGraph()
		d.named[name] = g
		d.order = append(d.order, name)
	}
	return g
}

// Names returns the named graph names in creation order
func (d *Dataset) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Merge adds every triple of g to the graph called name
func (d *Dataset) Merge(name string, g *Graph) {
	d.Graph(name).AddAll(g)
}

// Len returns the number of quads across all graphs
func (d *Dataset) Len() int {
	n := d.def.Len()
	for _, name := range d.Names() {
		n += d.Graph(name).Len()
	}
	return n
}

// Quads returns the default graph followed by each named graph
func (d *Dataset) Quads() []Quad {
	var out []Quad
	for _, t := range d.def.Triples() {
		out = append(out, t.ToQuad(nil))
	}
	for _, name := range d.Names() {
		graphName := NewIRI(name)
		for _, t := range d.Graph(name).Triples() {
			out = append(out, t.ToQuad(graphName))
		}
	}
	return out
}

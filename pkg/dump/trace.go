package dump

// Trace records the reference structure discovered during a write: every
// tracked node with its token, and every pointer edge that was followed.
// Renderers turn it into DOT/SVG views of the graph (see render/refgraph).
type Trace struct {
	Nodes []TraceNode
	Edges []TraceEdge

	seen map[string]struct{}
}

// TraceNode is one tracked node.
type TraceNode struct {
	Token string
	Type  string
}

// TraceEdge is one pointer traversal, labelled with the field it came from.
type TraceEdge struct {
	From  string
	To    string
	Field string
}

func newTrace() *Trace {
	return &Trace{seen: make(map[string]struct{})}
}

func (t *Trace) addNode(token, typeName string) {
	if _, ok := t.seen[token]; ok {
		return
	}
	t.seen[token] = struct{}{}
	t.Nodes = append(t.Nodes, TraceNode{Token: token, Type: typeName})
}

func (t *Trace) addEdge(from, to, field string) {
	t.Edges = append(t.Edges, TraceEdge{From: from, To: to, Field: field})
}

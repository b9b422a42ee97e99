// Package refgraph renders the reference trace of a dump as a node-link
// diagram. Every tracked object becomes a node labelled with its reference
// token and type, every followed pointer an edge labelled with the field it
// was reached through. DOT output can be kept as-is or rendered to SVG via
// Graphviz.
package refgraph

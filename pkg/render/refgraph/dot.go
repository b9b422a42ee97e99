package refgraph

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/mwolter/assetdump/pkg/dump"
)

// Options configures reference graph rendering.
type Options struct {
	// Detailed includes reference tokens in node labels.
	// When false, only the type name is shown.
	Detailed bool
}

// ToDOT converts a dump trace to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG].
func ToDOT(trace *dump.Trace, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph refs {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range trace.Nodes {
		fmt.Fprintf(&buf, "  %q [label=%q];\n", n.Token, fmtLabel(n, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, e := range trace.Edges {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", e.From, e.To, e.Field)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dump.TraceNode, detailed bool) string {
	if !detailed {
		return n.Type
	}
	return fmt.Sprintf("%s\n#%s", n.Type, n.Token)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the outer svg tag so the diagram scales cleanly
// when embedded. Graphviz emits a translated viewBox with pt units that most
// embedders handle poorly.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

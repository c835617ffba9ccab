// Package diagram draws workflow graphs as standalone SVG images.
package diagram

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jgivc/autodocs/internal/entity"
)

const (
	nodeWidth     = 240
	nodeHeight    = 90
	vSpacing      = 50
	margin        = 80
	minHeight     = 240
	cornerRadius  = 18
	lineHeight    = 18
	maxLabelLen   = 22
	maxLabelLines = 3

	Heading     = "## Workflow Diagram"
	noDiagram   = "_No diagram available._"
	imagePrefix = "data:image/svg+xml;base64,"

	KeyDescription = "workflow_description"
	KeyDiagram     = "workflow_diagram"
	KeyNodes       = "nodes_settings"

	mainConnection = "main"
)

const style = `
      .node { stroke-width: 2; }
      .node-trigger { fill:#4CAF50; stroke:#2E7D32; }
      .node-action { fill:#2196F3; stroke:#1565C0; }
      .node-logic { fill:#FF9800; stroke:#E65100; }
      .node-function { fill:#7E57C2; stroke:#5E35B1; }
      .node-end { fill:#F44336; stroke:#C62828; }
      .node-error { fill:#9C27B0; stroke:#6A1B9A; }
      .node-label { fill:#FFFFFF; font-family:'Segoe UI', Helvetica, Arial, sans-serif; font-size:14px; text-anchor:middle; dominant-baseline:middle; }
      .edge { stroke:#90A4AE; stroke-width:2; fill:none; }
      .edge-label { fill:#607D8B; font-size:12px; font-family:'Segoe UI', Helvetica, Arial, sans-serif; text-anchor:middle; }
      text { user-select:none; }
    `

var svgEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#39;")

type shape int

const (
	shapeRect shape = iota
	shapeEllipse
	shapeDiamond
)

type nodeInfo struct {
	key   string
	label string
	class string
	shape shape
	x, y  float64
}

type edge struct {
	from, to string
	label    string
}

// SVG renders the workflow top to bottom in node order. It reports false
// when the workflow has no nodes.
func SVG(wf *entity.Workflow) (string, bool) {
	if wf == nil || len(wf.Nodes) == 0 {
		return "", false
	}

	nodes, index := layout(wf.Nodes)
	edges := collectEdges(wf.Connections, index)

	width := float64(nodeWidth + margin*2)
	height := float64(margin*2 + len(nodes)*(nodeHeight+vSpacing))
	if height < minHeight {
		height = minHeight
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`, num(width), num(height), num(width), num(height))
	b.WriteString(`<defs><marker id="arrow" markerWidth="10" markerHeight="10" refX="8" refY="5" orient="auto" markerUnits="strokeWidth">`)
	b.WriteString(`<path d="M0,0 L10,5 L0,10 z" fill="#607D8B" /></marker></defs>`)
	b.WriteString("<style>" + style + "</style>")

	for _, e := range edges {
		from, to := index[e.from], index[e.to]
		startX, startY := from.x, from.y+nodeHeight/2
		endX, endY := to.x, to.y-nodeHeight/2
		midY := (startY + endY) / 2

		fmt.Fprintf(&b, `<path class="edge" d="M %s %s C %s %s, %s %s, %s %s" marker-end="url(#arrow)" />`,
			num(startX), num(startY), num(startX), num(midY), num(endX), num(midY), num(endX), num(endY))

		if e.label != "" {
			fmt.Fprintf(&b, `<text class="edge-label" x="%s" y="%s">%s</text>`, num((startX+endX)/2), num(midY-6), svgEscaper.Replace(e.label))
		}
	}

	for _, n := range nodes {
		x, y := n.x-nodeWidth/2, n.y-nodeHeight/2

		switch n.shape {
		case shapeEllipse:
			fmt.Fprintf(&b, `<ellipse class="node %s" cx="%s" cy="%s" rx="%d" ry="%d" />`, n.class, num(n.x), num(n.y), nodeWidth/2, nodeHeight/2)
		case shapeDiamond:
			fmt.Fprintf(&b, `<polygon class="node %s" points="%s,%s %s,%s %s,%s %s,%s" />`, n.class,
				num(n.x), num(y), num(x+nodeWidth), num(n.y), num(n.x), num(y+nodeHeight), num(x), num(n.y))
		default:
			fmt.Fprintf(&b, `<rect class="node %s" x="%s" y="%s" width="%d" height="%d" rx="%d" ry="%d" />`, n.class,
				num(x), num(y), nodeWidth, nodeHeight, cornerRadius, cornerRadius)
		}

		lines := splitLabel(n.label, maxLabelLen)
		for i, line := range lines {
			offset := (float64(i) - float64(len(lines)-1)/2) * lineHeight
			fmt.Fprintf(&b, `<text class="node-label" x="%s" y="%s">%s</text>`, num(n.x), num(n.y+offset), svgEscaper.Replace(line))
		}
	}

	b.WriteString("</svg>")

	return b.String(), true
}

// Markdown returns the diagram section with the SVG embedded as a data URI.
func Markdown(wf *entity.Workflow) string {
	svg, ok := SVG(wf)
	if !ok {
		return Heading + "\n\n" + noDiagram
	}

	return Heading + "\n\n![Workflow Diagram](" + imagePrefix + base64.StdEncoding.EncodeToString([]byte(svg)) + ")"
}

// Attach replaces the diagram section of a JSON document with a rendered
// one. Missing text sections are set to empty strings. It reports false
// for anything that is not a JSON object.
func Attach(doc string, wf *entity.Workflow) (string, bool) {
	doc = strings.TrimSpace(doc)
	if wf == nil || doc == "" {
		return "", false
	}

	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()

	var sections map[string]any
	if err := dec.Decode(&sections); err != nil || sections == nil || dec.More() {
		return "", false
	}

	sections[KeyDiagram] = Markdown(wf)
	for _, key := range []string{KeyDescription, KeyNodes} {
		if _, ok := sections[key].(string); !ok {
			sections[key] = ""
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(sections); err != nil {
		return "", false
	}

	return strings.TrimRight(buf.String(), "\n"), true
}

func layout(nodes []entity.Node) ([]*nodeInfo, map[string]*nodeInfo) {
	infos := make([]*nodeInfo, 0, len(nodes))
	index := make(map[string]*nodeInfo, len(nodes))

	for i, n := range nodes {
		key := firstNonEmpty(n.Name, n.ID, "Node_"+strconv.Itoa(i+1))
		if _, ok := index[key]; ok {
			continue
		}

		class, sh := categorize(n.Type)
		info := &nodeInfo{
			key:   key,
			label: nodeLabel(n, i),
			class: class,
			shape: sh,
			x:     float64(nodeWidth+margin*2) / 2,
			y:     float64(margin + len(infos)*(nodeHeight+vSpacing) + nodeHeight/2),
		}

		infos = append(infos, info)
		index[key] = info
	}

	return infos, index
}

// collectEdges walks connections shaped as
// source -> connection type -> outputs -> targets.
func collectEdges(connections map[string]any, index map[string]*nodeInfo) []edge {
	var edges []edge

	for _, source := range sortedKeys(connections) {
		if _, ok := index[source]; !ok {
			continue
		}

		types, _ := connections[source].(map[string]any)
		for _, typ := range sortedKeys(types) {
			outputs, _ := types[typ].([]any)
			for _, output := range outputs {
				targets, _ := output.([]any)
				for _, t := range targets {
					target, ok := t.(map[string]any)
					if !ok {
						continue
					}

					dest, _ := target["node"].(string)
					if _, ok := index[dest]; !ok {
						continue
					}

					edges = append(edges, edge{from: source, to: dest, label: edgeLabel(target)})
				}
			}
		}
	}

	return edges
}

func edgeLabel(target map[string]any) string {
	typ, _ := target["type"].(string)
	if typ == "" || typ == mainConnection {
		return ""
	}

	var idx float64
	switch v := target["index"].(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return ""
		}
		idx = f
	case float64:
		idx = v
	default:
		return ""
	}

	return typ + " " + num(idx+1)
}

func nodeLabel(n entity.Node, i int) string {
	if s := strings.TrimSpace(n.Name); s != "" {
		return s
	}

	if s := strings.TrimSpace(n.DisplayName); s != "" {
		return s
	}

	if s := strings.TrimSpace(n.Type); s != "" {
		parts := strings.Split(n.Type, ".")
		if last := parts[len(parts)-1]; last != "" {
			return last
		}
	}

	return "Node " + strconv.Itoa(i+1)
}

func categorize(nodeType string) (string, shape) {
	t := strings.ToLower(nodeType)

	switch {
	case strings.Contains(t, "error"):
		return "node-error", shapeEllipse
	case strings.Contains(t, "trigger"), strings.Contains(t, "webhook"), strings.Contains(t, "start"):
		return "node-trigger", shapeEllipse
	case strings.Contains(t, "if"), strings.Contains(t, "switch"), strings.Contains(t, "router"):
		return "node-logic", shapeDiamond
	case strings.Contains(t, "code"), strings.Contains(t, "function"):
		return "node-function", shapeRect
	case strings.Contains(t, "end"), strings.Contains(t, "respond"):
		return "node-end", shapeEllipse
	}

	return "node-action", shapeRect
}

// splitLabel wraps label into lines of at most maxLen runes. Only the first
// three lines are kept, the last one ending with an ellipsis.
func splitLabel(label string, maxLen int) []string {
	words := strings.Fields(label)
	if len(words) == 0 {
		return []string{"(unnamed node)"}
	}

	var (
		lines   []string
		current string
	)

	for _, w := range words {
		candidate := strings.TrimSpace(current + " " + w)
		if current != "" && runeLen(candidate) > maxLen {
			lines = append(lines, current)
			current = w

			continue
		}

		current = candidate
	}

	if current != "" {
		lines = append(lines, current)
	}

	if len(lines) > maxLabelLines {
		lines = lines[:maxLabelLines]

		last := []rune(lines[maxLabelLines-1])
		if len(last) > maxLen-1 {
			last = last[:maxLen-1]
		}
		lines[maxLabelLines-1] = string(last) + "…"
	}

	return lines
}

// num formats a coordinate without trailing zeros.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func runeLen(s string) int {
	return len([]rune(s))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

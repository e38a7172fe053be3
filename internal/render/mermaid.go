package render

import (
	"fmt"
	"strings"

	"github.com/StarCycle/GraphExtract/internal/graph"
)

// Mermaid renders pg as a Mermaid flowchart. Node ids are "n" plus the
// dense label, so the chart lines up with the exported payload.
func Mermaid(pg *graph.Graph) string {
	labels := make(map[string]int)
	var sb strings.Builder
	sb.WriteString("flowchart TD\n")

	for i, n := range pg.Nodes() {
		labels[n.ID] = i
		open, closing := mermaidShape(n.Kind)
		sb.WriteString(fmt.Sprintf("    n%d%s\"%s\"%s\n", i, open, escapeMermaid(nodeText(n)), closing))
	}
	for _, e := range pg.Edges() {
		sb.WriteString(fmt.Sprintf("    n%d --> n%d\n", labels[e.From], labels[e.To]))
	}
	return sb.String()
}

func mermaidShape(kind graph.NodeKind) (string, string) {
	switch kind {
	case graph.KindMethod:
		return "([", "])"
	case graph.KindMethodReturn:
		return "[[", "]]"
	default:
		return "{{", "}}"
	}
}

var mermaidEscaper = strings.NewReplacer(`"`, "#quot;", "<", "#lt;", ">", "#gt;")

func escapeMermaid(s string) string {
	return mermaidEscaper.Replace(s)
}

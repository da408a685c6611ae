// Package diagram draws override chains: the procedure a call targets, the
// trait method it refines, and so on up to the root declaration.
// Supports Mermaid flowchart and ASCII formats.
package diagram

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ormasoftchile/specref/pkg/kernel/check"
	"github.com/ormasoftchile/specref/pkg/kernel/query"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// Format represents the output diagram format.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatASCII   Format = "ascii"
)

// Link is one element of an override chain. Spec is the specification
// governing Query (refined or raw), nil when there is none.
type Link struct {
	Query query.Query
	Name  string
	Spec  *spec.ProcedureSpecification
}

// Generate produces a diagram string from an override chain, ordered from
// the called procedure to the root trait method.
func Generate(chain []Link, format Format) (string, error) {
	if len(chain) == 0 {
		return "", fmt.Errorf("empty override chain")
	}
	switch format {
	case FormatMermaid:
		return generateMermaid(chain), nil
	case FormatASCII:
		return generateASCII(chain), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// FromExplanation converts an explained query's override chain.
func FromExplanation(ex *check.Explanation) []Link {
	links := make([]Link, len(ex.Chain))
	for i, l := range ex.Chain {
		links[i] = Link{Query: l.Query, Name: l.Name, Spec: l.Spec}
	}
	return links
}

// --- Mermaid flowchart ---

func generateMermaid(chain []Link) string {
	var b strings.Builder
	b.WriteString("flowchart BT\n")

	for i, l := range chain {
		b.WriteString("    " + nodeDefinition(i, l) + "\n")
	}
	for i := 0; i < len(chain)-1; i++ {
		fmt.Fprintf(&b, "    %s -->|\"refines\"| %s\n", nodeID(i, chain[i]), nodeID(i+1, chain[i+1]))
	}
	return b.String()
}

func nodeDefinition(i int, l Link) string {
	label := escMermaid(linkTitle(l))
	if d := linkDetail(l); d != "" {
		label += "<br/>" + escMermaid(d)
	}
	if i == 0 {
		return fmt.Sprintf(`%s(["%s"])`, nodeID(i, l), label)
	}
	return fmt.Sprintf(`%s["%s"]`, nodeID(i, l), label)
}

func nodeID(i int, l Link) string {
	return fmt.Sprintf("n%d_%s", i, safeID(string(l.Query.Called)))
}

// --- ASCII ---

func generateASCII(chain []Link) string {
	var b strings.Builder

	boxWidth := computeUniformBoxWidth(chain)
	if boxWidth%2 == 0 {
		boxWidth++
	}
	mid := boxWidth / 2
	connPad := strings.Repeat(" ", mid+1)

	for i, l := range chain {
		writeASCIILink(&b, l, boxWidth, i < len(chain)-1)
		if i < len(chain)-1 {
			b.WriteString(connPad + "│ refines\n")
			b.WriteString(connPad + "▼\n")
		}
	}
	return b.String()
}

func writeASCIILink(b *strings.Builder, l Link, boxWidth int, connected bool) {
	title := " " + linkTitle(l) + " "
	query := " " + l.Query.String() + " "
	detail := ""
	if d := linkDetail(l); d != "" {
		detail = " " + d + " "
	}

	mid := boxWidth / 2
	b.WriteString("┌" + strings.Repeat("─", boxWidth) + "┐\n")
	writeASCIILine(b, title, boxWidth)
	if linkTitle(l) != l.Query.String() {
		writeASCIILine(b, query, boxWidth)
	}
	if detail != "" {
		writeASCIILine(b, detail, boxWidth)
	}
	if connected {
		b.WriteString("└" + strings.Repeat("─", mid) + "┬" + strings.Repeat("─", boxWidth-mid-1) + "┘\n")
	} else {
		b.WriteString("└" + strings.Repeat("─", boxWidth) + "┘\n")
	}
}

func writeASCIILine(b *strings.Builder, content string, boxWidth int) {
	w := runewidth.StringWidth(content)
	b.WriteString("│" + content + strings.Repeat(" ", boxWidth-w) + "│\n")
}

// computeUniformBoxWidth returns the widest interior width needed across
// all links.
func computeUniformBoxWidth(chain []Link) int {
	w := 22
	for _, l := range chain {
		for _, s := range []string{linkTitle(l), l.Query.String(), linkDetail(l)} {
			if sw := runewidth.StringWidth(s) + 2; sw > w {
				w = sw
			}
		}
	}
	return w
}

// --- labels ---

func linkTitle(l Link) string {
	if l.Name != "" {
		return l.Name
	}
	return l.Query.String()
}

// linkDetail summarizes the specification: its kind and which fields are
// declared locally (+) or inherited (^).
func linkDetail(l Link) string {
	if l.Spec == nil {
		return "no specification"
	}
	s := l.Spec
	parts := []string{kindIcon(s.Kind) + " " + string(s.EffectiveKind())}
	for _, f := range []struct {
		name string
		prov spec.Provenance
	}{
		{"pre", s.Pre.Provenance},
		{"post", s.Post.Provenance},
		{"pledges", s.Pledges.Provenance},
		{"trusted", s.Trusted.Provenance},
		{"terminates", s.Terminates.Provenance},
	} {
		switch f.prov {
		case spec.Declared:
			parts = append(parts, "+"+f.name)
		case spec.Inherited:
			parts = append(parts, "^"+f.name)
		}
	}
	return strings.Join(parts, " ")
}

func kindIcon(k spec.Item[spec.Kind]) string {
	switch k.Provenance {
	case spec.Declared:
		return "◆"
	case spec.Inherited:
		return "◇"
	default:
		return "○"
	}
}

// --- string helpers ---

func safeID(id string) string {
	r := strings.NewReplacer("-", "_", " ", "_", ".", "_", ":", "_", "<", "_", ">", "_")
	return r.Replace(id)
}

func escMermaid(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	s = strings.ReplaceAll(s, `'`, "#apos;")
	s = strings.ReplaceAll(s, `<`, "#lt;")
	s = strings.ReplaceAll(s, `>`, "#gt;")
	return s
}

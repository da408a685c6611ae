package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/ormasoftchile/specref/pkg/kernel/check"
	"github.com/ormasoftchile/specref/pkg/kernel/spec"
)

// Contract describes one resolved call for a contract report.
type Contract struct {
	Query string
	Name  string
	Chain []string
	Spec  *spec.ProcedureSpecification
}

// Markdown renders a contract report as GitHub-flavored markdown.
func Markdown(c Contract) string {
	var b strings.Builder
	title := c.Query
	if c.Name != "" {
		title = c.Name
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Query: `%s`\n\n", c.Query)

	if len(c.Chain) > 1 {
		b.WriteString("## Override chain\n\n")
		for i, q := range c.Chain {
			fmt.Fprintf(&b, "%d. `%s`\n", i+1, q)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Specification\n\n")
	if c.Spec == nil {
		b.WriteString("_No specification governs this call._\n")
		return b.String()
	}
	s := c.Spec
	b.WriteString("| Field | Provenance | Value |\n")
	b.WriteString("|---|---|---|\n")
	row(&b, "kind", s.Kind.Provenance, kindValue(s.Kind))
	row(&b, "pre", s.Pre.Provenance, conditionsValue(s.Pre.Value))
	row(&b, "post", s.Post.Provenance, conditionsValue(s.Post.Value))
	row(&b, "pledges", s.Pledges.Provenance, pledgesValue(s.Pledges.Value))
	row(&b, "trusted", s.Trusted.Provenance, fmt.Sprint(s.Trusted.Value))
	row(&b, "terminates", s.Terminates.Provenance, code(s.Terminates.Value))

	if base := s.Kind.Base; base != nil {
		fmt.Fprintf(&b, "\nThe refined trait method is of kind `%s`.\n", *base)
	}
	return b.String()
}

func row(b *strings.Builder, field string, prov spec.Provenance, value string) {
	if prov == spec.Unspecified {
		value = "–"
	}
	fmt.Fprintf(b, "| %s | %s | %s |\n", field, prov, value)
}

func kindValue(k spec.Item[spec.Kind]) string {
	return code(string(k.Value))
}

func conditionsValue(cs spec.Conditions) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = code(c.Expr)
	}
	return strings.Join(parts, "<br>")
}

func pledgesValue(ps []spec.Pledge) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		s := p.After
		if p.Before != "" {
			s = p.Before + " ~> " + s
		}
		if p.Reference != "" {
			s = p.Reference + ": " + s
		}
		parts[i] = code(s)
	}
	return strings.Join(parts, "<br>")
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + strings.ReplaceAll(s, "|", `\|`) + "`"
}

// Terminal renders markdown for a terminal with glamour, constrained to
// width columns (0 disables wrapping). Falls back to the raw input if
// rendering fails.
func Terminal(md string, width int) string {
	if strings.TrimSpace(md) == "" {
		return md
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// HTML converts markdown to an HTML fragment with GitHub-flavored tables.
func HTML(md string) (string, error) {
	var buf bytes.Buffer
	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := gm.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// ContractFrom builds a contract report from an explanation.
func ContractFrom(ex *check.Explanation) Contract {
	c := Contract{Query: ex.Query.String(), Name: ex.Name, Spec: ex.Spec}
	for _, l := range ex.Chain {
		c.Chain = append(c.Chain, l.Query.String())
	}
	return c
}

// Package eval evaluates the small expression languages embedded in
// specref documents: ghost-constraint conditions over a call substitution
// (expr-lang) and substitution rewrite templates (text/template).
package eval

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

// Resolve renders a template string against a substitution's bindings.
// Unknown parameters are an error rather than "<no value>".
// Example: Resolve("Vec<{{ .T }}>", {"T": "u8"}) → "Vec<u8>"
func Resolve(tmpl string, bindings map[string]string) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil // fast path for literals
	}

	t, err := template.New("").Option("missingkey=error").Funcs(builtinFuncs()).Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("template parse: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, bindings); err != nil {
		return "", fmt.Errorf("template eval: %w", err)
	}
	return buf.String(), nil
}

// ParseTemplate checks that tmpl is a well-formed substitution template
// without rendering it.
func ParseTemplate(tmpl string) error {
	if _, err := template.New("").Funcs(builtinFuncs()).Parse(tmpl); err != nil {
		return fmt.Errorf("template parse: %w", err)
	}
	return nil
}

// ResolveMap renders every value of templates against bindings.
func ResolveMap(templates map[string]string, bindings map[string]string) (map[string]string, error) {
	if templates == nil {
		return nil, nil
	}
	out := make(map[string]string, len(templates))
	for k, v := range templates {
		resolved, err := Resolve(v, bindings)
		if err != nil {
			return nil, fmt.Errorf("binding %q: %w", k, err)
		}
		out[k] = resolved
	}
	return out, nil
}

// builtinFuncs provides template functions for substitution templates.
func builtinFuncs() template.FuncMap {
	return template.FuncMap{
		// The operand comes last: {{ .T | trimPrefix "&" }}.
		"hasPrefix":  func(prefix, s string) bool { return strings.HasPrefix(s, prefix) },
		"hasSuffix":  func(suffix, s string) bool { return strings.HasSuffix(s, suffix) },
		"contains":   func(substr, s string) bool { return strings.Contains(s, substr) },
		"trimPrefix": func(prefix, s string) string { return strings.TrimPrefix(s, prefix) },
		"trimSuffix": func(suffix, s string) string { return strings.TrimSuffix(s, suffix) },
		"default": func(def, val string) string {
			if val == "" {
				return def
			}
			return val
		},
		// ref wraps a type in a shared reference: ref "T" → "&T"
		"ref": func(s string) string { return "&" + s },
	}
}

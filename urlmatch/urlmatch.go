// Package urlmatch compiles path templates with named parameters
// ("/create-processing-statement/:documentNumber/add-catch-details/:catchIndex")
// and matches concrete paths against them in registration order.
package urlmatch

import (
	"fmt"
	"regexp"
	"strings"
)

var paramName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Pattern is one compiled template.
type Pattern struct {
	template string
	re       *regexp.Regexp
	names    []string
}

// Compile turns a template into a Pattern. Segments starting with ':' capture
// one path segment; all other segments match literally. A trailing slash on the
// matched path is tolerated.
func Compile(template string) (*Pattern, error) {
	if !strings.HasPrefix(template, "/") {
		return nil, fmt.Errorf("pattern %q must start with /", template)
	}
	var b strings.Builder
	b.WriteString("^")
	var names []string
	seen := map[string]bool{}
	for _, seg := range strings.Split(strings.Trim(template, "/"), "/") {
		b.WriteString("/")
		if strings.HasPrefix(seg, ":") {
			name := seg[1:]
			if !paramName.MatchString(name) {
				return nil, fmt.Errorf("pattern %q has invalid parameter %q", template, seg)
			}
			if seen[name] {
				return nil, fmt.Errorf("pattern %q repeats parameter %q", template, name)
			}
			seen[name] = true
			names = append(names, name)
			b.WriteString("([^/]+)")
			continue
		}
		b.WriteString(regexp.QuoteMeta(seg))
	}
	b.WriteString("/?$")

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("failed to compile pattern %q: %w", template, err)
	}
	return &Pattern{template: template, re: re, names: names}, nil
}

// Template returns the source template.
func (p *Pattern) Template() string {
	return p.template
}

// Match reports whether path matches and returns the captured parameters.
func (p *Pattern) Match(path string) (map[string]string, bool) {
	m := p.re.FindStringSubmatch(path)
	if m == nil {
		return nil, false
	}
	params := make(map[string]string, len(p.names))
	for i, name := range p.names {
		params[name] = m[i+1]
	}
	return params, true
}

type entry[H any] struct {
	pattern *Pattern
	handler H
}

// Table is an ordered list of (pattern, handler) pairs. Lookups are linear in
// the number of patterns.
type Table[H any] struct {
	entries []entry[H]
}

// Add compiles template and appends it with its handler.
func (t *Table[H]) Add(template string, h H) error {
	p, err := Compile(template)
	if err != nil {
		return err
	}
	for _, e := range t.entries {
		if e.pattern.template == template {
			return fmt.Errorf("pattern %q registered twice", template)
		}
	}
	t.entries = append(t.entries, entry[H]{pattern: p, handler: h})
	return nil
}

// Match returns the handler of the first pattern accepting path.
func (t *Table[H]) Match(path string) (H, map[string]string, bool) {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	for _, e := range t.entries {
		if params, ok := e.pattern.Match(path); ok {
			return e.handler, params, true
		}
	}
	var zero H
	return zero, nil, false
}

// Len returns the number of registered patterns.
func (t *Table[H]) Len() int {
	return len(t.entries)
}

// Templates returns the registered templates in order.
func (t *Table[H]) Templates() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.pattern.template
	}
	return out
}

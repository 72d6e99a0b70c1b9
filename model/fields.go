package model

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// maxPathIndex bounds array indices addressed by dotted form keys.
const maxPathIndex = 500

// Fields is a loosely typed JSON object: a draft's exportData or a submitted
// step payload. Nested values are map[string]any, []any, string, float64, bool
// or nil.
type Fields map[string]any

// ToFields converts any JSON-serialisable value into Fields.
func ToFields(v any) (Fields, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	f := Fields{}
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
	}
	return f, nil
}

// Decode unmarshals f into v.
func (f Fields) Decode(v any) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("failed to marshal fields: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode fields: %w", err)
	}
	return nil
}

// Clone returns a deep copy.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	return Fields(cloneValue(map[string]any(f)).(map[string]any))
}

// String returns the top-level string value at key, or "".
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Has reports whether key is present at the top level, either whole or as the
// root of a dotted form key.
func (f Fields) Has(key string) bool {
	if _, ok := f[key]; ok {
		return true
	}
	for k := range f {
		if strings.HasPrefix(k, key+".") {
			return true
		}
	}
	return false
}

// Merge writes overlay over f. Plain keys merge objects recursively and replace
// arrays and scalars wholesale; dotted keys ("catches.0.species") address a
// single leaf of the flattened view. Plain keys are applied before dotted ones.
func (f Fields) Merge(overlay Fields) {
	var dotted []string
	for k, v := range overlay {
		if strings.Contains(k, ".") {
			dotted = append(dotted, k)
			continue
		}
		mergeKey(f, k, v)
	}
	sort.Strings(dotted)
	for _, k := range dotted {
		f.SetPath(k, cloneValue(overlay[k]))
	}
}

func mergeKey(dst map[string]any, key string, v any) {
	src, ok := asObject(v)
	if !ok {
		dst[key] = cloneValue(v)
		return
	}
	existing, ok := asObject(dst[key])
	if !ok {
		dst[key] = cloneValue(src)
		return
	}
	for k, sv := range src {
		mergeKey(existing, k, sv)
	}
	dst[key] = existing
}

// SetPath assigns value at a dotted path, creating intermediate objects and
// arrays as needed. Numeric segments index arrays.
func (f Fields) SetPath(path string, value any) {
	segs := strings.Split(path, ".")
	root := segs[0]
	f[root] = setIn(f[root], segs[1:], value)
}

func setIn(node any, segs []string, value any) any {
	if len(segs) == 0 {
		return value
	}
	seg := segs[0]
	if idx, err := strconv.Atoi(seg); err == nil && idx >= 0 {
		if idx > maxPathIndex {
			return node
		}
		list, _ := node.([]any)
		for len(list) <= idx {
			list = append(list, nil)
		}
		list[idx] = setIn(list[idx], segs[1:], value)
		return list
	}
	obj, ok := asObject(node)
	if !ok {
		obj = map[string]any{}
	}
	obj[seg] = setIn(obj[seg], segs[1:], value)
	return obj
}

// FieldsFromForm turns url-encoded form values into a payload whose keys keep
// their dotted form; Merge resolves them against the draft.
func FieldsFromForm(values url.Values) Fields {
	f := Fields{}
	for k, vs := range values {
		k = strings.TrimSuffix(k, "[]")
		switch len(vs) {
		case 0:
		case 1:
			f[k] = vs[0]
		default:
			list := make([]any, len(vs))
			for i, v := range vs {
				list[i] = v
			}
			f[k] = list
		}
	}
	return f
}

func asObject(v any) (map[string]any, bool) {
	switch o := v.(type) {
	case map[string]any:
		return o, true
	case Fields:
		return map[string]any(o), true
	}
	return nil, false
}

func cloneValue(v any) any {
	if obj, ok := asObject(v); ok {
		out := make(map[string]any, len(obj))
		for k, item := range obj {
			out[k] = cloneValue(item)
		}
		return out
	}
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = item
		}
		return out
	}
	return v
}

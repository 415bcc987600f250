// Package product defines the canonical product record and the schema
// validation that turns raw untrusted payloads into it.
package product

import (
	"fmt"
	"sort"
)

// Attribute is a single named product property. Attributes are kept as an
// ordered slice (not a map) so downstream content construction is
// deterministic.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Record is the canonical validated product. Immutable once validated; every
// downstream stage reads it, none may modify it.
type Record struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Price       float64     `json:"price"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// Attribute returns the value for key and whether it was present.
func (r *Record) Attribute(key string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// FormatPrice renders the price with two decimals, the form used in blocks
// and page metadata.
func (r *Record) FormatPrice() string {
	return fmt.Sprintf("%.2f", r.Price)
}

// sortedAttributes converts an attribute map into a deterministically ordered
// slice, stringifying scalar values.
func sortedAttributes(raw map[string]any) []Attribute {
	if len(raw) == 0 {
		return nil
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]Attribute, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, Attribute{Key: k, Value: stringify(raw[k])})
	}
	return attrs
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		out := ""
		for i, item := range t {
			if i > 0 {
				out += ", "
			}
			out += stringify(item)
		}
		return out
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

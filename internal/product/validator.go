package product

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports a missing or malformed field in a raw product
// payload.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid product: field %q %s", e.Field, e.Reason)
}

// requiredStringFields are validated in declaration order so the first
// failure reported is stable.
var requiredStringFields = []string{"name", "description", "category"}

// Parse validates a raw untyped payload into a Record. It fails with a
// *ValidationError naming the first missing or malformed field. Price accepts
// numeric JSON values or numeric strings with an optional currency prefix
// ("$24.99"); anything else is rejected.
func Parse(raw map[string]any) (*Record, error) {
	if len(raw) == 0 {
		return nil, &ValidationError{Field: "payload", Reason: "is empty"}
	}

	rec := &Record{}
	for _, field := range requiredStringFields {
		v, ok := raw[field]
		if !ok {
			return nil, &ValidationError{Field: field, Reason: "is missing"}
		}
		s, ok := v.(string)
		if !ok {
			return nil, &ValidationError{Field: field, Reason: "must be a string"}
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, &ValidationError{Field: field, Reason: "is empty"}
		}
		switch field {
		case "name":
			rec.Name = s
		case "description":
			rec.Description = s
		case "category":
			rec.Category = s
		}
	}

	priceRaw, ok := raw["price"]
	if !ok {
		return nil, &ValidationError{Field: "price", Reason: "is missing"}
	}
	price, err := coercePrice(priceRaw)
	if err != nil {
		return nil, &ValidationError{Field: "price", Reason: err.Error()}
	}
	rec.Price = price

	if attrsRaw, ok := raw["attributes"]; ok {
		attrs, ok := attrsRaw.(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: "attributes", Reason: "must be an object"}
		}
		rec.Attributes = sortedAttributes(attrs)
	}

	return rec, nil
}

// ParseJSON decodes a JSON document and validates it into a Record.
func ParseJSON(data []byte) (*Record, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Field: "payload", Reason: "is not valid JSON: " + err.Error()}
	}
	return Parse(raw)
}

func coercePrice(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		if t < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return t, nil
	case int:
		if t < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return float64(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, fmt.Errorf("is not numeric")
		}
		return f, nil
	case string:
		s := strings.TrimSpace(t)
		s = strings.TrimPrefix(s, "$")
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, fmt.Errorf("is empty")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("is not numeric")
		}
		if f < 0 {
			return 0, fmt.Errorf("must not be negative")
		}
		return f, nil
	default:
		return 0, fmt.Errorf("must be a number or numeric string")
	}
}

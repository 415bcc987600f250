package stages

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// promptData flattens a validated record into the fields the prompt
// templates reference.
func (d Deps) promptData(p *product.Record) map[string]any {
	var attrs strings.Builder
	for _, a := range p.Attributes {
		fmt.Fprintf(&attrs, "  - %s: %s\n", a.Key, a.Value)
	}
	return map[string]any{
		"Name":          p.Name,
		"Category":      p.Category,
		"Description":   p.Description,
		"Price":         p.FormatPrice(),
		"Attributes":    strings.TrimRight(attrs.String(), "\n"),
		"MinQuestions":  d.minQuestions(),
		"MinCategories": d.minCategories(),
	}
}

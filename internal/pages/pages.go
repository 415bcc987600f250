// Package pages defines the structured page model and the static templates
// that bind each page type to its required content blocks.
package pages

import (
	"fmt"

	"git.home.luguber.info/inful/pagecraft/internal/blocks"
)

// Type identifies one of the three fixed content page types.
type Type string

const (
	TypeFAQ        Type = "FAQ"
	TypeProduct    Type = "Product"
	TypeComparison Type = "Comparison"
)

// Types lists all page types in output order.
var Types = []Type{TypeFAQ, TypeProduct, TypeComparison}

// Page is a complete validated content page: an ordered block sequence plus
// metadata. A Page only exists once every block its template requires is
// present.
type Page struct {
	Type     Type              `json:"page_type"`
	Title    string            `json:"title"`
	Blocks   []blocks.Block    `json:"blocks"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Requirement names a block a template needs along with the type it must
// carry.
type Requirement struct {
	Name string
	Type blocks.Type
}

// Template is the static, fixed association between a page type and its
// ordered required blocks.
type Template struct {
	Type     Type
	Required []Requirement
}

// templates is the fixed page topology; there is no dynamic registration.
var templates = map[Type]Template{
	TypeFAQ: {
		Type: TypeFAQ,
		Required: []Requirement{
			{Name: blocks.BlockIntro, Type: blocks.TypeText},
			{Name: blocks.BlockQuestions, Type: blocks.TypeQAList},
			{Name: blocks.BlockCategories, Type: blocks.TypeKVTable},
		},
	},
	TypeProduct: {
		Type: TypeProduct,
		Required: []Requirement{
			{Name: blocks.BlockIntro, Type: blocks.TypeText},
			{Name: blocks.BlockAttributes, Type: blocks.TypeKVTable},
			{Name: blocks.BlockHighlights, Type: blocks.TypeBulletList},
			{Name: blocks.BlockPrice, Type: blocks.TypeKVTable},
		},
	},
	TypeComparison: {
		Type: TypeComparison,
		Required: []Requirement{
			{Name: blocks.BlockIntro, Type: blocks.TypeText},
			{Name: blocks.BlockMatrix, Type: blocks.TypeComparisonRows},
			{Name: blocks.BlockPrice, Type: blocks.TypeKVTable},
		},
	},
}

// TemplateFor returns the static template for a page type.
func TemplateFor(t Type) (Template, bool) {
	tpl, ok := templates[t]
	return tpl, ok
}

// IncompleteError reports a page whose template requirements were not met at
// assembly time. This signals an upstream data or topology bug; assembly
// never skips it silently.
type IncompleteError struct {
	Page   Type
	Block  string
	Reason string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("page %s incomplete: block %q %s", e.Page, e.Block, e.Reason)
}

// Assemble selects the blocks required by the page template, in template
// order, and constructs the Page. Missing or mistyped blocks fail with an
// *IncompleteError.
func Assemble(t Type, title string, set *blocks.Set, metadata map[string]string) (*Page, error) {
	tpl, ok := TemplateFor(t)
	if !ok {
		return nil, &IncompleteError{Page: t, Block: "", Reason: "has no template"}
	}

	selected := make([]blocks.Block, 0, len(tpl.Required))
	for _, req := range tpl.Required {
		b, ok := set.Get(req.Name)
		if !ok {
			return nil, &IncompleteError{Page: t, Block: req.Name, Reason: "is missing"}
		}
		if b.Type != req.Type {
			return nil, &IncompleteError{
				Page:   t,
				Block:  req.Name,
				Reason: fmt.Sprintf("has type %q, template requires %q", b.Type, req.Type),
			}
		}
		selected = append(selected, b)
	}

	return &Page{
		Type:     t,
		Title:    title,
		Blocks:   selected,
		Metadata: metadata,
	}, nil
}

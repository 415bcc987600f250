package blocks

import (
	"fmt"
	"strconv"

	"git.home.luguber.info/inful/pagecraft/internal/product"
)

// Intro builds the shared introductory text block from the product
// description.
func Intro(p *product.Record) (Block, error) {
	if p == nil {
		return Block{}, &ConstructionError{Block: BlockIntro, Missing: "product record"}
	}
	return Block{
		Name: BlockIntro,
		Type: TypeText,
		Text: fmt.Sprintf("%s — %s", p.Name, p.Description),
		Metadata: map[string]string{
			"product":  p.Name,
			"category": p.Category,
		},
	}, nil
}

// AttributeTable builds the kv_table block listing category, price, and every
// product attribute in record order.
func AttributeTable(p *product.Record) (Block, error) {
	if p == nil {
		return Block{}, &ConstructionError{Block: BlockAttributes, Missing: "product record"}
	}
	rows := make([]KV, 0, len(p.Attributes)+2)
	rows = append(rows,
		KV{Key: "Category", Value: p.Category},
		KV{Key: "Price", Value: "$" + p.FormatPrice()},
	)
	for _, a := range p.Attributes {
		rows = append(rows, KV{Key: titleKey(a.Key), Value: a.Value})
	}
	return Block{
		Name:     BlockAttributes,
		Type:     TypeKVTable,
		Rows:     rows,
		Metadata: map[string]string{"attribute_count": strconv.Itoa(len(p.Attributes))},
	}, nil
}

// HighlightList builds the bullet_list block of product highlights: one item
// per attribute plus a closing price line.
func HighlightList(p *product.Record) (Block, error) {
	if p == nil {
		return Block{}, &ConstructionError{Block: BlockHighlights, Missing: "product record"}
	}
	items := make([]string, 0, len(p.Attributes)+1)
	for _, a := range p.Attributes {
		items = append(items, fmt.Sprintf("%s: %s", titleKey(a.Key), a.Value))
	}
	items = append(items, fmt.Sprintf("Available in the %s range at $%s", p.Category, p.FormatPrice()))
	return Block{
		Name:  BlockHighlights,
		Type:  TypeBulletList,
		Items: items,
	}, nil
}

// PriceSummary builds the shared kv_table block summarizing price
// positioning.
func PriceSummary(p *product.Record) (Block, error) {
	if p == nil {
		return Block{}, &ConstructionError{Block: BlockPrice, Missing: "product record"}
	}
	return Block{
		Name: BlockPrice,
		Type: TypeKVTable,
		Rows: []KV{
			{Key: "Product", Value: p.Name},
			{Key: "Price", Value: "$" + p.FormatPrice()},
			{Key: "Category", Value: p.Category},
		},
	}, nil
}

// QuestionList builds the qa_list block from generated questions, ordered by
// canonical category then generation order. Answers are derived from the
// validated product record so the transform stays pure.
func QuestionList(p *product.Record, questions map[product.QuestionCategory][]product.Question) (Block, error) {
	if p == nil {
		return Block{}, &ConstructionError{Block: BlockQuestions, Missing: "product record"}
	}
	if len(questions) == 0 {
		return Block{}, &ConstructionError{Block: BlockQuestions, Missing: "generated questions"}
	}
	var entries []QAEntry
	for _, cat := range product.QuestionCategories {
		for _, q := range questions[cat] {
			entries = append(entries, QAEntry{
				Category: string(cat),
				Question: q.Text,
				Answer:   answerFor(cat, p),
			})
		}
	}
	return Block{
		Name:     BlockQuestions,
		Type:     TypeQAList,
		QA:       entries,
		Metadata: map[string]string{"question_count": strconv.Itoa(len(entries))},
	}, nil
}

// CategorySummary builds the kv_table block mapping question categories to
// counts, in canonical order, omitting empty categories.
func CategorySummary(questions map[product.QuestionCategory][]product.Question) (Block, error) {
	if len(questions) == 0 {
		return Block{}, &ConstructionError{Block: BlockCategories, Missing: "generated questions"}
	}
	var rows []KV
	for _, cat := range product.QuestionCategories {
		if n := len(questions[cat]); n > 0 {
			rows = append(rows, KV{Key: string(cat), Value: strconv.Itoa(n)})
		}
	}
	return Block{
		Name: BlockCategories,
		Type: TypeKVTable,
		Rows: rows,
	}, nil
}

// ComparisonMatrix builds the comparison_rows block contrasting the validated
// product with the synthesized competitor. Feature order: price, category,
// then a's attributes in record order, then b-only attributes.
func ComparisonMatrix(a, b *product.Record) (Block, error) {
	if a == nil {
		return Block{}, &ConstructionError{Block: BlockMatrix, Missing: "product record"}
	}
	if b == nil {
		return Block{}, &ConstructionError{Block: BlockMatrix, Missing: "synthesized competitor"}
	}

	rows := []ComparisonRow{
		{Feature: "Price", A: "$" + a.FormatPrice(), B: "$" + b.FormatPrice(), Winner: cheaperOf(a, b)},
		{Feature: "Category", A: a.Category, B: b.Category},
	}

	seen := make(map[string]bool, len(a.Attributes))
	for _, attr := range a.Attributes {
		seen[attr.Key] = true
		bVal, _ := b.Attribute(attr.Key)
		rows = append(rows, compareFeature(attr.Key, attr.Value, bVal, a.Name, b.Name))
	}
	for _, attr := range b.Attributes {
		if seen[attr.Key] {
			continue
		}
		rows = append(rows, compareFeature(attr.Key, "", attr.Value, a.Name, b.Name))
	}

	return Block{
		Name:       BlockMatrix,
		Type:       TypeComparisonRows,
		Comparison: rows,
		Metadata: map[string]string{
			"product_a": a.Name,
			"product_b": b.Name,
		},
	}, nil
}

func compareFeature(key, aVal, bVal, aName, bName string) ComparisonRow {
	row := ComparisonRow{Feature: titleKey(key), A: aVal, B: bVal}
	switch {
	case aVal != "" && bVal == "":
		row.Winner = aName
		row.B = "—"
	case aVal == "" && bVal != "":
		row.Winner = bName
		row.A = "—"
	}
	return row
}

func cheaperOf(a, b *product.Record) string {
	switch {
	case a.Price < b.Price:
		return a.Name
	case b.Price < a.Price:
		return b.Name
	default:
		return ""
	}
}

// answerFor derives a deterministic answer for a question category from
// validated product data only.
func answerFor(cat product.QuestionCategory, p *product.Record) string {
	switch cat {
	case product.CategoryUsage:
		if v, ok := p.Attribute("how_to_use"); ok {
			return v
		}
		return fmt.Sprintf("Follow the usage guidance provided with %s.", p.Name)
	case product.CategorySafety:
		if v, ok := p.Attribute("side_effects"); ok {
			return v
		}
		return fmt.Sprintf("%s is formulated for general use; discontinue if irritation occurs.", p.Name)
	case product.CategoryIngredients:
		if v, ok := p.Attribute("key_ingredients"); ok {
			return "Key ingredients: " + v
		}
		return p.Description
	case product.CategoryBenefits:
		if v, ok := p.Attribute("benefits"); ok {
			return v
		}
		return p.Description
	case product.CategoryPurchase:
		return fmt.Sprintf("%s is priced at $%s.", p.Name, p.FormatPrice())
	case product.CategoryComparison:
		return fmt.Sprintf("%s competes in the %s category at $%s.", p.Name, p.Category, p.FormatPrice())
	default:
		return p.Description
	}
}

// titleKey renders a snake_case attribute key as a display label.
func titleKey(key string) string {
	out := make([]rune, 0, len(key))
	upper := true
	for _, r := range key {
		if r == '_' || r == '-' {
			out = append(out, ' ')
			upper = true
			continue
		}
		if upper && r >= 'a' && r <= 'z' {
			r = r - 'a' + 'A'
		}
		upper = false
		out = append(out, r)
	}
	return string(out)
}

package blocks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/pagecraft/internal/product"
)

func testProduct() *product.Record {
	return &product.Record{
		Name:        "GlowBoost Vitamin C Serum",
		Description: "A brightening face serum with 15% vitamin C.",
		Category:    "Skincare",
		Price:       24.99,
		Attributes: []product.Attribute{
			{Key: "key_ingredients", Value: "Vitamin C, Hyaluronic Acid"},
			{Key: "skin_type", Value: "All"},
			{Key: "volume", Value: "30ml"},
		},
	}
}

func testQuestions() map[product.QuestionCategory][]product.Question {
	return map[product.QuestionCategory][]product.Question{
		product.CategoryUsage: {
			{Category: product.CategoryUsage, Text: "How often should I apply it?"},
		},
		product.CategoryInformational: {
			{Category: product.CategoryInformational, Text: "What is this serum?"},
			{Category: product.CategoryInformational, Text: "Who makes it?"},
		},
		product.CategoryPurchase: {
			{Category: product.CategoryPurchase, Text: "How much does it cost?"},
		},
	}
}

func TestSet_AddAndGet(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(Block{Name: "one", Type: TypeText, Text: "a"}))
	require.NoError(t, s.Add(Block{Name: "two", Type: TypeText, Text: "b"}))

	b, ok := s.Get("one")
	require.True(t, ok)
	require.Equal(t, "a", b.Text)

	_, ok = s.Get("three")
	require.False(t, ok)

	require.Equal(t, []string{"one", "two"}, s.Names())
	require.Equal(t, 2, s.Len())
}

func TestSet_DuplicateAddFails(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(Block{Name: "one", Type: TypeText}))
	require.ErrorContains(t, s.Add(Block{Name: "one", Type: TypeText}), "already present")
}

func TestIntro(t *testing.T) {
	b, err := Intro(testProduct())
	require.NoError(t, err)
	require.Equal(t, BlockIntro, b.Name)
	require.Equal(t, TypeText, b.Type)
	require.Contains(t, b.Text, "GlowBoost Vitamin C Serum")
	require.Contains(t, b.Text, "brightening face serum")
}

func TestIntro_NilProduct(t *testing.T) {
	_, err := Intro(nil)
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, BlockIntro, cerr.Block)
}

func TestAttributeTable_RowOrder(t *testing.T) {
	b, err := AttributeTable(testProduct())
	require.NoError(t, err)
	require.Equal(t, TypeKVTable, b.Type)

	keys := make([]string, len(b.Rows))
	for i, r := range b.Rows {
		keys[i] = r.Key
	}
	require.Equal(t, []string{"Category", "Price", "Key Ingredients", "Skin Type", "Volume"}, keys)
	require.Equal(t, "$24.99", b.Rows[1].Value)
}

func TestHighlightList(t *testing.T) {
	b, err := HighlightList(testProduct())
	require.NoError(t, err)
	require.Equal(t, TypeBulletList, b.Type)
	require.Len(t, b.Items, 4)
	require.Equal(t, "Key Ingredients: Vitamin C, Hyaluronic Acid", b.Items[0])
	require.Contains(t, b.Items[3], "$24.99")
}

func TestQuestionList_CanonicalCategoryOrder(t *testing.T) {
	b, err := QuestionList(testProduct(), testQuestions())
	require.NoError(t, err)
	require.Equal(t, TypeQAList, b.Type)
	require.Len(t, b.QA, 4)

	// Informational before Usage before Purchase, per canonical order.
	require.Equal(t, "Informational", b.QA[0].Category)
	require.Equal(t, "Informational", b.QA[1].Category)
	require.Equal(t, "Usage", b.QA[2].Category)
	require.Equal(t, "Purchase", b.QA[3].Category)
}

func TestQuestionList_AnswersDerivedFromProduct(t *testing.T) {
	p := testProduct()
	b, err := QuestionList(p, testQuestions())
	require.NoError(t, err)

	// Usage has no how_to_use attribute, falls back to generic guidance.
	require.Contains(t, b.QA[2].Answer, p.Name)
	// Purchase answers always cite the price.
	require.Contains(t, b.QA[3].Answer, "$24.99")
}

func TestQuestionList_NoQuestions(t *testing.T) {
	_, err := QuestionList(testProduct(), nil)
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, BlockQuestions, cerr.Block)
}

func TestCategorySummary_OmitsEmptyCategories(t *testing.T) {
	b, err := CategorySummary(testQuestions())
	require.NoError(t, err)
	require.Equal(t, []KV{
		{Key: "Informational", Value: "2"},
		{Key: "Usage", Value: "1"},
		{Key: "Purchase", Value: "1"},
	}, b.Rows)
}

func TestComparisonMatrix(t *testing.T) {
	a := testProduct()
	b := &product.Record{
		Name:        "LumiDerm Radiance Serum",
		Description: "A radiance serum.",
		Category:    "Skincare",
		Price:       29.99,
		Attributes: []product.Attribute{
			{Key: "skin_type", Value: "Sensitive"},
			{Key: "texture", Value: "Gel"},
		},
	}

	blk, err := ComparisonMatrix(a, b)
	require.NoError(t, err)
	require.Equal(t, TypeComparisonRows, blk.Type)

	require.Equal(t, "Price", blk.Comparison[0].Feature)
	require.Equal(t, a.Name, blk.Comparison[0].Winner)
	require.Equal(t, "Category", blk.Comparison[1].Feature)

	// a's attributes in record order, then b-only attributes.
	features := make([]string, 0, len(blk.Comparison))
	for _, r := range blk.Comparison {
		features = append(features, r.Feature)
	}
	require.Equal(t, []string{"Price", "Category", "Key Ingredients", "Skin Type", "Volume", "Texture"}, features)

	// Attribute only a has: a wins, b shows a placeholder.
	require.Equal(t, a.Name, blk.Comparison[2].Winner)
	require.Equal(t, "—", blk.Comparison[2].B)

	// Attribute only b has: b wins.
	require.Equal(t, b.Name, blk.Comparison[5].Winner)
	require.Equal(t, "—", blk.Comparison[5].A)
}

func TestComparisonMatrix_EqualPriceNoWinner(t *testing.T) {
	a := testProduct()
	b := testProduct()
	b.Name = "Other Serum"

	blk, err := ComparisonMatrix(a, b)
	require.NoError(t, err)
	require.Empty(t, blk.Comparison[0].Winner)
}

func TestComparisonMatrix_MissingCompetitor(t *testing.T) {
	_, err := ComparisonMatrix(testProduct(), nil)
	var cerr *ConstructionError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, BlockMatrix, cerr.Block)
}

// All transforms must be pure: the same input always yields the same output.
func TestTransforms_Deterministic(t *testing.T) {
	p := testProduct()
	qs := testQuestions()
	comp := testProduct()
	comp.Name = "Competitor"
	comp.Price = 19.99

	build := func() []byte {
		s := NewSet()
		intro, _ := Intro(p)
		attrs, _ := AttributeTable(p)
		highlights, _ := HighlightList(p)
		price, _ := PriceSummary(p)
		questions, _ := QuestionList(p, qs)
		cats, _ := CategorySummary(qs)
		matrix, _ := ComparisonMatrix(p, comp)
		for _, b := range []Block{intro, attrs, highlights, price, questions, cats, matrix} {
			require.NoError(t, s.Add(b))
		}
		out := make([]Block, 0, s.Len())
		for _, name := range s.Names() {
			b, _ := s.Get(name)
			out = append(out, b)
		}
		data, err := json.Marshal(out)
		require.NoError(t, err)
		return data
	}

	first := build()
	for i := 0; i < 20; i++ {
		require.Equal(t, string(first), string(build()))
	}
}

func TestTitleKey(t *testing.T) {
	require.Equal(t, "Key Ingredients", titleKey("key_ingredients"))
	require.Equal(t, "Skin Type", titleKey("skin-type"))
	require.Equal(t, "Volume", titleKey("volume"))
}

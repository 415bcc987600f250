package product

// QuestionCategory classifies a generated user question.
type QuestionCategory string

// Canonical question categories. The generation stage rejects anything
// outside this set.
const (
	CategoryInformational QuestionCategory = "Informational"
	CategorySafety        QuestionCategory = "Safety"
	CategoryUsage         QuestionCategory = "Usage"
	CategoryPurchase      QuestionCategory = "Purchase"
	CategoryComparison    QuestionCategory = "Comparison"
	CategoryIngredients   QuestionCategory = "Ingredients"
	CategoryBenefits      QuestionCategory = "Benefits"
)

// QuestionCategories lists the canonical categories in presentation order.
var QuestionCategories = []QuestionCategory{
	CategoryInformational,
	CategorySafety,
	CategoryUsage,
	CategoryPurchase,
	CategoryComparison,
	CategoryIngredients,
	CategoryBenefits,
}

// ValidCategory reports whether c belongs to the canonical set.
func ValidCategory(c QuestionCategory) bool {
	for _, known := range QuestionCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Question is a single categorized user question about the product.
type Question struct {
	Category QuestionCategory `json:"category"`
	Text     string           `json:"text"`
}

package scans

// Advisory types for the model's analysis output. The model is prompted to
// follow this schema but is not contractually bound to it, so every field is
// optional and decodes to its zero value when absent or mistyped input is
// simply dropped by encoding/json.

// AnalysisResult is the parsed shape of one ingredient-label analysis.
type AnalysisResult struct {
	ProductName              string              `json:"product_name,omitempty"`
	SafetyScore              string              `json:"safety_score,omitempty"`
	IngredientsSummary       string              `json:"ingredients_summary,omitempty"`
	IngredientCategories     IngredientCategories `json:"ingredient_categories,omitempty"`
	AllergenAdditiveWarnings []string            `json:"allergen_additive_warnings,omitempty"`
	ProductSummary           string              `json:"product_summary,omitempty"`
}

// IngredientCategories buckets ingredients into four risk levels.
type IngredientCategories struct {
	Safe      Category `json:"safe,omitempty"`
	LowRisk   Category `json:"low_risk,omitempty"`
	NotGreat  Category `json:"not_great,omitempty"`
	Dangerous Category `json:"dangerous,omitempty"`
}

// Category is one risk bucket with its ingredient names and optional detail.
type Category struct {
	Percentage  string             `json:"percentage,omitempty"`
	Ingredients []string           `json:"ingredients,omitempty"`
	Details     []IngredientDetail `json:"details,omitempty"`
}

// IngredientDetail explains why one ingredient landed in its bucket.
type IngredientDetail struct {
	Ingredient string `json:"ingredient,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Amount     string `json:"amount,omitempty"`
}

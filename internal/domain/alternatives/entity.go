package alternatives

import (
	"encoding/json"
	"time"
)

// RequestID identifier type
type RequestID string

// Request is one persisted alternatives lookup: the parsed suggestions plus a
// copy of the analysis that prompted them. Append-only, like scans.
type Request struct {
	ID             RequestID       `json:"id"`
	UserID         string          `json:"user_id"`
	ProductName    string          `json:"product_name"`
	Alternatives   json.RawMessage `json:"alternatives"`
	SourceAnalysis json.RawMessage `json:"original_analysis"`
	CreatedAt      time.Time       `json:"timestamp"`
}

// Advisory types for the model's alternatives output. Same caveat as the
// analysis schema: every field is optional at the boundary.

// Result is the parsed shape of one alternatives suggestion.
type Result struct {
	Alternatives  []Product `json:"alternatives,omitempty"`
	GeneralAdvice *Advice   `json:"general_advice,omitempty"`
}

// Product is one suggested alternative.
type Product struct {
	ProductName     string            `json:"product_name,omitempty"`
	Brand           string            `json:"brand,omitempty"`
	WhyBetter       string            `json:"why_better,omitempty"`
	KeyImprovements []string          `json:"key_improvements,omitempty"`
	SafetyScore     string            `json:"safety_score,omitempty"`
	PriceRange      string            `json:"price_range,omitempty"`
	Availability    string            `json:"availability,omitempty"`
	MainBenefits    []string          `json:"main_benefits,omitempty"`
	PurchaseLinks   map[string]string `json:"purchase_links,omitempty"`
}

// Advice is general shopping guidance attached to a suggestion set.
type Advice struct {
	AvoidIngredients   []string `json:"avoid_ingredients,omitempty"`
	LookForIngredients []string `json:"look_for_ingredients,omitempty"`
	ShoppingTips       []string `json:"shopping_tips,omitempty"`
}

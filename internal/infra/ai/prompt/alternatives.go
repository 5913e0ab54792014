package prompt

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/labelly/labelly-server/internal/domain/scans"
)

// Alternatives builds the follow-up prompt that asks for 3-5 healthier
// products based on a prior analysis. Fields missing from the analysis are
// defaulted rather than failing: the analysis schema is advisory and client
// supplied, so nothing here may assume a field is present.
func Alternatives(a scans.AnalysisResult) string {
	product := orUnknown(a.ProductName)
	score := orUnknown(a.SafetyScore)
	summary := orUnknown(a.IngredientsSummary)

	flagged := joinOrNone(append(
		append([]string{}, a.IngredientCategories.NotGreat.Ingredients...),
		a.IngredientCategories.Dangerous.Ingredients...,
	))
	allergens := joinOrNone(a.AllergenAdditiveWarnings)
	query := url.QueryEscape(product)

	var b strings.Builder
	fmt.Fprintf(&b, `A consumer scanned this product and wants healthier alternatives.

Product: %s
Safety score: %s
Summary: %s
Ingredients of concern: %s
Allergen/additive warnings: %s

Suggest 3-5 real alternative products that avoid the ingredients of concern. Respond with ONE valid JSON object only, no markdown, using exactly this structure:

{
  "alternatives": [
    {
      "product_name": "<string>",
      "brand": "<string>",
      "why_better": "<string>",
      "key_improvements": ["<string>"],
      "safety_score": "<string>",
      "price_range": "<string>",
      "availability": "<string>",
      "main_benefits": ["<string>"],
      "purchase_links": {
        "amazon": "https://www.amazon.com/s?k=<url-encoded product name>",
        "walmart": "https://www.walmart.com/search?q=<url-encoded product name>",
        "target": "https://www.target.com/s?searchTerm=<url-encoded product name>",
        "instacart": "https://www.instacart.com/store/s?k=<url-encoded product name>"
      }
    }
  ],
  "general_advice": {
    "avoid_ingredients": ["<string>"],
    "look_for_ingredients": ["<string>"],
    "shopping_tips": ["<string>"]
  }
}

Build each purchase_links entry from the retailer search URL templates above with the alternative's own name as the query (for reference, the scanned product's query string is "%s"). Do not invent direct product-page URLs.`,
		product, score, summary, flagged, allergens, query)

	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Unknown"
	}
	return s
}

func joinOrNone(items []string) string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it) == "" || it == "None" {
			continue
		}
		kept = append(kept, it)
	}
	if len(kept) == 0 {
		return "None"
	}
	return strings.Join(kept, ", ")
}

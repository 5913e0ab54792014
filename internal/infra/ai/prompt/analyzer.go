package prompt

// System provides the short instruction sent with every model call.
func System() string {
	return "Be precise and concise."
}

// AnalyzeLabel is the fixed ingredient-analysis prompt. It pins the model to
// a single JSON object matching the analysis schema; a full worked example is
// embedded to steer the output. No markdown fencing is requested, but the
// model may still wrap its answer in fences, so callers must strip them.
func AnalyzeLabel() string {
	return `Analyze the safety of a consumer product based on its ingredients listed in the attached image.

Respond with ONE valid JSON object only. No markdown, no code fences, no commentary before or after the object. Use exactly this structure:

{
  "product_name": "<string>",
  "safety_score": "<string, e.g. 72/100>",
  "ingredients_summary": "<one short paragraph>",
  "ingredient_categories": {
    "safe":      {"percentage": "<string>", "ingredients": ["<name>"], "details": [{"ingredient": "<name>", "reason": "<string>", "amount": "<string>"}]},
    "low_risk":  {"percentage": "<string>", "ingredients": ["<name>"], "details": [{"ingredient": "<name>", "reason": "<string>", "amount": "<string>"}]},
    "not_great": {"percentage": "<string>", "ingredients": ["<name>"], "details": [{"ingredient": "<name>", "reason": "<string>", "amount": "<string>"}]},
    "dangerous": {"percentage": "<string>", "ingredients": ["<name>"], "details": [{"ingredient": "<name>", "reason": "<string>", "amount": "<string>"}]}
  },
  "allergen_additive_warnings": ["<string>"],
  "product_summary": "<one sentence>"
}

Example of a complete response:

{
  "product_name": "Choco Crunch Cereal",
  "safety_score": "61/100",
  "ingredients_summary": "Mostly whole grains with added sugar, cocoa processed with alkali and two synthetic preservatives.",
  "ingredient_categories": {
    "safe": {"percentage": "55%", "ingredients": ["Whole Grain Oats", "Cocoa"], "details": [{"ingredient": "Whole Grain Oats", "reason": "Minimally processed grain", "amount": "Primary ingredient"}]},
    "low_risk": {"percentage": "20%", "ingredients": ["Sunflower Oil"], "details": [{"ingredient": "Sunflower Oil", "reason": "High omega-6 in large amounts", "amount": "Moderate"}]},
    "not_great": {"percentage": "20%", "ingredients": ["Sugar", "Natural Flavor"], "details": [{"ingredient": "Sugar", "reason": "Added sugar, 12g per serving", "amount": "High"}]},
    "dangerous": {"percentage": "5%", "ingredients": ["BHT"], "details": [{"ingredient": "BHT", "reason": "Synthetic preservative restricted in the EU", "amount": "Trace"}]}
  },
  "allergen_additive_warnings": ["May contain traces of peanuts", "Contains BHT"],
  "product_summary": "A mostly grain-based cereal held back by added sugar and a restricted preservative."
}

Rules: classify every legible ingredient into exactly one category; use ["None"] for an empty category; percentages are strings; base every risk judgement on reliable, up-to-date sources.`
}

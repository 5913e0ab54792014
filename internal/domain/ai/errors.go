package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrNotJSON indicates model output that is not a valid JSON document even
// after fence stripping. Callers must not attempt further repair.
var ErrNotJSON = errors.New("model output is not valid JSON")

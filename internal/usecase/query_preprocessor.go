package usecase

import (
	"regexp"
	"strings"

	"github.com/macrolens/recipesync/internal/platform/logger"
)

// QueryPreprocessor turns a catalog ingredient name into a USDA search query.
type QueryPreprocessor struct {
	log *logger.Logger
}

// Compiled regex patterns for query preprocessing
var (
	// Matches quantity patterns like "500 g", "1.5 l", "2 tbsp", "12 oz"
	sizeQuantityPattern = regexp.MustCompile(`\b\d+([.,]\d+)?\s*(fl\s*)?(oz|ounces?|lbs?|pounds?|ml|l|liters?|litres?|kg|g|grams?|tsp|tbsp|cups?)\b`)

	// Matches pack/count patterns like "6 pack", "pack of 6", "12 count", "3 pieces"
	packCountPattern = regexp.MustCompile(`\b\d+[-\s]*(pack|pk|count|ct)\b|\bpack\s*of\s*\d+\b|\b\d+\s*(cans?|bottles?|pieces?|pcs)\b`)

	// Bracketed asides such as "(optional)" or "[for garnish]"
	bracketPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)

	standaloneNumberPattern = regexp.MustCompile(`\b\d+([.,]\d+)?\b`)

	orphanPunctuationPattern = regexp.MustCompile(`\s+[,\-;:]+\s+|[,\-;:]+\s*$|^\s*[,\-;:]+`)

	// Multiple spaces cleanup
	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords carry no signal for a nutrient lookup.
var queryNoiseWords = map[string]bool{
	// preparation
	"chopped": true,
	"diced":   true,
	"sliced":  true,
	"minced":  true,
	"grated":  true,
	"peeled":  true,
	"crushed": true,
	"fresh":   true,
	"freshly": true,
	"finely":  true,
	"roughly": true,

	// size
	"large":  true,
	"medium": true,
	"small":  true,
	"big":    true,
	"mini":   true,

	// packaging
	"package": true,
	"box":     true,
	"bag":     true,
	"bottle":  true,
	"can":     true,
	"jar":     true,
	"pinch":   true,
	"handful": true,

	"optional": true,
	"to":       true,
	"taste":    true,
	"of":       true,
}

const maxQueryLength = 100

func NewQueryPreprocessor(log *logger.Logger) *QueryPreprocessor {
	return &QueryPreprocessor{log: log.With("service", "QueryPreprocessor")}
}

// Preprocess lowercases name and strips quantities, bracketed notes and preparation noise.
// When nothing survives, the trimmed lowercase name is returned unchanged.
func (p *QueryPreprocessor) Preprocess(name string) string {
	original := strings.ToLower(strings.TrimSpace(name))
	if original == "" {
		return ""
	}

	cleaned := bracketPattern.ReplaceAllString(original, " ")
	cleaned = sizeQuantityPattern.ReplaceAllString(cleaned, " ")
	cleaned = packCountPattern.ReplaceAllString(cleaned, " ")
	cleaned = standaloneNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = orphanPunctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(multiSpacePattern.ReplaceAllString(cleaned, " "))
	cleaned = strings.Trim(cleaned, ",;:- ")

	if len(cleaned) > maxQueryLength {
		cleaned = cleaned[:maxQueryLength]
		if lastSpace := strings.LastIndex(cleaned, " "); lastSpace > maxQueryLength/2 {
			cleaned = cleaned[:lastSpace]
		}
	}
	if cleaned == "" {
		cleaned = original
	}

	p.log.Debug("preprocessed query", "input", name, "output", cleaned)
	return cleaned
}

func removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, word := range words {
		if !queryNoiseWords[strings.Trim(word, ",.!?;:-'\"")] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// normalizeForCacheKey folds case and whitespace so equivalent names share a cache entry.
func normalizeForCacheKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "_")
}

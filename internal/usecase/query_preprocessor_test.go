package usecase

import (
	"strings"
	"testing"

	"github.com/macrolens/recipesync/internal/platform/logger"
)

func TestPreprocess(t *testing.T) {
	p := NewQueryPreprocessor(logger.NewNop())

	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain name is lowercased",
			input: "Apple",
			want:  "apple",
		},
		{
			name:  "removes gram quantity",
			input: "Flour, 500 g",
			want:  "flour",
		},
		{
			name:  "removes spoon measure",
			input: "2 tbsp Olive Oil",
			want:  "olive oil",
		},
		{
			name:  "removes preparation words",
			input: "Freshly Chopped Parsley",
			want:  "parsley",
		},
		{
			name:  "removes bracketed notes",
			input: "Chili flakes (optional)",
			want:  "chili flakes",
		},
		{
			name:  "removes size descriptors",
			input: "Large Eggs, 12 count",
			want:  "eggs",
		},
		{
			name:  "removes decimal comma quantity",
			input: "Milk 1,5 l",
			want:  "milk",
		},
		{
			name:  "keeps meaningful descriptors",
			input: "Whole Wheat Bread",
			want:  "whole wheat bread",
		},
		{
			name:  "falls back to original when everything is noise",
			input: "Fresh",
			want:  "fresh",
		},
		{
			name:  "empty input",
			input: "   ",
			want:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.Preprocess(tc.input)
			if got != tc.want {
				t.Errorf("Preprocess(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestPreprocess_LimitsLength(t *testing.T) {
	p := NewQueryPreprocessor(logger.NewNop())

	got := p.Preprocess(strings.Repeat("tomato ", 40))

	if len(got) > maxQueryLength {
		t.Errorf("len = %d, want <= %d", len(got), maxQueryLength)
	}
	if strings.HasSuffix(got, " ") {
		t.Errorf("query should be cut at a word boundary, got %q", got)
	}
}

func TestNormalizeForCacheKey(t *testing.T) {
	if got := normalizeForCacheKey("  Green   Apple "); got != "green_apple" {
		t.Errorf("normalizeForCacheKey = %q, want green_apple", got)
	}
}

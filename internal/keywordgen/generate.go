package keywordgen

import (
	"sort"
	"strings"
)

const (
	maxKeywordLen = 50
	minWords      = 2
	maxWords      = 5
)

// Candidate is one generated keyword with its combined weight and the
// combination level that produced it.
type Candidate struct {
	Keyword string
	Score   int
	Level   string // "specific" | "medium" | "broad"
}

// Generate builds up to maxCount candidates from classified tokens: two
// specific (MODEL-anchored), several medium (BRAND/SERIES + TYPE), and
// broad (TYPE or FEATURE) combinations, deduplicated case-insensitively and
// sorted by descending score.
func Generate(tokens []ClassifiedToken, maxCount int) []Candidate {
	valid := make([]ClassifiedToken, 0, len(tokens))
	for _, t := range tokens {
		if t.Category != CategoryModifier {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	byCat := map[Category][]ClassifiedToken{}
	for _, t := range valid {
		byCat[t.Category] = append(byCat[t.Category], t)
	}

	models := byCat[CategoryModel]
	brandsCat := byCat[CategoryBrand]
	types := byCat[CategoryType]
	series := byCat[CategorySeries]
	features := byCat[CategoryFeature]

	var candidates []Candidate

	if len(models) > 0 {
		model := models[0]
		if len(types) > 0 {
			addCombo(&candidates, []ClassifiedToken{types[0], model}, "specific")
		}
		if len(brandsCat) > 0 {
			addCombo(&candidates, []ClassifiedToken{brandsCat[0], model}, "specific")
		}
		if len(candidates) < 2 {
			candidates = append(candidates, Candidate{Keyword: model.Text, Score: model.Weight, Level: "specific"})
		}
	}

	if len(brandsCat) > 0 && len(types) > 0 {
		addCombo(&candidates, []ClassifiedToken{brandsCat[0], types[0]}, "medium")
	}
	if len(series) > 0 && len(types) > 0 {
		addCombo(&candidates, []ClassifiedToken{series[0], types[0]}, "medium")
	}
	if len(brandsCat) > 0 && len(series) > 0 {
		addCombo(&candidates, []ClassifiedToken{brandsCat[0], series[0]}, "medium")
	}
	if len(brandsCat) > 0 && len(types) > 0 {
		extra := firstOf(byCat[CategoryCapacity], byCat[CategoryQuantity])
		if extra != nil {
			addCombo(&candidates, []ClassifiedToken{brandsCat[0], types[0], *extra}, "medium")
		}
	}

	switch {
	case len(types) > 0:
		t := types[0]
		if len(features) > 0 {
			addCombo(&candidates, []ClassifiedToken{features[0], t}, "broad")
		} else {
			candidates = append(candidates, Candidate{Keyword: t.Text, Score: t.Weight, Level: "broad"})
		}
	case len(features) >= 2:
		addCombo(&candidates, features[:2], "broad")
	}

	if len(candidates) < 2 {
		limit := valid
		if len(limit) > maxWords {
			limit = limit[:maxWords]
		}
		text := joinOrdered(limit)
		score := 0
		for _, t := range limit {
			score += t.Weight
		}
		if text != "" && len(text) <= maxKeywordLen {
			candidates = append(candidates, Candidate{Keyword: text, Score: score, Level: "medium"})
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })

	seen := map[string]struct{}{}
	out := make([]Candidate, 0, maxCount)
	for _, c := range candidates {
		key := strings.ToLower(c.Keyword)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
		if len(out) >= maxCount {
			break
		}
	}
	return out
}

func addCombo(candidates *[]Candidate, tokens []ClassifiedToken, level string) {
	text := joinOrdered(tokens)
	if text == "" || len(text) > maxKeywordLen {
		return
	}
	wordCount := len(strings.Fields(text))
	if wordCount < minWords && level != "specific" {
		return
	}
	score := 0
	for _, t := range tokens {
		score += t.Weight
	}
	*candidates = append(*candidates, Candidate{Keyword: text, Score: score, Level: level})
}

func joinOrdered(tokens []ClassifiedToken) string {
	sorted := make([]ClassifiedToken, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return orderIndex(sorted[i].Category) < orderIndex(sorted[j].Category)
	})
	words := make([]string, len(sorted))
	for i, t := range sorted {
		words[i] = t.Text
	}
	return strings.TrimSpace(strings.Join(words, " "))
}

func orderIndex(c Category) int {
	if i, ok := categoryOrderIndex[c]; ok {
		return i
	}
	return 99
}

func firstOf(lists ...[]ClassifiedToken) *ClassifiedToken {
	for _, l := range lists {
		if len(l) > 0 {
			return &l[0]
		}
	}
	return nil
}

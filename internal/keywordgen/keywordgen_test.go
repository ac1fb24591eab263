package keywordgen

import "testing"

func TestTokenize_StripsMarkupAndPunctuation(t *testing.T) {
	got := tokenize("<b>삼성</b> 갤럭시 [정품] 무선/이어폰, 128GB")
	want := []string{"삼성", "갤럭시", "정품", "무선", "이어폰", "128GB"}
	if len(got) != len(want) {
		t.Fatalf("tokenize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestClassify_StaticDictionaries(t *testing.T) {
	tokens := Classify([]string{"삼성", "블랙", "스테인리스", "무료배송", "텀블러"}, nil, nil)
	want := []Category{CategoryBrand, CategoryColor, CategoryMaterial, CategoryModifier, CategoryFeature}
	for i, c := range tokens {
		if c.Category != want[i] {
			t.Errorf("token %q category = %v, want %v", c.Text, c.Category, want[i])
		}
	}
}

func TestClassify_DBDictionaryFallback(t *testing.T) {
	dbBrands := map[string]struct{}{"쿠쿠전자": {}}
	dbTypes := map[string]struct{}{"압력솥": {}}
	tokens := Classify([]string{"쿠쿠전자", "압력솥"}, dbBrands, dbTypes)
	if tokens[0].Category != CategoryBrand || tokens[0].Source != "db" {
		t.Errorf("got %+v, want db-sourced brand", tokens[0])
	}
	if tokens[1].Category != CategoryType || tokens[1].Source != "db" {
		t.Errorf("got %+v, want db-sourced type", tokens[1])
	}
}

func TestClassify_RegexCategories(t *testing.T) {
	tokens := Classify([]string{"500ml", "대형", "3개입", "XG500"}, nil, nil)
	want := []Category{CategoryCapacity, CategorySize, CategoryQuantity, CategoryModel}
	for i, c := range tokens {
		if c.Category != want[i] {
			t.Errorf("token %q category = %v, want %v", c.Text, c.Category, want[i])
		}
	}
}

func TestFromProductName_DedupsAndCaps(t *testing.T) {
	candidates := FromProductName("삼성 갤럭시 버즈 무선 이어폰 블루투스 5.0 화이트", nil, nil, 5)
	if len(candidates) == 0 {
		t.Fatal("FromProductName() returned no candidates")
	}
	if len(candidates) > 5 {
		t.Errorf("len(candidates) = %d, want <= 5", len(candidates))
	}
	seen := map[string]bool{}
	for _, c := range candidates {
		key := c.Keyword
		if seen[key] {
			t.Errorf("duplicate candidate keyword %q", key)
		}
		seen[key] = true
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Score > candidates[i-1].Score {
			t.Errorf("candidates not sorted by descending score at index %d", i)
		}
	}
}

// Package keywordgen turns a free-form product name into a ranked,
// deduplicated list of search keywords: tokenize, classify, generate.
// Ported in semantics from the original Python keyword engine, split the
// same way: weights, classify, tokenize, generate, dictionary.
package keywordgen

// Category is a closed set of token classifications.
type Category string

const (
	CategoryModel    Category = "MODEL"
	CategoryBrand    Category = "BRAND"
	CategoryType     Category = "TYPE"
	CategorySeries   Category = "SERIES"
	CategoryCapacity Category = "CAPACITY"
	CategoryQuantity Category = "QUANTITY"
	CategorySize     Category = "SIZE"
	CategoryColor    Category = "COLOR"
	CategoryMaterial Category = "MATERIAL"
	CategoryFeature  Category = "FEATURE"
	CategoryModifier Category = "MODIFIER"
)

// weights mirrors the original service's fixed scoring table.
var weights = map[Category]int{
	CategoryModel:    10,
	CategoryBrand:    9,
	CategoryType:     9,
	CategorySeries:   7,
	CategoryCapacity: 5,
	CategoryQuantity: 4,
	CategorySize:     4,
	CategoryColor:    3,
	CategoryMaterial: 3,
	CategoryFeature:  3,
	CategoryModifier: -2,
}

// categoryOrder is the canonical ordering candidates are joined in,
// matching the marketplace's standard product-name word order.
var categoryOrder = []Category{
	CategoryBrand, CategorySeries, CategoryModel, CategoryType,
	CategoryColor, CategoryMaterial, CategoryQuantity, CategorySize, CategoryCapacity,
	CategoryFeature,
}

var categoryOrderIndex = func() map[Category]int {
	m := make(map[Category]int, len(categoryOrder))
	for i, c := range categoryOrder {
		m[c] = i
	}
	return m
}()

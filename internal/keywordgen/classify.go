package keywordgen

import (
	"regexp"
	"strings"
)

// ClassifiedToken is one tokenized word with its assigned category, weight,
// and the source that decided it (regex pattern, static dictionary, or the
// DB-derived dictionary).
type ClassifiedToken struct {
	Text     string
	Category Category
	Weight   int
	Source   string // "regex" | "dict" | "db"
}

var (
	capacityRe = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?(?:ml|l|g|kg|oz|cc|리터)$`)
	modelRe    = regexp.MustCompile(`^[A-Za-z]{1,5}\d+[A-Za-z0-9]{2,}$|^[A-Za-z]{0,3}\d{5,}[A-Za-z0-9]*$|^\d{3,4}[A-Za-z]{2,}\d*$`)
	sizeRe     = regexp.MustCompile(`(?i)^\d+(?:\.\d+)?(?:cm|mm|m|인치|inch)$|^(?:소형|중형|대형|특대형|특대|미니|점보|슬림|와이드|컴팩트|mini|slim|wide|compact|small|medium|large|jumbo)$`)
	quantityRe = regexp.MustCompile(`(?i)^\d+(?:개입|개|매|장|롤|팩|박스|캔|병|봉|포|세트|묶음|켤레|족|입|ea|pcs|pack)$`)
)

var brands = lowerSet(
	"삼성", "삼성전자", "lg", "lg전자", "현대", "sk", "cj", "롯데",
	"카카오", "네이버", "쿠쿠", "위니아", "대우", "한화", "코웨이",
	"apple", "아이폰", "갤럭시", "sony", "소니", "philips", "필립스",
	"dyson", "다이슨", "bosch", "보쉬", "panasonic", "파나소닉",
	"xiaomi", "샤오미", "lenovo", "레노버", "hp", "dell", "asus",
	"nike", "나이키", "adidas", "아디다스", "new balance", "뉴발란스",
	"오뚜기", "농심", "풀무원", "해태", "크라운", "빙그레", "매일유업",
	"남양유업", "동서식품", "삼양", "오리온", "하림", "청정원", "비비고",
	"한샘", "이케아", "시디즈", "에이스", "일룸", "리바트",
	"아모레", "이니스프리", "설화수", "라네즈", "미샤", "더페이스샵",
	"보솜이", "하기스", "팸퍼스", "유한킴벌리", "깨끗한나라",
	"3m", "듀라셀", "에너자이저", "코카콜라", "펩시",
	"무인양품", "다이소", "모나미", "스타벅스",
)

var colors = lowerSet(
	"빨강", "빨간", "레드", "red", "파랑", "파란", "블루", "blue",
	"초록", "그린", "green", "노랑", "노란", "옐로우", "yellow",
	"검정", "검은", "블랙", "black", "흰", "화이트", "white",
	"회색", "그레이", "gray", "grey", "핑크", "pink",
	"보라", "퍼플", "purple", "오렌지", "orange",
	"베이지", "beige", "브라운", "brown", "갈색",
	"네이비", "navy", "민트", "mint", "아이보리", "ivory",
	"골드", "gold", "실버", "silver", "로즈골드",
)

var materials = lowerSet(
	"스테인리스", "스틸", "알루미늄", "실리콘", "나무", "원목", "대나무",
	"유리", "도자기", "세라믹", "플라스틱", "가죽", "천연가죽", "인조가죽",
	"면", "실크", "린넨", "폴리에스터", "나일론", "울", "캐시미어",
	"고무", "티타늄", "구리", "황동",
)

var modifiers = lowerSet(
	"무료배송", "당일배송", "즉시배송", "빠른배송",
	"할인", "특가", "세일", "이벤트", "프로모션",
	"정품", "병행수입", "국내배송", "해외직구",
	"추천", "인기", "베스트", "1위", "판매1위",
	"새상품", "리퍼", "중고", "전시품",
	"무료", "사은품", "증정", "덤",
	"국산", "수입", "정식수입",
)

func lowerSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// Classify assigns a category to each token, consulting regex patterns
// first, then static dictionaries, then the DB-derived dictionary, in that
// order. dbBrands/dbTypes are expected lowercased.
func Classify(tokens []string, dbBrands, dbTypes map[string]struct{}) []ClassifiedToken {
	out := make([]ClassifiedToken, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, classifyOne(tok, dbBrands, dbTypes))
	}
	return out
}

func classifyOne(token string, dbBrands, dbTypes map[string]struct{}) ClassifiedToken {
	lower := strings.ToLower(token)

	switch {
	case capacityRe.MatchString(token):
		return tok(token, CategoryCapacity, "regex")
	case sizeRe.MatchString(token):
		return tok(token, CategorySize, "regex")
	case quantityRe.MatchString(token):
		return tok(token, CategoryQuantity, "regex")
	case modelRe.MatchString(token):
		return tok(token, CategoryModel, "regex")
	}

	if _, ok := modifiers[lower]; ok {
		return tok(token, CategoryModifier, "dict")
	}
	if _, ok := colors[lower]; ok {
		return tok(token, CategoryColor, "dict")
	}
	if _, ok := materials[lower]; ok {
		return tok(token, CategoryMaterial, "dict")
	}
	if _, ok := brands[lower]; ok {
		return tok(token, CategoryBrand, "dict")
	}

	if _, ok := dbBrands[lower]; ok {
		return tok(token, CategoryBrand, "db")
	}
	if _, ok := dbTypes[lower]; ok {
		return tok(token, CategoryType, "db")
	}

	return tok(token, CategoryFeature, "dict")
}

func tok(text string, cat Category, source string) ClassifiedToken {
	return ClassifiedToken{Text: text, Category: cat, Weight: weights[cat], Source: source}
}

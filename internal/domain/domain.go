// Package domain holds the entities shared across marketguard's packages.
// Types here are plain data; persistence lives in internal/store and
// business rules live in the packages that operate on them.
package domain

import "time"

// SortMode is how a keyword asks the marketplace to order results.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortPriceAsc  SortMode = "price-asc"
)

func (s SortMode) Valid() bool {
	return s == SortRelevance || s == SortPriceAsc
}

// KeywordStatus is the outcome of the most recent crawl for a keyword.
type KeywordStatus string

const (
	KeywordPending KeywordStatus = "pending"
	KeywordSuccess KeywordStatus = "success"
	KeywordFailed  KeywordStatus = "failed"
)

// ShippingFeeType classifies how a listing's shipping fee was determined.
type ShippingFeeType string

const (
	ShippingPaid    ShippingFeeType = "paid"
	ShippingFree    ShippingFeeType = "free"
	ShippingUnknown ShippingFeeType = "unknown"
	ShippingError   ShippingFeeType = "error"
)

// RelevanceReason records why the classifier made its call. Empty string
// means relevant with no caveat.
type RelevanceReason string

const (
	ReasonManualBlacklist  RelevanceReason = "manual_blacklist"
	ReasonMyProduct        RelevanceReason = "my_product"
	ReasonIncludedOverride RelevanceReason = "included_override"
	ReasonPriceFilterMin   RelevanceReason = "price_filter_min"
	ReasonPriceFilterMax   RelevanceReason = "price_filter_max"
	ReasonModelCode        RelevanceReason = "model_code"
	ReasonSpecKeywords     RelevanceReason = "spec_keywords"
)

// AlertKind is a closed set of alert conditions the engine checks.
type AlertKind string

const (
	AlertPriceUndercut AlertKind = "price_undercut"
	AlertRankDrop      AlertKind = "rank_drop"
)

// CrawlRunStatus is the per-keyword outcome recorded in a CrawlLog row.
type CrawlRunStatus string

const (
	CrawlStatusSuccess CrawlRunStatus = "success"
	CrawlStatusFailed  CrawlRunStatus = "failed"
)

// CostKind distinguishes a flat cost from a percentage-of-price cost.
type CostKind string

const (
	CostFixed   CostKind = "fixed"
	CostPercent CostKind = "percent"
)

// Tenant is a business account. No authentication exists; an integer id is
// the only identity.
type Tenant struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	OwnStoreLabel        string    `json:"own_store_label,omitempty"` // empty means unset
	CrawlIntervalMinutes int       `json:"crawl_interval_minutes"`    // 0 disables scheduling
	CreatedAt            time.Time `json:"created_at"`
}

// CatalogProduct is one product a Tenant wants tracked.
type CatalogProduct struct {
	ID                int64             `json:"id"`
	TenantID          int64             `json:"tenant_id"`
	Name              string            `json:"name"`
	Category          string            `json:"category,omitempty"`
	CostPrice         int64             `json:"cost_price"`
	SellingPrice      int64             `json:"selling_price"`
	OwnListingID      string            `json:"own_listing_id,omitempty"` // empty means unset
	ModelCode         string            `json:"model_code,omitempty"`
	SpecKeywords      []string          `json:"spec_keywords,omitempty"`
	PriceFilterMinPct float64           `json:"price_filter_min_pct,omitempty"` // 0 means unset
	PriceFilterMaxPct float64           `json:"price_filter_max_pct,omitempty"` // 0 means unset
	PriceLocked       bool              `json:"price_locked"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// HasPriceFilterMin reports whether a minimum price filter percentage is set.
func (p *CatalogProduct) HasPriceFilterMin() bool { return p.PriceFilterMinPct > 0 }

// HasPriceFilterMax reports whether a maximum price filter percentage is set.
func (p *CatalogProduct) HasPriceFilterMax() bool { return p.PriceFilterMaxPct > 0 }

// Keyword is a search term tracked against one CatalogProduct.
type Keyword struct {
	ID            int64         `json:"id"`
	ProductID     int64         `json:"product_id"`
	Text          string        `json:"text"`
	SortMode      SortMode      `json:"sort_mode"`
	IsPrimary     bool          `json:"is_primary"`
	Active        bool          `json:"active"`
	LastCrawledAt *time.Time    `json:"last_crawled_at,omitempty"`
	LastStatus    KeywordStatus `json:"last_status,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}

// DedupKey identifies keywords that should be fetched together: same
// lowercase-trimmed text and sort mode, per spec §4.E step 1.
type DedupKey struct {
	Text     string
	SortMode SortMode
}

// Ranking is one listing captured at one crawl instant for one Keyword.
type Ranking struct {
	ID              int64           `json:"id"`
	KeywordID       int64           `json:"keyword_id"`
	CrawledAt       time.Time       `json:"crawled_at"`
	Rank            int             `json:"rank"`
	Title           string          `json:"title"`
	Price           int64           `json:"price"`
	Mall            string          `json:"mall"`
	ListingID       string          `json:"listing_id"`
	ShippingFee     int64           `json:"shipping_fee"`
	ShippingFeeType ShippingFeeType `json:"shipping_fee_type"`
	Brand           string          `json:"brand,omitempty"`
	Maker           string          `json:"maker,omitempty"`
	Category1       string          `json:"category1,omitempty"`
	Category2       string          `json:"category2,omitempty"`
	Category3       string          `json:"category3,omitempty"`
	Category4       string          `json:"category4,omitempty"`
	IsOwnStore      bool            `json:"is_own_store"`
	IsRelevant      bool            `json:"is_relevant"`
	RelevanceReason RelevanceReason `json:"relevance_reason,omitempty"`
}

// BlacklistEntry excludes a listing_id from relevance for one product.
type BlacklistEntry struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	ListingID string    `json:"listing_id"`
	MallName  string    `json:"mall_name,omitempty"` // denormalized for display only; matching is by listing_id
	CreatedAt time.Time `json:"created_at"`
}

// IncludeOverride forces a listing_id to be treated as relevant.
type IncludeOverride struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"product_id"`
	ListingID string    `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ShippingOverride pins a listing_id's shipping fee and is applied
// retroactively to extant rankings on upsert. The crawl persist phase does
// not consult overrides: rankings written by later crawls carry the scraped
// fee.
type ShippingOverride struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	ListingID   string    `json:"listing_id"`
	ShippingFee int64     `json:"shipping_fee"`
	CreatedAt   time.Time `json:"created_at"`
}

// CrawlLog is an append-only record of one keyword fetch/persist attempt.
type CrawlLog struct {
	ID         int64          `json:"id"`
	KeywordID  int64          `json:"keyword_id"`
	Status     CrawlRunStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Alert is a user-facing notification emitted by the alert engine.
type Alert struct {
	ID        int64          `json:"id"`
	TenantID  int64          `json:"tenant_id"`
	ProductID int64          `json:"product_id,omitempty"` // 0 means tenant-wide
	Kind      AlertKind      `json:"kind"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

// AlertSetting toggles and thresholds one AlertKind for one Tenant.
type AlertSetting struct {
	TenantID  int64     `json:"tenant_id"`
	Kind      AlertKind `json:"kind"`
	Enabled   bool      `json:"enabled"`
	Threshold *float64  `json:"threshold,omitempty"`
}

// PushSubscription is a Web Push endpoint registered by a tenant's browser.
type PushSubscription struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"tenant_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}

// CostItem is one line item (fixed or percent-of-price) attached to a product.
type CostItem struct {
	ID        int64    `json:"id"`
	ProductID int64    `json:"product_id"`
	Label     string   `json:"label"`
	Amount    float64  `json:"amount"`
	Kind      CostKind `json:"kind"`
}

// CostPreset is a tenant-owned, named bundle of cost items applicable to new products.
type CostPreset struct {
	ID       int64      `json:"id"`
	TenantID int64      `json:"tenant_id"`
	Name     string     `json:"name"`
	Items    []CostItem `json:"items"`
}

package marketplace

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"marketguard/internal/domain"
)

const searchURL = "https://openapi.naver.com/v1/search/shop.json"

// allowedShippingHosts gates FetchShipping: URLs on any other host
// short-circuit to (0, unknown, nil) without a network call.
var allowedShippingHosts = map[string]struct{}{
	"shopping.naver.com":    {},
	"smartstore.naver.com":  {},
	"brand.naver.com":       {},
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// Client is a concurrency-safe marketplace client. One
// instance is shared process-wide across every tenant's crawl runs.
type Client struct {
	http      *http.Client
	clientID  string
	secret    string
	log       *zap.Logger
}

// NewClient builds a Client with a transport tuned for sustained keepalive
// reuse against the upstream marketplace (search + shipping scrape share
// one pool).
func NewClient(clientID, secret string, timeout time.Duration, log *zap.Logger) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		http:     &http.Client{Timeout: timeout, Transport: transport},
		clientID: clientID,
		secret:   secret,
		log:      log,
	}
}

type searchResponse struct {
	Items []struct {
		Title       string `json:"title"`
		Link        string `json:"link"`
		Image       string `json:"image"`
		LPrice      string `json:"lprice"`
		HPrice      string `json:"hprice"`
		MallName    string `json:"mallName"`
		ProductID   string `json:"productId"`
		ProductType string `json:"productType"`
		Brand       string `json:"brand"`
		Maker       string `json:"maker"`
		Category1   string `json:"category1"`
		Category2   string `json:"category2"`
		Category3   string `json:"category3"`
		Category4   string `json:"category4"`
	} `json:"items"`
}

// Search performs one search call for keyword under sortMode, returning
// listings in marketplace order with HTML stripped from titles.
func (c *Client) Search(ctx context.Context, keyword string, sortMode string) SearchResult {
	if c.clientID == "" || c.secret == "" {
		return SearchResult{Error: ErrCredentialsMissing}
	}

	sort := "sim"
	if sortMode == "price-asc" {
		sort = "asc"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return SearchResult{Error: fmt.Errorf("marketplace: build search request: %w", err)}
	}
	q := req.URL.Query()
	q.Set("query", keyword)
	q.Set("display", "10")
	q.Set("sort", sort)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-Naver-Client-Id", c.clientID)
	req.Header.Set("X-Naver-Client-Secret", c.secret)

	resp, err := c.doWithRetry(req)
	if err != nil {
		return SearchResult{Error: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return SearchResult{Error: fmt.Errorf("marketplace: read search body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SearchResult{Error: &StatusError{StatusCode: resp.StatusCode, URL: searchURL}}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return SearchResult{Error: fmt.Errorf("marketplace: decode search body: %w", err)}
	}
	if len(parsed.Items) == 0 {
		return SearchResult{Error: ErrNoResults}
	}

	listings := make([]Listing, 0, len(parsed.Items))
	for i, item := range parsed.Items {
		price, _ := strconv.ParseInt(item.LPrice, 10, 64)
		highPrice, _ := strconv.ParseInt(item.HPrice, 10, 64)
		listings = append(listings, Listing{
			Rank:      i + 1,
			Title:     stripHTML(item.Title),
			Price:     price,
			HighPrice: highPrice,
			MallName:  item.MallName,
			Link:      item.Link,
			Image:     item.Image,
			ListingID: item.ProductID,
			Brand:     item.Brand,
			Maker:     item.Maker,
			Category1: item.Category1,
			Category2: item.Category2,
			Category3: item.Category3,
			Category4: item.Category4,
		})
	}
	return SearchResult{Listings: listings, OK: true}
}

// FetchShipping scrapes a product page's embedded JSON for the shipping
// fee. Pages on hosts outside allowedShippingHosts are not fetched.
func (c *Client) FetchShipping(ctx context.Context, listingURL string) (int64, domain.ShippingFeeType, error) {
	host, err := hostOf(listingURL)
	if err != nil {
		return 0, domain.ShippingUnknown, nil
	}
	if _, ok := allowedShippingHosts[host]; !ok {
		return 0, domain.ShippingUnknown, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listingURL, nil)
	if err != nil {
		return 0, domain.ShippingError, fmt.Errorf("marketplace: build shipping request: %w", err)
	}
	req.Header.Set("User-Agent", mobileUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, domain.ShippingError, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, domain.ShippingError, &StatusError{StatusCode: resp.StatusCode, URL: listingURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, domain.ShippingError, fmt.Errorf("marketplace: read shipping body: %w", err)
	}
	if isErrorPage(body) {
		return 0, domain.ShippingError, nil
	}

	blob, err := extractPreloadBlob(body)
	if err != nil {
		return 0, domain.ShippingError, nil
	}
	fee, feeType, err := extractShippingFee(blob)
	if err != nil {
		return 0, domain.ShippingError, nil
	}
	return fee, feeType, nil
}

const mobileUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"

var titleErrorPattern = regexp.MustCompile(`(?is)<title>([^<]*)</title>`)

func isErrorPage(body []byte) bool {
	m := titleErrorPattern.FindSubmatch(body)
	if m == nil {
		return false
	}
	title := strings.ToLower(string(m[1]))
	return strings.Contains(title, "error") || strings.Contains(title, "오류") || strings.Contains(title, "찾을 수 없")
}

var preloadPrefixPattern = regexp.MustCompile(`window\.__PRELOADED_STATE__\s*=\s*`)

// extractPreloadBlob locates the assignment prefix and reads the balanced
// JSON object that follows it, ending at the brace that closes the first
// opening brace.
func extractPreloadBlob(body []byte) ([]byte, error) {
	loc := preloadPrefixPattern.FindIndex(body)
	if loc == nil {
		return nil, errShapeNotFound
	}
	rest := body[loc[1]:]

	depth := 0
	start := -1
	for i, b := range rest {
		switch b {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			depth--
			if depth == 0 && start != -1 {
				return rest[start : i+1], nil
			}
		}
	}
	return nil, errShapeNotFound
}

func stripHTML(s string) string {
	return htmlTagPattern.ReplaceAllString(s, "")
}

func hostOf(rawURL string) (string, error) {
	var host string
	if idx := strings.Index(rawURL, "://"); idx >= 0 {
		rest := rawURL[idx+3:]
		if slash := strings.Index(rest, "/"); slash >= 0 {
			host = rest[:slash]
		} else {
			host = rest
		}
	} else {
		return "", fmt.Errorf("marketplace: invalid url %q", rawURL)
	}
	if at := strings.Index(host, "@"); at >= 0 {
		host = host[at+1:]
	}
	if colon := strings.Index(host, ":"); colon >= 0 {
		host = host[:colon]
	}
	return host, nil
}

// doWithRetry performs a single attempt. Retrying belongs to the crawl
// coordinator's fetch phase, which already wraps Search in a bounded retry
// loop; retrying here too would multiply the effective attempt count.
func (c *Client) doWithRetry(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("marketplace request failed", zap.Error(err))
		return nil, err
	}
	return resp, nil
}

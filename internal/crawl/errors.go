package crawl

import "errors"

// ErrAlreadyRunning is returned when a crawl_product/crawl_tenant call
// finds its scope's mutex already held.
var ErrAlreadyRunning = errors.New("crawl: already running")

// ErrProductNotFound / ErrTenantNotFound surface a 404 at the HTTP layer.
var (
	ErrProductNotFound = errors.New("crawl: product not found")
	ErrTenantNotFound  = errors.New("crawl: tenant not found")
)

package marketplace

import (
	"encoding/json"
	"errors"
	"strings"

	"marketguard/internal/domain"
)

var errShapeNotFound = errors.New("marketplace: shipping shape not found")

// shippingShapeExtractor locates and decodes the shipping fee object inside
// a product page's embedded state-preload JSON. The vendor has changed this
// layout before; adding a new shape means adding an implementation, not
// touching FetchShipping.
type shippingShapeExtractor interface {
	extract(blob []byte) (fee int64, feeType domain.ShippingFeeType, ok bool)
}

// currentShape reads the layout in use as of this writing:
// {"delivery": {"baseFee": 2500, "isFree": false}}
type currentShape struct{}

func (currentShape) extract(blob []byte) (int64, domain.ShippingFeeType, bool) {
	var payload struct {
		Delivery *struct {
			BaseFee int64 `json:"baseFee"`
			IsFree  bool  `json:"isFree"`
		} `json:"delivery"`
	}
	if err := json.Unmarshal(blob, &payload); err != nil {
		return 0, domain.ShippingError, false
	}
	if payload.Delivery == nil {
		return 0, domain.ShippingError, false
	}
	if payload.Delivery.IsFree {
		return 0, domain.ShippingFree, true
	}
	if payload.Delivery.BaseFee > 0 {
		return payload.Delivery.BaseFee, domain.ShippingPaid, true
	}
	return 0, domain.ShippingFree, true
}

// legacyShape reads the layout seen on older store templates:
// {"shippingInfo": {"shippingFee": "2500", "shippingType": "유료"}}
type legacyShape struct{}

func (legacyShape) extract(blob []byte) (int64, domain.ShippingFeeType, bool) {
	var payload struct {
		ShippingInfo struct {
			ShippingFee  string `json:"shippingFee"`
			ShippingType string `json:"shippingType"`
		} `json:"shippingInfo"`
	}
	if err := json.Unmarshal(blob, &payload); err != nil {
		return 0, domain.ShippingError, false
	}
	if payload.ShippingInfo.ShippingType == "" && payload.ShippingInfo.ShippingFee == "" {
		return 0, domain.ShippingError, false
	}
	if strings.Contains(payload.ShippingInfo.ShippingType, "무료") {
		return 0, domain.ShippingFree, true
	}
	fee := parseDigits(payload.ShippingInfo.ShippingFee)
	if fee <= 0 {
		return 0, domain.ShippingFree, true
	}
	return fee, domain.ShippingPaid, true
}

var shippingShapes = []shippingShapeExtractor{currentShape{}, legacyShape{}}

func extractShippingFee(blob []byte) (int64, domain.ShippingFeeType, error) {
	for _, shape := range shippingShapes {
		if fee, feeType, ok := shape.extract(blob); ok {
			return fee, feeType, nil
		}
	}
	return 0, domain.ShippingError, errShapeNotFound
}

func parseDigits(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		n = n*10 + int64(r-'0')
	}
	return n
}

package alertengine

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"
)

// parseVAPIDPrivateKey decodes a base64url-encoded P-256 scalar (the raw
// web-push VAPID private key format) into an ECDSA key usable for ES256
// JWT signing.
func parseVAPIDPrivateKey(raw string) (*ecdsa.PrivateKey, []byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("decode vapid private key: %w", err)
	}
	curve := elliptic.P256()
	d := new(big.Int).SetBytes(b)
	x, y := curve.ScalarBaseMult(b)

	key := &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{Curve: curve, X: x, Y: y},
		D:         d,
	}
	return key, b, nil
}

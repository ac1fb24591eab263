package alertengine

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/hkdf"

	"marketguard/internal/config"
	"marketguard/internal/metrics"
	"marketguard/internal/store"
)

const (
	maxTitleRunes = 100
	maxBodyRunes  = 300
)

// PushSender delivers Web Push notifications (RFC 8291 aes128gcm payloads,
// VAPID ES256 JWTs) to every subscription registered for a tenant.
type PushSender struct {
	store    *store.Store
	http     *http.Client
	cfg      *config.Config
	log      *zap.Logger
	vapidKey *ecdsa.PrivateKey
}

func NewPushSender(st *store.Store, cfg *config.Config, log *zap.Logger) *PushSender {
	sender := &PushSender{
		store: st,
		http:  &http.Client{Timeout: 10 * time.Second},
		cfg:   cfg,
		log:   log,
	}
	if cfg.PushEnabled() {
		if key, _, err := parseVAPIDPrivateKey(cfg.VAPIDPrivateKey); err == nil {
			sender.vapidKey = key
		} else {
			log.Warn("alertengine: invalid VAPID private key, push disabled", zap.Error(err))
		}
	}
	return sender
}

// FanOut sends title/body to every push subscription of tenantID. Failures
// are logged and do not propagate; 404/410 responses delete the stale
// subscription.
func (p *PushSender) FanOut(ctx context.Context, tenantID int64, title, body string) {
	if !p.cfg.PushEnabled() || p.vapidKey == nil {
		return
	}

	title = truncateRunes(title, maxTitleRunes)
	body = truncateRunes(body, maxBodyRunes)

	subs, err := p.store.ListPushSubscriptionsByTenant(ctx, tenantID)
	if err != nil {
		p.log.Warn("alertengine: list push subscriptions failed", zap.Error(err))
		return
	}

	for _, sub := range subs {
		if err := p.send(ctx, sub.Endpoint, sub.P256dh, sub.Auth, title, body); err != nil {
			if se, ok := err.(*pushStatusError); ok && (se.status == 404 || se.status == 410) {
				metrics.PushDeliveryTotal.WithLabelValues("stale").Inc()
				if delErr := p.store.DeletePushSubscriptionByEndpoint(ctx, tenantID, sub.Endpoint); delErr != nil {
					p.log.Warn("alertengine: delete stale subscription failed", zap.Error(delErr))
				}
				continue
			}
			metrics.PushDeliveryTotal.WithLabelValues("error").Inc()
			p.log.Warn("alertengine: push delivery failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
			continue
		}
		metrics.PushDeliveryTotal.WithLabelValues("ok").Inc()
	}
}

type pushStatusError struct{ status int }

func (e *pushStatusError) Error() string { return fmt.Sprintf("alertengine: push endpoint returned %d", e.status) }

func (p *PushSender) send(ctx context.Context, endpoint, p256dhB64, authB64, title, body string) error {
	payload := fmt.Sprintf(`{"title":%q,"body":%q}`, title, body)

	encrypted, salt, serverPub, err := encryptPayload(p256dhB64, authB64, []byte(payload))
	if err != nil {
		return fmt.Errorf("encrypt push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encrypted))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("TTL", "86400")

	jwtStr, err := p.signVAPID(endpoint)
	if err != nil {
		return fmt.Errorf("sign vapid jwt: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("vapid t=%s, k=%s", jwtStr,
		base64.RawURLEncoding.EncodeToString(serverPub)))

	resp, err := p.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &pushStatusError{status: resp.StatusCode}
	}
	_ = salt
	return nil
}

func (p *PushSender) signVAPID(endpoint string) (string, error) {
	aud, err := audienceOf(endpoint)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"aud": aud,
		"exp": time.Now().Add(12 * time.Hour).Unix(),
		"sub": "mailto:" + p.cfg.VAPIDClaimEmail,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	return token.SignedString(p.vapidKey)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// --- RFC 8291 aes128gcm payload encryption ---

func encryptPayload(p256dhB64, authB64 string, plaintext []byte) (ciphertext, salt, serverPubKey []byte, err error) {
	clientPub, err := base64.RawURLEncoding.DecodeString(p256dhB64)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode p256dh: %w", err)
	}
	authSecret, err := base64.RawURLEncoding.DecodeString(authB64)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("decode auth secret: %w", err)
	}

	curve := ecdh.P256()
	clientKey, err := curve.NewPublicKey(clientPub)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("parse client public key: %w", err)
	}
	serverKey, err := curve.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("generate ephemeral key: %w", err)
	}
	shared, err := serverKey.ECDH(clientKey)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ecdh: %w", err)
	}

	salt = make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, nil, nil, err
	}

	prkInfo := bytes.Join([][]byte{
		[]byte("WebPush: info\x00"), clientPub, serverKey.PublicKey().Bytes(),
	}, nil)
	ikm := make([]byte, 32)
	if _, err := hkdf.New(sha256.New, shared, authSecret, prkInfo).Read(ikm); err != nil {
		return nil, nil, nil, err
	}

	cek := make([]byte, 16)
	if _, err := hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: aes128gcm\x00")).Read(cek); err != nil {
		return nil, nil, nil, err
	}
	nonce := make([]byte, 12)
	if _, err := hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: nonce\x00")).Read(nonce); err != nil {
		return nil, nil, nil, err
	}

	block, err := aes.NewCipher(cek)
	if err != nil {
		return nil, nil, nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, nil, err
	}

	padded := append(append([]byte{}, plaintext...), 0x02)
	sealed := gcm.Seal(nil, nonce, padded, nil)

	header := make([]byte, 16+4+1+len(serverKey.PublicKey().Bytes()))
	copy(header, salt)
	binary.BigEndian.PutUint32(header[16:20], uint32(4096))
	header[20] = byte(len(serverKey.PublicKey().Bytes()))
	copy(header[21:], serverKey.PublicKey().Bytes())

	out := append(header, sealed...)
	return out, salt, serverKey.PublicKey().Bytes(), nil
}

func audienceOf(endpoint string) (string, error) {
	var idx int
	for i := 0; i < len(endpoint); i++ {
		if endpoint[i] == '/' && i > 8 {
			idx = i
			break
		}
	}
	if idx == 0 {
		return "", fmt.Errorf("alertengine: malformed push endpoint %q", endpoint)
	}
	return endpoint[:idx], nil
}

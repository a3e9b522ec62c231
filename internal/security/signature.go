package security

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

// GatewaySigner produces and verifies the shared-secret authenticity hashes
// exchanged with the payment gateway.
//
// The two constructions are intentionally asymmetric: the outbound payment
// hash covers the callback URL, the inbound callback hash does not. That is
// the gateway's documented contract; do not "fix" it or callbacks from the
// unmodified gateway stop verifying.
type GatewaySigner struct {
	secret string
}

func NewGatewaySigner(secret string) *GatewaySigner {
	return &GatewaySigner{secret: secret}
}

// PaymentHash signs an outbound payment-initiation request:
// SHA1(UPPER("order_id;amount_100;currency_code;callback_url;secret")).
func (s *GatewaySigner) PaymentHash(orderID, amount100, currency, callbackURL string) string {
	return sha1Upper(orderID, amount100, currency, callbackURL, s.secret)
}

// CallbackHash is the inbound construction, without the callback URL:
// SHA1(UPPER("order_id;amount_100;currency_code;secret")).
func (s *GatewaySigner) CallbackHash(orderID, amount100, currency string) string {
	return sha1Upper(orderID, amount100, currency, s.secret)
}

// VerifyCallback compares the recomputed hash against the token supplied by
// the gateway. Comparison is case-insensitive per the gateway contract.
func (s *GatewaySigner) VerifyCallback(orderID, amount100, currency, token string) bool {
	return strings.EqualFold(s.CallbackHash(orderID, amount100, currency), token)
}

func sha1Upper(parts ...string) string {
	raw := strings.ToUpper(strings.Join(parts, ";"))
	sum := sha1.Sum([]byte(raw))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

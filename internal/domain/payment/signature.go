// Package payment holds the authenticity check for gateway payment callbacks.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Payload is the message the gateway signs for a completed payment.
func Payload(orderID, paymentID string) string {
	return orderID + "|" + paymentID
}

// Sign returns the lowercase hex HMAC-SHA256 of Payload(orderID, paymentID).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(Payload(orderID, paymentID)))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compares the expected signature with the supplied one byte for byte.
func Verify(secret, orderID, paymentID, signature string) bool {
	expected := Sign(secret, orderID, paymentID)
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(signature)))
}

// HMACVerifier checks callbacks against the shared gateway secret.
type HMACVerifier struct {
	Secret string
}

func (v HMACVerifier) Verify(orderID, paymentID, signature string) bool {
	if v.Secret == "" || orderID == "" || paymentID == "" || signature == "" {
		return false
	}
	return Verify(v.Secret, orderID, paymentID, signature)
}

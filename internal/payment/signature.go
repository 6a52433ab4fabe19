package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Signer подписывает и проверяет callback шлюза:
// hex(HMAC-SHA256(secret, gatewayOrderID + "|" + gatewayPaymentID))
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func (s *Signer) Verify(gatewayOrderID, gatewayPaymentID, signature string) bool {
	expected := s.Sign(gatewayOrderID, gatewayPaymentID)
	return hmac.Equal([]byte(expected), []byte(signature))
}

package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSigner_MatchesHMACOfJoinedIDs(t *testing.T) {
	s := NewSigner("secret")

	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_1|pay_1"))
	want := hex.EncodeToString(mac.Sum(nil))

	assert.Equal(t, want, s.Sign("order_1", "pay_1"))
	assert.True(t, s.Verify("order_1", "pay_1", want))
}

func TestSigner_RejectsTampering(t *testing.T) {
	s := NewSigner("secret")
	sig := s.Sign("order_1", "pay_1")

	assert.False(t, s.Verify("order_1", "pay_2", sig))
	assert.False(t, s.Verify("order_2", "pay_1", sig))
	assert.False(t, s.Verify("order_1", "pay_1", ""))
	assert.False(t, NewSigner("other").Verify("order_1", "pay_1", sig))
}

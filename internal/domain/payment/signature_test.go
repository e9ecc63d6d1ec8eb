package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func referenceDigest(secret, msg string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignMatchesHMACOfPipeJoinedIDs(t *testing.T) {
	want := referenceDigest("s", "order_1|pay_1")
	assert.Equal(t, want, Sign("s", "order_1", "pay_1"))
	assert.Equal(t, Sign("s", "order_1", "pay_1"), Sign("s", "order_1", "pay_1"))
	assert.Len(t, want, 64)
}

func TestVerifyRejectsAnyMutation(t *testing.T) {
	sig := Sign("s", "order_1", "pay_1")
	assert.True(t, Verify("s", "order_1", "pay_1", sig))

	cases := map[string][3]string{
		"order id":  {"order_2", "pay_1", sig},
		"payment":   {"order_1", "pay_2", sig},
		"signature": {"order_1", "pay_1", sig[:63] + "0"},
		"upper hex": {"order_1", "pay_1", "X" + sig[1:]},
		"plain":     {"order_1", "pay_1", "order_1|pay_1"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if name == "signature" && sig[63] == '0' {
				in[2] = sig[:63] + "1"
			}
			assert.False(t, Verify("s", in[0], in[1], in[2]))
		})
	}
	assert.False(t, Verify("other", "order_1", "pay_1", sig))
}

func TestHMACVerifierRequiresAllFields(t *testing.T) {
	v := HMACVerifier{Secret: "s"}
	sig := Sign("s", "order_1", "pay_1")
	assert.True(t, v.Verify("order_1", "pay_1", sig))
	assert.False(t, v.Verify("order_1", "pay_1", ""))
	assert.False(t, HMACVerifier{}.Verify("order_1", "pay_1", sig))
}

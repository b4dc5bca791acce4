package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
)

// VerifySignature checks the x-paystack-signature header against the raw
// webhook body. The signature is the hex HMAC-SHA512 of the body under the
// account's secret key.
func VerifySignature(secretKey, signature string, body []byte) bool {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}

package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// VerifySignature checks an HMAC-SHA256 signature against the raw request
// body. The signature is expected to be the lowercase hex digest of the body
// keyed with secret.
//
// The comparison runs over the full hex strings in constant time
// (crypto/subtle) to prevent timing attacks. An empty signature or secret is
// never valid. Malformed input is simply "not verified"; this function has no
// error path.
func VerifySignature(body []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}

	expected := ComputeSignature(body, secret)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(signature)) == 1
}

// ComputeSignature returns the lowercase hex HMAC-SHA256 of body keyed with
// secret. Used by verification, tests and delivery tooling.
func ComputeSignature(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

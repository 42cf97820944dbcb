package qstash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/macrolens/recipesync/internal/domain"
)

// SignatureHeader carries "<version>,<base64 HMAC-SHA256 of the raw body>".
const SignatureHeader = "Upstash-Signature"

const signatureVersion = "v1"

// Verifier authenticates job deliveries against the current and next signing keys.
type Verifier struct {
	currentKey []byte
	nextKey    []byte
}

func NewVerifier(currentKey, nextKey string) *Verifier {
	return &Verifier{currentKey: []byte(currentKey), nextKey: []byte(nextKey)}
}

// Sign returns a header value for body under key.
func Sign(key string, body []byte) string {
	return signatureVersion + "," + base64.StdEncoding.EncodeToString(mac([]byte(key), body))
}

func mac(key, body []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(body)
	return h.Sum(nil)
}

// Verify checks header against body, trying the current key first and then the next key.
func (v *Verifier) Verify(body []byte, header string) error {
	header = strings.TrimSpace(header)
	if header == "" {
		return fmt.Errorf("%w: missing signature header", domain.ErrAuthentication)
	}
	if len(v.currentKey) == 0 && len(v.nextKey) == 0 {
		return fmt.Errorf("%w: no signing keys configured", domain.ErrAuthentication)
	}

	_, encoded, ok := strings.Cut(header, ",")
	if !ok {
		return fmt.Errorf("%w: malformed signature header", domain.ErrAuthentication)
	}
	got, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return fmt.Errorf("%w: signature is not base64", domain.ErrAuthentication)
	}

	for _, key := range [][]byte{v.currentKey, v.nextKey} {
		if len(key) == 0 {
			continue
		}
		if hmac.Equal(got, mac(key, body)) {
			return nil
		}
	}
	return fmt.Errorf("%w: signature mismatch", domain.ErrAuthentication)
}

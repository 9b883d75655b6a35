package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"snowtracker/internal/types"
)

// SignatureHeader is the HTTP header carrying the payload signature.
const SignatureHeader = "X-Snowtracker-Signature"

// Signer produces HMAC-SHA256 payload signatures. The signed content is
// "{unix_timestamp}.{payload}", and the header value is "t=<unix>,v1=<hex>"
// so receivers can reject replayed deliveries.
type Signer struct {
	secret types.SecretString
}

// NewSigner creates a Signer. An empty secret disables signing: Sign returns
// an empty header value.
func NewSigner(secret types.SecretString) *Signer {
	return &Signer{secret: secret}
}

// Sign generates the signature header value for a payload.
func (s *Signer) Sign(payload []byte, now time.Time) string {
	if s.secret.Unmask() == "" {
		return ""
	}

	timestamp := now.Unix()
	mac := hmac.New(sha256.New, []byte(s.secret.Unmask()))
	fmt.Fprintf(mac, "%d.", timestamp)
	mac.Write(payload)

	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

// Verify checks a signature header value against a payload. Receivers use
// this in tests and example integrations.
func (s *Signer) Verify(payload []byte, header string, at time.Time) bool {
	return hmac.Equal([]byte(s.Sign(payload, at)), []byte(header))
}

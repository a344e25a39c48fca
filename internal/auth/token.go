package auth

import (
	"crypto/hmac"
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Password-reset tokens reuse the session signing scheme: the token embeds the
// account email and an absolute expiry, signed with the same HMAC key.
// Verification fails closed: any malformed, tampered or expired token yields ok=false.

const DefaultResetTokenTTL = 30 * time.Minute

// MakeResetToken builds a signed token of the form b64(email).expiry.sig.
func MakeResetToken(email string, ttl time.Duration) string {
	if ttl == 0 {
		ttl = DefaultResetTokenTTL
	}
	enc := base64.RawURLEncoding.EncodeToString([]byte(email))
	exp := strconv.FormatInt(time.Now().Add(ttl).Unix(), 10)
	return enc + "." + exp + "." + sign(enc+"."+exp)
}

// VerifyResetToken returns the embedded email if the token is authentic and
// not expired.
func VerifyResetToken(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	enc, expStr, sig := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(sig), []byte(sign(enc+"."+expStr))) {
		return "", false
	}
	exp, err := strconv.ParseInt(expStr, 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return "", false
	}
	email, err := base64.RawURLEncoding.DecodeString(enc)
	if err != nil {
		return "", false
	}
	return string(email), true
}

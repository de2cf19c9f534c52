// Package auth signs and checks the tokens a surface presents when it
// connects for an owner.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrTokenFormat = errors.New("invalid token format")
	ErrTokenSig    = errors.New("invalid token signature")
	ErrTokenExp    = errors.New("token expired")
	ErrTokenOwner  = errors.New("token issued for another owner")
)

// Sign builds base64url(owner + "." + exp + "." + hex(hmac_sha256(secret, owner+"."+exp))).
func Sign(secret, owner string, exp time.Time) string {
	msg := owner + "." + strconv.FormatInt(exp.Unix(), 10)
	raw := msg + "." + hex.EncodeToString(mac(secret, msg))
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// Verify checks token against owner. A token stays valid for skew past its
// expiry.
func Verify(secret, token, owner string, now time.Time, skew time.Duration) error {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrTokenFormat
	}
	s := string(b)
	i := strings.LastIndexByte(s, '.')
	if i < 0 {
		return ErrTokenFormat
	}
	msg, sigHex := s[:i], s[i+1:]
	j := strings.LastIndexByte(msg, '.')
	if j < 0 {
		return ErrTokenFormat
	}
	exp, err := strconv.ParseInt(msg[j+1:], 10, 64)
	if err != nil {
		return ErrTokenFormat
	}
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return ErrTokenFormat
	}
	if !hmac.Equal(mac(secret, msg), got) {
		return ErrTokenSig
	}
	if msg[:j] != owner {
		return ErrTokenOwner
	}
	if now.After(time.Unix(exp, 0).Add(skew)) {
		return ErrTokenExp
	}
	return nil
}

func mac(secret, msg string) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(msg))
	return h.Sum(nil)
}

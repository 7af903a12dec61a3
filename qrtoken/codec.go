// Package qrtoken signs and verifies the tokens printed in table QR codes.
//
// A token binds (tenantId, tableId, tokenVersion) under a server-held key:
//
//	base64url(payload) "." base64url(HMAC-SHA256(key, payload))
//	payload = tenantId "|" tableId "|" tokenVersion
//
// Encoding is deterministic, so the same table at the same version always
// yields the same token and it can be cached next to the table row.
package qrtoken

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const (
	separator   = "|"
	keyInfo     = "table-qr-token"
	keySize     = 32
	maxTokenLen = 512
)

// ErrInvalidToken is the only error Decode returns; a corrupted token and a
// forged one look the same to the caller.
var ErrInvalidToken = errors.New("qrtoken: invalid token")

var (
	ErrEmptySecret   = errors.New("qrtoken: empty secret")
	ErrInvalidClaims = errors.New("qrtoken: invalid claims")
)

var encoding = base64.RawURLEncoding.Strict()

type Claims struct {
	TenantID     string `json:"tenantId"`
	TableID      uint   `json:"tableId"`
	TokenVersion uint   `json:"tokenVersion"`
}

func (c Claims) valid() bool {
	return c.TenantID != "" &&
		!strings.Contains(c.TenantID, separator) &&
		c.TableID > 0 &&
		c.TokenVersion > 0
}

func (c Claims) payload() []byte {
	return []byte(c.TenantID + separator +
		strconv.FormatUint(uint64(c.TableID), 10) + separator +
		strconv.FormatUint(uint64(c.TokenVersion), 10))
}

type Codec struct {
	key []byte
}

// NewCodec derives the signing key from secret with HKDF-SHA256.
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, []byte(keyInfo)), key); err != nil {
		return nil, err
	}
	return &Codec{key: key}, nil
}

func (c *Codec) Encode(claims Claims) (string, error) {
	if !claims.valid() {
		return "", ErrInvalidClaims
	}

	payload := claims.payload()
	return encoding.EncodeToString(payload) + "." + encoding.EncodeToString(c.sign(payload)), nil
}

func (c *Codec) Decode(token string) (Claims, error) {
	if token == "" || len(token) > maxTokenLen {
		return Claims{}, ErrInvalidToken
	}

	parts := strings.Split(token, ".")
	if len(parts) != 2 {
		return Claims{}, ErrInvalidToken
	}

	payload, err := encoding.DecodeString(parts[0])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	sig, err := encoding.DecodeString(parts[1])
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	if !hmac.Equal(sig, c.sign(payload)) {
		return Claims{}, ErrInvalidToken
	}

	claims, ok := parsePayload(payload)
	if !ok {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func (c *Codec) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, c.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

func parsePayload(payload []byte) (Claims, bool) {
	fields := bytes.Split(payload, []byte(separator))
	if len(fields) != 3 {
		return Claims{}, false
	}

	tableID, ok := parseCanonical(string(fields[1]))
	if !ok {
		return Claims{}, false
	}
	version, ok := parseCanonical(string(fields[2]))
	if !ok {
		return Claims{}, false
	}

	claims := Claims{
		TenantID:     string(fields[0]),
		TableID:      tableID,
		TokenVersion: version,
	}
	return claims, claims.valid()
}

// parseCanonical accepts only the exact form FormatUint produces.
func parseCanonical(s string) (uint, bool) {
	n, err := strconv.ParseUint(s, 10, strconv.IntSize)
	if err != nil || strconv.FormatUint(n, 10) != s {
		return 0, false
	}
	return uint(n), true
}

// Encode is a one-shot helper around NewCodec(secret).Encode.
func Encode(tenantID string, tableID, tokenVersion uint, secret []byte) (string, error) {
	codec, err := NewCodec(secret)
	if err != nil {
		return "", err
	}
	return codec.Encode(Claims{TenantID: tenantID, TableID: tableID, TokenVersion: tokenVersion})
}

// Decode is a one-shot helper around NewCodec(secret).Decode.
func Decode(token string, secret []byte) (Claims, error) {
	codec, err := NewCodec(secret)
	if err != nil {
		return Claims{}, ErrInvalidToken
	}
	return codec.Decode(token)
}

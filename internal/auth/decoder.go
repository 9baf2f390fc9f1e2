package auth

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/library-console/internal/domain"
)

// segmentParser decodes base64url segments, tolerating both padded and
// unpadded input. A segment whose length leaves remainder 1 is malformed.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeCredential reads the identity claims of a JWT-shaped credential
// without verifying its signature. The result is a display hint only.
// It returns false for anything that does not carry a non-empty, non-zero id.
func DecodeCredential(token string) (*Identity, bool) {
	if token == "" {
		return nil, false
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, false
	}
	raw, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, false
	}

	claims := jwt.MapClaims{}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&claims); err != nil {
		return nil, false
	}

	id, ok := claimID(claims["id"])
	if !ok {
		return nil, false
	}

	ident := &Identity{
		ID:       id,
		Username: claimString(claims["username"]),
		Role:     domain.NormalizeRole(claimString(claims["role"])),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		ident.ExpiresAt = &t
	}
	return ident, true
}

// claimID accepts a non-empty string or a non-zero number.
func claimID(v any) (string, bool) {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err != nil || f == 0 {
			return "", false
		}
	}
	id := claimString(v)
	return id, id != ""
}

// claimString renders string and numeric claims. Numbers are written out in
// full, never with an exponent.
func claimString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return ""
	}
}

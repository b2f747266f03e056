package auth

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/concierge-portal/internal/domain"
)

// ErrMalformedToken is returned for tokens whose payload cannot be read.
var ErrMalformedToken = errors.New("malformed token")

// Claims describes the session token payload.
type Claims struct {
	UserID              string                     `json:"user_id,omitempty"`
	UserType            domain.Role                `json:"userType"`
	ServiceProviderType domain.ServiceProviderKind `json:"serviceProviderType,omitempty"`
	jwt.RegisteredClaims
}

// SubjectID returns the sub claim, falling back to user_id.
func (c *Claims) SubjectID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.UserID
}

// UnmarshalJSON accepts string or numeric values for the sub and user_id
// claims. Identifiers of any other type are dropped rather than failing.
func (c *Claims) UnmarshalJSON(data []byte) error {
	type plain Claims
	var raw struct {
		plain
		UserID  json.RawMessage `json:"user_id,omitempty"`
		Subject json.RawMessage `json:"sub,omitempty"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Claims(raw.plain)
	c.UserID = claimID(raw.UserID)
	c.Subject = claimID(raw.Subject)
	return nil
}

func claimID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// ExpiresBefore reports whether the token is expired at now. A token without
// an exp claim never counts as live.
func (c *Claims) ExpiresBefore(now time.Time) bool {
	if c.ExpiresAt == nil {
		return true
	}
	return !c.ExpiresAt.Time.After(now)
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims reads the payload segment of a compact token WITHOUT checking
// its signature. The result is a hint for routing and expiry checks only; the
// backend authorizes every request from the bearer header.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := decodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: payload is not base64: %v", ErrMalformedToken, err)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: payload is not a claim set: %v", ErrMalformedToken, err)
	}
	return &claims, nil
}

// decodeSegment reads base64url, padded or not, and falls back to the
// standard alphabet.
func decodeSegment(seg string) ([]byte, error) {
	payload, err := segmentParser.DecodeSegment(seg)
	if err == nil {
		return payload, nil
	}
	if std, stdErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(seg, "=")); stdErr == nil {
		return std, nil
	}
	return nil, err
}

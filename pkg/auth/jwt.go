package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
)

// ID is an identifier claim. The backend emits numeric ids for staff
// accounts and uuid strings for the rest, so both JSON forms decode.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id claim must be a string or a number: %s", b)
	}
	*id = ID(n.String())
	return nil
}

// Claims mirrors the payload the facility backend signs. Subject shadows
// the registered "sub" claim so numeric subjects decode.
type Claims struct {
	UserID   ID     `json:"userId,omitempty"`
	Subject  ID     `json:"sub,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (c Claims) GetSubject() (string, error) {
	return string(c.Subject), nil
}

// Actor returns the best identifier available for audit records.
func (c *Claims) Actor() string {
	switch {
	case c.UserID != "":
		return string(c.UserID)
	case c.Subject != "":
		return string(c.Subject)
	case c.Username != "":
		return c.Username
	default:
		return c.Email
	}
}

// HasRole reports whether the claims carry one of roles. An empty list allows any role.
func (c *Claims) HasRole(roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	return slices.Contains(roles, c.Role)
}

// Parse verifies an HS256 token signed with secret.
func Parse(tokenString, secret string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims, ok := tok.Claims.(*Claims); ok && tok.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// DecodePayload reads the claims without checking the signature. Expiry is
// still enforced. Only use the result for display and attribution.
func DecodePayload(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if err := jwt.NewValidator().Validate(claims); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}

// Resolve verifies the token when secret is set and decodes it otherwise.
func Resolve(tokenString, secret string) (*Claims, error) {
	if secret == "" {
		return DecodePayload(tokenString)
	}
	return Parse(tokenString, secret)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(token), nil
}

// Package auth issues and verifies bearer tokens, hashes passwords, stores
// one-time codes and provides the chi middleware that guards the API.
package auth

import (
	"errors"
	"fmt"
	"time"

	typesdb "github.com/Voltaic314/DataRoom/types/db"
	"github.com/golang-jwt/jwt"
)

// TokenTypeOrganization marks tokens issued to organization accounts.
const TokenTypeOrganization = "organization"

// Claims is what a bearer token carries.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Name  string `json:"name,omitempty"`

	// Organization tokens only.
	Type             string `json:"type,omitempty"`
	OrgID            string `json:"id,omitempty"`
	OrganizationName string `json:"organizationName,omitempty"`
}

// IsAdmin reports whether c belongs to an admin user. Nil claims are not.
func (c *Claims) IsAdmin() bool {
	return c != nil && c.Role == typesdb.RoleAdmin
}

// ErrTokenExpired is returned by Parse for a well-formed token past its exp.
var ErrTokenExpired = errors.New("token expired")

// ErrTokenInvalid covers bad signatures, malformed tokens and wrong algorithms.
var ErrTokenInvalid = errors.New("invalid token")

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs c with HS256.
func (t *Tokens) Issue(c Claims) (string, error) {
	now := t.now()
	mc := jwt.MapClaims{
		"email": c.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(t.ttl).Unix(),
	}
	if c.Role != "" {
		mc["role"] = c.Role
	}
	if c.Name != "" {
		mc["name"] = c.Name
	}
	if c.Type != "" {
		mc["type"] = c.Type
		mc["id"] = c.OrgID
		mc["organizationName"] = c.OrganizationName
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, mc).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies raw and returns its claims.
func (t *Tokens) Parse(raw string) (*Claims, error) {
	token, err := jwt.Parse(raw, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	str := func(k string) string {
		s, _ := mc[k].(string)
		return s
	}
	claims := &Claims{
		Email:            str("email"),
		Role:             str("role"),
		Name:             str("name"),
		Type:             str("type"),
		OrgID:            str("id"),
		OrganizationName: str("organizationName"),
	}
	if claims.Email == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shop-auth-api/internal/domain"
)

var nowFunc = time.Now

// Claims is the signed token payload: a reference to a session row, nothing
// more. The token deliberately carries no expiry claim — expiry lives in the
// Session row so that deleting the row revokes every previously issued,
// cryptographically still valid token at once.
type Claims struct {
	SessionID   string `json:"session_id"`
	PrincipalID string `json:"principal_id"`
	jwt.RegisteredClaims
}

// Codec signs and verifies HS256 bearer tokens with a server-wide secret.
// Immutable after construction; safe for concurrent use.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is empty")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Issue signs a token asserting {sessionID, principalID}.
func (c *Codec) Issue(sessionID, principalID string) (string, error) {
	claims := Claims{
		SessionID:   sessionID,
		PrincipalID: principalID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(nowFunc()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Verify checks the signature and returns the claims. It runs before any
// store lookup so tampered tokens never cost a round trip.
func (c *Codec) Verify(tokenStr string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidToken)
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid || claims.SessionID == "" || claims.PrincipalID == "" {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

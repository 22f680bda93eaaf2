package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"clubreg/entity"
)

// Claims carried in access tokens issued by this service.
type Claims struct {
	Username     string `json:"username,omitempty"`
	Role         string `json:"role"`
	MemberID     string `json:"member_id,omitempty"`
	MembershipID string `json:"membership_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() *entity.Identity {
	return &entity.Identity{
		Role:         c.Role,
		Username:     c.Username,
		MemberID:     c.MemberID,
		MembershipID: c.MembershipID,
	}
}

type tokenMaker struct {
	secret string
}

func (t *tokenMaker) generate(claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(t.secret))
}

func (t *tokenMaker) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(_ *jwt.Token) (any, error) {
		return []byte(t.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

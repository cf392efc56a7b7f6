package utils // package utils provides helpers for minting and reading access tokens

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessToken is a signed JWT along with its expiry.  Tokens are issued by
// the platform's identity service; this module only verifies them, and
// mints them for development tooling and tests.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// Identity is what a verified token says about its bearer.
type Identity struct {
	UserID uint64
	Role   string
}

// ErrInvalidToken covers every reason a bearer token is rejected.
var ErrInvalidToken = errors.New("invalid token")

// NewAccessToken builds and signs an HS256 JWT carrying sub, role, exp and
// iat claims.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and extracts the identity.
// Only HMAC signatures are accepted.  sub may be a string or a number.
func ParseAccessToken(secret, raw string) (Identity, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Identity{}, ErrInvalidToken
	}

	var id uint64
	switch sub := claims["sub"].(type) {
	case string:
		id, err = strconv.ParseUint(sub, 10, 64)
		if err != nil {
			return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
		}
	case float64:
		if sub < 1 || sub != float64(uint64(sub)) {
			return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
		}
		id = uint64(sub)
	default:
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if id == 0 {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	role, _ := claims["role"].(string)
	return Identity{UserID: id, Role: role}, nil
}

package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// AccessTokenExpiry is deliberately much shorter than the (unbounded)
	// refresh-credential lifetime: routine calls carry the bearer token, and
	// the opaque credential is redeemed for a fresh one without a password.
	AccessTokenExpiry = 15 * time.Minute

	TokenIssuer   = "knowledge tracing api"
	TokenAudience = "adapt math desktop-app"
)

var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("invalid token")
	ErrTokenMalformed = errors.New("malformed token")
)

// The desktop client deserializes aud as a bare string, not the RFC 7519
// one-element array form jwt/v5 emits by default.
func init() {
	jwt.MarshalSingleStringAsArray = false
}

// Claims is the signed access-token payload. Field names are a stable wire
// contract with the desktop client: sub, uid, iat, exp, iss, aud.
type Claims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256-signed access tokens. The signing
// secret is injected at construction and read-only afterwards.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

func NewTokenService(secret string) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Issue signs a fresh access token for the given user.
func (s *TokenService) Issue(userID int64, username string) (string, error) {
	now := s.now()
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate verifies the signature, issuer, audience and expiry of tokenString
// and returns its claims. Expired or tampered tokens return ErrTokenExpired /
// ErrTokenInvalid; syntactically broken input returns ErrTokenMalformed.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
	)

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrTokenInvalid
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// Package auth issues and verifies the HS256 access tokens that identify a
// searching member. Token issuance for login lives elsewhere; the API only
// verifies.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypeAccess is the only token type accepted by the search API.
const TokenTypeAccess = "access"

// AccessTokenExpiry is the lifetime of tokens issued by IssueAccessToken.
const AccessTokenExpiry = 15 * time.Minute

// DefaultLeeway tolerates clock skew between issuer and verifier.
const DefaultLeeway = 30 * time.Second

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrEmptyMemberID = errors.New("member id cannot be empty")
)

// Claims carries the member ID in the standard subject claim.
type Claims struct {
	jwt.RegisteredClaims
	Type string `json:"typ"`
}

// TokenService signs with the current secret and verifies against the
// current and, during a rotation, the previous secret.
type TokenService struct {
	secrets [][]byte
	leeway  time.Duration
	now     func() time.Time
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithPreviousSecret accepts tokens signed with an outgoing secret. An empty
// secret is ignored.
func WithPreviousSecret(secret string) Option {
	return func(s *TokenService) {
		if secret != "" {
			s.secrets = append(s.secrets, []byte(secret))
		}
	}
}

// WithLeeway overrides DefaultLeeway.
func WithLeeway(d time.Duration) Option {
	return func(s *TokenService) { s.leeway = d }
}

// NewTokenService creates a service for secret.
func NewTokenService(secret string, opts ...Option) *TokenService {
	s := &TokenService{
		secrets: [][]byte{[]byte(secret)},
		leeway:  DefaultLeeway,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueAccessToken signs an access token for memberID.
func (s *TokenService) IssueAccessToken(memberID string) (string, error) {
	if memberID == "" {
		return "", ErrEmptyMemberID
	}
	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   memberID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenExpiry)),
		},
		Type: TokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secrets[0])
}

// VerifyAccessToken validates tokenString and returns the member ID it was
// issued for. Tokens of any other type are rejected.
func (s *TokenService) VerifyAccessToken(tokenString string) (string, error) {
	var lastErr error
	for _, secret := range s.secrets {
		claims, err := s.parse(tokenString, secret)
		if err == nil {
			if claims.Type != TokenTypeAccess || claims.Subject == "" {
				return "", ErrInvalidToken
			}
			return claims.Subject, nil
		}
		lastErr = err
	}
	if errors.Is(lastErr, jwt.ErrTokenExpired) {
		return "", ErrExpiredToken
	}
	return "", ErrInvalidToken
}

func (s *TokenService) parse(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

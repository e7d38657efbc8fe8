package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned for every token failure: bad signature, expiry,
	// malformed input, or wrong token kind. Callers must not surface anything
	// more specific, to avoid oracle leakage.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSecret is returned when constructing a provider without a signing secret.
	ErrMissingSecret = errors.New("token signing secret is required")
)

// refreshTokenType is the discriminator claim value carried by refresh tokens.
const refreshTokenType = "refresh"

// Identity is the subject carried by a validated access token.
type Identity struct {
	UserID string
	Email  string
	Role   string
	Name   string
}

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email"`
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	// TokenType is empty on access tokens; present so a refresh token parsed as
	// an access token is detected and rejected.
	TokenType string `json:"type,omitempty"`
}

// RefreshClaims holds JWT claims for the refresh token, including the
// type discriminator that separates it from access tokens.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// TokenProvider issues and validates HS256 access and refresh tokens signed
// with a shared secret. There is no revocation list: a token stays valid until
// expiry, which is why sessions are tracked separately.
type TokenProvider struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	nowF       func() time.Time
}

// NewTokenProvider returns a TokenProvider signing with secret. secret must be
// non-empty; a missing secret is a deployment error, never defaulted here.
func NewTokenProvider(secret []byte, issuer string, accessTTL, refreshTTL time.Duration) (*TokenProvider, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		nowF:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// IssueAccess issues a short-lived access token for the given subject.
// Returns the signed token and its expiration time.
func (p *TokenProvider) IssueAccess(id Identity) (token string, expiresAt time.Time, err error) {
	now := p.nowF()
	expiresAt = now.Add(p.accessTTL)
	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: id.Email,
		Role:  id.Role,
		Name:  id.Name,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// IssueRefresh issues a long-lived refresh token carrying only the user id and
// the refresh discriminator claim.
func (p *TokenProvider) IssueRefresh(userID string) (token string, expiresAt time.Time, err error) {
	now := p.nowF()
	expiresAt = now.Add(p.refreshTTL)
	claims := RefreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		TokenType: refreshTokenType,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = t.SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// ValidateAccess parses and validates an access token (signature, expiry,
// issuer) and rejects refresh tokens by their discriminator claim.
func (p *TokenProvider) ValidateAccess(tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, p.keyFunc,
		jwt.WithTimeFunc(p.nowF))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*AccessClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return nil, ErrInvalidToken
	}
	if claims.TokenType == refreshTokenType {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UserID: claims.Subject,
		Email:  claims.Email,
		Role:   claims.Role,
		Name:   claims.Name,
	}, nil
}

// ValidateRefresh parses and validates a refresh token and asserts the
// discriminator claim, so access tokens can never be used to mint new ones.
// Returns the subject user id.
func (p *TokenProvider) ValidateRefresh(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RefreshClaims{}, p.keyFunc,
		jwt.WithTimeFunc(p.nowF))
	if err != nil {
		return "", ErrInvalidToken
	}
	claims, ok := token.Claims.(*RefreshClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.Issuer != p.issuer {
		return "", ErrInvalidToken
	}
	if claims.TokenType != refreshTokenType {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (p *TokenProvider) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, ErrInvalidToken
	}
	return p.secret, nil
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	// AccessTokenCookie carries the access token for browser clients.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie carries the refresh token for browser clients.
	RefreshTokenCookie = "refresh_token"

	accessTokenType  = "access"
	refreshTokenType = "refresh"

	defaultRefreshTTL = 30 * 24 * time.Hour

	claimsContextKey = "user"
	userIDContextKey = "userID"
)

// TokenManager issues and verifies HS256 access and refresh tokens.
// Each kind is signed with its own secret and carries its type as a claim,
// so neither can stand in for the other.
type TokenManager struct {
	secret        []byte
	ttl           time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration
	now           func() time.Time
}

// TokenOption customizes a TokenManager.
type TokenOption func(*TokenManager)

// WithRefreshTokens sets the signing secret and lifetime of refresh tokens.
func WithRefreshTokens(secret string, ttl time.Duration) TokenOption {
	return func(m *TokenManager) {
		m.refreshSecret = []byte(secret)
		m.refreshTTL = ttl
	}
}

func NewTokenManager(secret string, ttl time.Duration, opts ...TokenOption) *TokenManager {
	m := &TokenManager{
		secret:        []byte(secret),
		ttl:           ttl,
		refreshSecret: []byte(secret),
		refreshTTL:    defaultRefreshTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *TokenManager) TTL() time.Duration        { return m.ttl }
func (m *TokenManager) RefreshTTL() time.Duration { return m.refreshTTL }

// TokenPair is what a sign-in or a refresh hands out.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Issue signs an access token for user.
func (m *TokenManager) Issue(user *models.User) (string, error) {
	return m.sign(user, accessTokenType, m.secret, m.ttl)
}

// IssuePair signs a fresh access and refresh token for user.
func (m *TokenManager) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := m.Issue(user)
	if err != nil {
		return nil, err
	}
	refresh, err := m.sign(user, refreshTokenType, m.refreshSecret, m.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *TokenManager) sign(user *models.User, kind string, secret []byte, ttl time.Duration) (string, error) {
	now := m.now()
	claims := &models.JwtCustomClaims{
		UserID:    user.ID,
		Email:     user.Email,
		TokenType: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   fmt.Sprint(user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse verifies the signature, expiry and type of an access token.
func (m *TokenManager) Parse(token string) (*models.JwtCustomClaims, error) {
	return m.parse(token, accessTokenType, m.secret)
}

// ParseRefresh verifies a refresh token.
func (m *TokenManager) ParseRefresh(token string) (*models.JwtCustomClaims, error) {
	return m.parse(token, refreshTokenType, m.refreshSecret)
}

func (m *TokenManager) parse(token, kind string, secret []byte) (*models.JwtCustomClaims, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: missing %s token", apperrors.ErrUnauthorized, kind)
	}

	claims := &models.JwtCustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %s token expired", apperrors.ErrUnauthorized, kind)
		}
		return nil, fmt.Errorf("%w: invalid %s token", apperrors.ErrUnauthorized, kind)
	}
	if !parsed.Valid || claims.UserID == 0 || claims.TokenType != kind {
		return nil, fmt.Errorf("%w: invalid %s token", apperrors.ErrUnauthorized, kind)
	}
	return claims, nil
}

// UserIDFromToken lets the websocket gateway authenticate handshakes.
func (m *TokenManager) UserIDFromToken(token string) (uint, error) {
	claims, err := m.Parse(token)
	if err != nil {
		return 0, err
	}
	return claims.UserID, nil
}

// TokenFromRequest reads the access token from the cookie or the bearer header.
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// HandshakeToken also accepts a token query parameter, since browsers cannot
// set headers on a websocket handshake.
func HandshakeToken(r *http.Request) string {
	if token := TokenFromRequest(r); token != "" {
		return token
	}
	return r.URL.Query().Get("token")
}

// JWTAuthMiddleware checks for a valid JWT and extracts user claims.
func JWTAuthMiddleware(tokens *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := tokens.Parse(TokenFromRequest(c.Request()))
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
			}

			c.Set(claimsContextKey, claims)
			c.Set(userIDContextKey, claims.UserID)
			return next(c)
		}
	}
}

// CurrentUserID returns the authenticated user of the request, or 0.
func CurrentUserID(c echo.Context) uint {
	id, _ := c.Get(userIDContextKey).(uint)
	return id
}

// CurrentClaims returns the verified claims of the request, if any.
func CurrentClaims(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get(claimsContextKey).(*models.JwtCustomClaims)
	return claims
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	token, err := tokens.Issue(&models.User{ID: 9, Email: "a@example.com"})
	require.NoError(t, err)

	claims, err := tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), claims.UserID)
	assert.Equal(t, "a@example.com", claims.Email)

	id, err := tokens.UserIDFromToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(9), id)
}

func TestTokenManager_Rejects(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	other, err := NewTokenManager("other", time.Hour).Issue(&models.User{ID: 1})
	require.NoError(t, err)

	expiring := NewTokenManager("secret", time.Hour)
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := expiring.Issue(&models.User{ID: 1})
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": other,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Parse(token)
			assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
		})
	}
}

func TestTokenManager_RefreshTokens(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour, WithRefreshTokens("refresh-secret", 24*time.Hour))
	user := &models.User{ID: 5, Email: "r@example.com"}

	pair, err := tokens.IssuePair(user)
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, tokens.RefreshTTL())

	claims, err := tokens.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint(5), claims.UserID)

	_, err = tokens.Parse(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = tokens.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	// one secret for both kinds still keeps them apart
	shared := NewTokenManager("secret", time.Hour)
	pair, err = shared.IssuePair(user)
	require.NoError(t, err)
	_, err = shared.Parse(pair.RefreshToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	_, err = shared.ParseRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	again, err := shared.IssuePair(user)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, again.RefreshToken)
}

func TestTokenFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/ws?token=query", nil)
	assert.Empty(t, TokenFromRequest(req))
	assert.Equal(t, "query", HandshakeToken(req))

	req.Header.Set("Authorization", "Bearer header")
	assert.Equal(t, "header", TokenFromRequest(req))

	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie"})
	assert.Equal(t, "cookie", TokenFromRequest(req))
	assert.Equal(t, "cookie", HandshakeToken(req))
}

func TestJWTAuthMiddleware(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	token, err := tokens.Issue(&models.User{ID: 3})
	require.NoError(t, err)

	e := echo.New()
	handler := JWTAuthMiddleware(tokens)(func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]uint{"user_id": CurrentUserID(c)})
	})

	t.Run("valid bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		require.NoError(t, handler(e.NewContext(req, rec)))
		assert.JSONEq(t, `{"user_id":3}`, rec.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		err := handler(e.NewContext(req, httptest.NewRecorder()))

		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-midea/social/internal/apperrors"
	"github.com/anonto42/nano-midea/social/internal/middleware"
	"github.com/anonto42/nano-midea/social/internal/models"
	"github.com/anonto42/nano-midea/social/internal/repositories"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
	"go.uber.org/zap"
)

// IDTokenVerifier checks Firebase ID tokens. *auth.Client satisfies it.
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	userRepository repositories.UserRepository
	firebaseAuth   IDTokenVerifier
	tokens         *middleware.TokenManager
	secureCookie   bool
	log            *zap.SugaredLogger
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil, which
// disables the Firebase login route.
func NewAuthHandler(userRepo repositories.UserRepository, firebaseAuth IDTokenVerifier, tokens *middleware.TokenManager, secureCookie bool, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		userRepository: userRepo,
		firebaseAuth:   firebaseAuth,
		tokens:         tokens,
		secureCookie:   secureCookie,
		log:            log,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/signup", h.Signup)
	g.POST("/signin", h.SignIn)
	g.POST("/firebase-login", h.FirebaseLogin)
	g.POST("/refresh-token", h.RefreshToken)
	g.POST("/logout", h.Logout)
}

// Signup handles local user registration with email and password
func (h *AuthHandler) Signup(c echo.Context) error {
	var req models.CreateLocalUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	req.Email = strings.ToLower(req.Email)
	_, err := h.userRepository.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already registered")
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return httpError(err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to hash password").SetInternal(err)
	}

	user := &models.User{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return httpError(err)
	}

	return h.issueSession(c, http.StatusCreated, "User registered successfully", user)
}

// SignIn handles local user authentication with email and password
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req models.SignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userRepository.GetUserByEmail(c.Request().Context(), strings.ToLower(req.Email))
	if errors.Is(err, apperrors.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}
	if err != nil {
		return httpError(err)
	}

	// Firebase-only accounts have no local password.
	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.issueSession(c, http.StatusOK, "Signed in successfully", user)
}

// FirebaseLogin verifies a Firebase ID token and issues a local JWT.
// The account is matched by Firebase UID, then by email, and created otherwise.
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Firebase login is not configured")
	}

	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	email, _ := token.Claims["email"].(string)
	if email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Firebase account has no email")
	}
	email = strings.ToLower(email)
	name, _ := token.Claims["name"].(string)

	user, err := h.resolveFirebaseUser(ctx, token.UID, email, name)
	if err != nil {
		return httpError(err)
	}
	return h.issueSession(c, http.StatusOK, "Signed in successfully", user)
}

func (h *AuthHandler) resolveFirebaseUser(ctx context.Context, uid, email, name string) (*models.User, error) {
	user, err := h.userRepository.GetUserByFirebaseUID(ctx, uid)
	if err == nil {
		user.Email = email
		if name != "" {
			user.Name = name
		}
		return user, h.userRepository.UpdateUser(ctx, user)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	user, err = h.userRepository.GetUserByEmail(ctx, email)
	if err == nil {
		user.FirebaseUID = &uid
		return user, h.userRepository.UpdateUser(ctx, user)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	user = &models.User{
		Name:        name,
		Username:    "fb_" + uid,
		Email:       email,
		FirebaseUID: &uid,
	}
	if err := h.userRepository.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	h.log.Infow("user created from firebase login", "user_id", user.ID)
	return user, nil
}

// RefreshToken trades a valid refresh token, from the cookie or the body,
// for a new token pair.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var token string
	if cookie, err := c.Cookie(middleware.RefreshTokenCookie); err == nil {
		token = cookie.Value
	}
	if token == "" {
		var req models.RefreshTokenRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
		}
		token = req.RefreshToken
	}

	claims, err := h.tokens.ParseRefresh(token)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	}

	user, err := h.userRepository.GetUserByID(c.Request().Context(), claims.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired refresh token")
	}
	if err != nil {
		return httpError(err)
	}
	return h.issueSession(c, http.StatusOK, "Tokens refreshed successfully", user)
}

// Logout clears both token cookies.
func (h *AuthHandler) Logout(c echo.Context) error {
	h.clearCookie(c, middleware.AccessTokenCookie)
	h.clearCookie(c, middleware.RefreshTokenCookie)
	return respond(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *AuthHandler) issueSession(c echo.Context, status int, message string, user *models.User) error {
	pair, err := h.tokens.IssuePair(user)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}

	h.setCookie(c, middleware.AccessTokenCookie, pair.AccessToken, h.tokens.TTL())
	h.setCookie(c, middleware.RefreshTokenCookie, pair.RefreshToken, h.tokens.RefreshTTL())
	return respond(c, status, message, echo.Map{
		"token":         pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user":          user,
	})
}

func (h *AuthHandler) setCookie(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl.Seconds()),
	})
}

func (h *AuthHandler) clearCookie(c echo.Context, name string) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

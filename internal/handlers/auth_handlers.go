package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"

	"clubsphere/internal/errorz"
	"clubsphere/internal/logger"
	"clubsphere/internal/middleware"
	"clubsphere/internal/services"
)

const (
	sessionDuration = 5 * 24 * time.Hour
	tokenDuration   = 7 * 24 * time.Hour
)

// SessionIssuer exchanges a Firebase ID token for a session cookie. *auth.Client implements it.
type SessionIssuer interface {
	SessionCookie(ctx context.Context, idToken string, expiresIn time.Duration) (string, error)
}

// AuthHandler handles sign-up and session endpoints
type AuthHandler struct {
	users        *services.UserService
	sessions     SessionIssuer
	jwtSecret    string
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users *services.UserService, sessions SessionIssuer, jwtSecret string, secureCookie bool) *AuthHandler {
	return &AuthHandler{users: users, sessions: sessions, jwtSecret: jwtSecret, secureCookie: secureCookie}
}

// Register stores the profile of a freshly signed-up Firebase user
func (h *AuthHandler) Register(c echo.Context) error {
	var input services.RegisterUserInput
	if err := bind(c, &input); err != nil {
		return err
	}

	user, created, err := h.users.Register(c.Request().Context(), input)
	if err != nil {
		return err
	}
	if !created {
		return respond(c, http.StatusOK, echo.Map{"message": "User already exists", "user": user})
	}
	return respond(c, http.StatusCreated, echo.Map{"message": "User registered successfully", "user": user})
}

// IssueToken signs a 7-day HS256 token carrying the email
func (h *AuthHandler) IssueToken(c echo.Context) error {
	var req TokenRequest
	if err := bindAndValidate(c, &req, "Email is required"); err != nil {
		return err
	}
	if h.jwtSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"email": req.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenDuration).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.jwtSecret))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, echo.Map{"token": token})
}

// CreateSession verifies the bearer ID token and sets an HTTP-only session cookie
func (h *AuthHandler) CreateSession(c echo.Context) error {
	if h.sessions == nil {
		return errors.New("firebase is not initialized")
	}

	// a session can only be minted from an ID token, not from another session cookie
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	idToken := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if !strings.HasPrefix(header, "Bearer ") || idToken == "" {
		return errorz.New(errorz.Unauthenticated, "No token provided")
	}

	cookieValue, err := h.sessions.SessionCookie(c.Request().Context(), idToken, sessionDuration)
	if err != nil {
		logger.Named("auth").Warnw("failed to create session cookie", "error", err)
		return errorz.New(errorz.Unauthenticated, "Invalid or expired token")
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    cookieValue,
		MaxAge:   int(sessionDuration.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
		SameSite: http.SameSiteLaxMode,
	})
	return message(c, "Session created")
}

// Logout clears the session cookie
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		Path:     "/",
	})
	return message(c, "Logged out successfully")
}

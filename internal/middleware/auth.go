package middleware

import (
	"context"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"

	"clubsphere/internal/errorz"
	"clubsphere/internal/logger"
	"clubsphere/internal/models"
	"clubsphere/internal/policy"
)

// SessionCookieName is the cookie holding a Firebase session cookie
const SessionCookieName = "session"

// Context keys set by RequireAuth and RequireRole
const (
	ContextUserUID   = "userUID"
	ContextUserEmail = "userEmail"
	ContextUserName  = "userName"
	ContextActor     = "actor"
)

// TokenVerifier checks Firebase credentials. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	VerifySessionCookie(ctx context.Context, sessionCookie string) (*auth.Token, error)
}

// ActorResolver loads the stored role of a user
type ActorResolver interface {
	Actor(ctx context.Context, email string) (policy.Actor, error)
}

// RequireAuth accepts a Firebase ID token in the Authorization header, or a
// session cookie when no header is sent, and stores the caller in the context.
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	log := logger.Named("auth")

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			idToken := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			sessionCookie := ""
			if idToken == "" {
				if cookie, err := c.Cookie(SessionCookieName); err == nil {
					sessionCookie = cookie.Value
				}
			}
			if idToken == "" && sessionCookie == "" {
				return errorz.New(errorz.Unauthenticated, "No token provided")
			}

			if verifier == nil {
				log.Warn("Firebase is not configured, rejecting credentials")
				return errorz.New(errorz.Unauthenticated, "Invalid or expired token")
			}

			var (
				token *auth.Token
				err   error
			)
			if idToken != "" {
				token, err = verifier.VerifyIDToken(ctx, idToken)
			} else {
				token, err = verifier.VerifySessionCookie(ctx, sessionCookie)
			}
			if err != nil {
				log.Debugw("token verification failed", "error", err)
				return errorz.New(errorz.Unauthenticated, "Invalid or expired token")
			}

			email, _ := token.Claims["email"].(string)
			if email == "" {
				return errorz.New(errorz.Unauthenticated, "Invalid or expired token")
			}

			c.Set(ContextUserUID, token.UID)
			c.Set(ContextUserEmail, email)
			if name, ok := token.Claims["name"].(string); ok {
				c.Set(ContextUserName, name)
			}
			return next(c)
		}
	}
}

// RequireRole lets the request through only when the caller's stored role is role.
// It must run after RequireAuth.
func RequireRole(resolver ActorResolver, role models.Role) echo.MiddlewareFunc {
	message := "Access denied"
	switch role {
	case models.RoleAdmin:
		message = "Access denied. Admin role required."
	case models.RoleClubManager:
		message = "Access denied. Club Manager role required."
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, err := CurrentActor(c, resolver)
			if err != nil {
				return err
			}
			if actor.Role != role {
				return errorz.New(errorz.Forbidden, message)
			}
			return next(c)
		}
	}
}

// UserEmail returns the authenticated caller's email, or "" outside RequireAuth
func UserEmail(c echo.Context) string {
	email, _ := c.Get(ContextUserEmail).(string)
	return email
}

// CurrentActor returns the caller with their stored role, resolving it at most once per request
func CurrentActor(c echo.Context, resolver ActorResolver) (policy.Actor, error) {
	if actor, ok := c.Get(ContextActor).(policy.Actor); ok {
		return actor, nil
	}

	email := UserEmail(c)
	if email == "" {
		return policy.Actor{}, errorz.New(errorz.Unauthenticated, "No token provided")
	}
	actor, err := resolver.Actor(c.Request().Context(), email)
	if err != nil {
		return policy.Actor{}, err
	}
	c.Set(ContextActor, actor)
	return actor, nil
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

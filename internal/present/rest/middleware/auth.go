package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/tubesage/internal/domain"
	"github.com/totegamma/tubesage/internal/service"
)

var tracer = otel.Tracer("auth")

// TokenAuthenticator validates bearer tokens.
type TokenAuthenticator interface {
	AuthJwt(ctx context.Context, token string) (*service.AuthResult, error)
}

type AuthMiddleware struct {
	auth        TokenAuthenticator
	trustHeader bool
}

// NewAuthMiddleware builds the identity middleware. With trustHeader the
// requester id is also taken from the RequesterIdHeader set by a fronting
// proxy.
func NewAuthMiddleware(
	auth TokenAuthenticator,
	trustHeader bool,
) *AuthMiddleware {
	return &AuthMiddleware{
		auth:        auth,
		trustHeader: trustHeader,
	}
}

// IdentifyIdentity attaches the requester id to the request context when a
// valid credential is present. Anonymous requests pass through.
func (s *AuthMiddleware) IdentifyIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyIdentity")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")

		if authHeader != "" {
			authType, token, ok := strings.Cut(authHeader, " ")
			if !ok || authType != "Bearer" {
				span.RecordError(fmt.Errorf("only Bearer is acceptable"))
				goto skipCheckAuthorization
			}

			result, err := s.auth.AuthJwt(ctx, token)
			if err != nil {
				span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyIdentity: s.auth.AuthJwt failed"))
				goto skipCheckAuthorization
			}

			ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, result.UserID)
			ctx = context.WithValue(ctx, domain.RequesterRoleCtxKey, result.Role)
			span.SetAttributes(attribute.String("RequesterId", result.UserID))
		} else if s.trustHeader {
			if id := c.Request().Header.Get(domain.RequesterIdHeader); id != "" {
				ctx = context.WithValue(ctx, domain.RequesterIdCtxKey, id)
				ctx = context.WithValue(ctx, domain.RequesterRoleCtxKey, c.Request().Header.Get(domain.RequesterRoleHeader))
				span.SetAttributes(attribute.String("RequesterId", id))
			}
		}

	skipCheckAuthorization:
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequireIdentity rejects requests without an authenticated requester.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if domain.RequesterID(c.Request().Context()) == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"status":  "error",
				"error":   string(domain.CodeUnauthorized),
				"message": "Unauthorized",
			})
		}
		return next(c)
	}
}

// RequireRole rejects requesters that do not carry role. Use after
// RequireIdentity.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if domain.RequesterRole(c.Request().Context()) != role {
				return c.JSON(http.StatusForbidden, map[string]string{
					"status":  "error",
					"error":   string(domain.CodeForbidden),
					"message": "This page is only available to " + role + "s.",
				})
			}
			return next(c)
		}
	}
}

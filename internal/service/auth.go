package service

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"

	"github.com/totegamma/tubesage/jwt"
)

var tracer = otel.Tracer("service")

const tokenAudience = "tubesage"

type AuthService struct {
	secret string
}

func NewAuthService(secret string) *AuthService {
	return &AuthService{secret: secret}
}

type AuthResult struct {
	UserID string
	Email  string
	Role   string
}

func (s *AuthService) AuthJwt(ctx context.Context, token string) (*AuthResult, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.AuthJwt")
	defer span.End()

	if s.secret == "" {
		err := fmt.Errorf("token authentication is not configured")
		span.RecordError(err)
		return nil, err
	}

	claims, err := jwt.Validate(token, tokenAudience, s.secret)
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, err
	}

	return &AuthResult{UserID: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}

// IssueToken signs a token for userID. Used by the CLI to mint tokens for
// local testing.
func (s *AuthService) IssueToken(userID, email, role string, ttl time.Duration) (string, error) {
	return jwt.Create(userID, email, role, tokenAudience, ttl, s.secret)
}

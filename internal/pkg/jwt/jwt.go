package jwt

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// Service verifies HS256 access tokens issued by the identity provider.
// Token issuance lives outside this service.
type Service interface {
	JWTAuth() *jwtauth.JWTAuth
	Claims(ctx context.Context) (auth.Claims, error)
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// Claims reads the verified token placed in ctx by jwtauth.Verifier. Only
// access tokens are accepted.
func (j *JWTService) Claims(ctx context.Context) (auth.Claims, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		if err == jwtauth.ErrExpired {
			return auth.Claims{}, auth.ErrTokenExpired
		}
		return auth.Claims{}, auth.ErrInvalidToken
	}
	if token == nil {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return auth.Claims{}, auth.ErrInvalidToken
	}

	subject := token.Subject()
	if subject == "" {
		if userID, ok := claims["user_id"].(string); ok {
			subject = userID
		}
	}

	role, _ := claims["role"].(string)
	return auth.Claims{Subject: subject, Role: auth.Role(role)}, nil
}

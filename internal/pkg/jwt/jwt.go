package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeStream = "stream"

	streamTokenTTL = 5 * time.Minute
)

var ErrInvalidClaims = errors.New("token is missing required claims")

// Service verifies the access tokens issued by the HR core and mints the short-lived tokens
// used by event streams, which cannot send an Authorization header.
type Service interface {
	GenerateAccessToken(actor user.Actor, ttl time.Duration) (token string, expiresAt int64, err error)
	GenerateStreamToken(actor user.Actor) (token string, expiresIn int, err error)
	ValidateStreamToken(tokenString string) (user.Actor, error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	tokenAuth *jwtauth.JWTAuth
	now       func() time.Time
}

func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		tokenAuth: jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		now:       time.Now,
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(actor user.Actor, ttl time.Duration) (string, int64, error) {
	expiresAt := j.now().Add(ttl).Unix()
	claims := actorClaims(actor, TokenTypeAccess)
	claims["exp"] = expiresAt

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateStreamToken generates a short-lived token for SSE connections
func (j *JWTService) GenerateStreamToken(actor user.Actor) (string, int, error) {
	claims := actorClaims(actor, TokenTypeStream)
	claims["exp"] = j.now().Add(streamTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(streamTokenTTL.Seconds()), nil
}

// ValidateStreamToken validates an SSE token and returns its actor
func (j *JWTService) ValidateStreamToken(tokenString string) (user.Actor, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return user.Actor{}, err
	}
	return ActorFromToken(token, TokenTypeStream)
}

// ActorFromToken reads the caller from a verified token. The token must carry the expected
// type and a company scope.
func ActorFromToken(token jwt.Token, wantType string) (user.Actor, error) {
	claims := token.PrivateClaims()

	if tokenType, _ := claims["type"].(string); tokenType != wantType {
		return user.Actor{}, fmt.Errorf("%w: type", ErrInvalidClaims)
	}

	actor := user.Actor{UserID: token.Subject()}
	if actor.UserID == "" {
		actor.UserID, _ = claims["user_id"].(string)
	}
	actor.CompanyID, _ = claims["company_id"].(string)
	actor.EmployeeID, _ = claims["employee_id"].(string)
	role, _ := claims["role"].(string)
	actor.Role = user.Role(role)

	if actor.UserID == "" || actor.CompanyID == "" || actor.Role == "" {
		return user.Actor{}, ErrInvalidClaims
	}
	return actor, nil
}

func actorClaims(actor user.Actor, tokenType string) map[string]interface{} {
	claims := map[string]interface{}{
		"sub":        actor.UserID,
		"user_id":    actor.UserID,
		"company_id": actor.CompanyID,
		"role":       string(actor.Role),
		"type":       tokenType,
	}
	if actor.EmployeeID != "" {
		claims["employee_id"] = actor.EmployeeID
	}
	return claims
}

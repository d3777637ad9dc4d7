package jwt_test

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-attendance-payroll/internal/domain/user"
	"github.com/cmlabs-hris/hris-attendance-payroll/internal/pkg/jwt"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var hrAdmin = user.Actor{UserID: "u-1", EmployeeID: "e-1", CompanyID: "c-1", Role: user.RoleAdmin}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := jwt.NewJWTService("test-secret-key-for-jwt")

	token, expiresAt, err := svc.GenerateAccessToken(hrAdmin, time.Hour)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)

	actor, err := jwt.ActorFromToken(decoded, jwt.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, hrAdmin, actor)
}

func TestStreamTokenIsNotAnAccessToken(t *testing.T) {
	svc := jwt.NewJWTService("test-secret-key-for-jwt")

	token, expiresIn, err := svc.GenerateStreamToken(hrAdmin)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	actor, err := svc.ValidateStreamToken(token)
	require.NoError(t, err)
	assert.Equal(t, "c-1", actor.CompanyID)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	_, err = jwt.ActorFromToken(decoded, jwt.TokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrInvalidClaims)
}

func TestAccessTokenWithoutCompanyIsRejected(t *testing.T) {
	svc := jwt.NewJWTService("test-secret-key-for-jwt")

	token, _, err := svc.GenerateAccessToken(user.Actor{UserID: "u-1", Role: user.RoleEmployee}, time.Hour)
	require.NoError(t, err)

	decoded, err := jwtauth.VerifyToken(svc.JWTAuth(), token)
	require.NoError(t, err)
	_, err = jwt.ActorFromToken(decoded, jwt.TokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrInvalidClaims)
}

func TestStreamTokenWithWrongSecret(t *testing.T) {
	token, _, err := jwt.NewJWTService("secret-a").GenerateStreamToken(hrAdmin)
	require.NoError(t, err)

	_, err = jwt.NewJWTService("secret-b").ValidateStreamToken(token)
	assert.Error(t, err)
}

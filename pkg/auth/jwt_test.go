package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)

	claims := &Claims{
		ActorID:          uuid.New(),
		Email:            "coordinator@example.org",
		HomeHospitalID:   uuid.New(),
		HomeDepartmentID: uuid.New(),
	}

	token, err := svc.Generate(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	parsed, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, claims.ActorID, parsed.ActorID)
	assert.Equal(t, claims.Email, parsed.Email)
	assert.Equal(t, claims.HomeHospitalID, parsed.HomeHospitalID)
	assert.Equal(t, claims.HomeDepartmentID, parsed.HomeDepartmentID)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)
	verifier := NewTokenService("a-different-secret-32-bytes-long!!", time.Hour)

	token, err := issuer.Generate(&Claims{ActorID: uuid.New()})
	require.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService("test-secret-at-least-32-bytes-long", -time.Minute)

	token, err := svc.Generate(&Claims{ActorID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateRejectsMissingActor(t *testing.T) {
	svc := NewTokenService("test-secret-at-least-32-bytes-long", time.Hour)

	token, err := svc.Generate(&Claims{Email: "nobody@example.org"})
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/model"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret-key"
	sess := Session{UserID: 1, Username: "admin", Role: model.RoleAdmin}

	token, err := GenerateToken(secret, sess, time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(secret, token)
	require.NoError(t, err)

	assert.Equal(t, sess, claims.Session)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, "admin", claims.Subject)
}

func TestTokensHaveUniqueIDs(t *testing.T) {
	sess := Session{UserID: 1, Username: "admin", Role: model.RoleAdmin}
	a, err := GenerateToken("s", sess, time.Hour)
	require.NoError(t, err)
	b, err := GenerateToken("s", sess, time.Hour)
	require.NoError(t, err)

	ca, err := ValidateToken("s", a)
	require.NoError(t, err)
	cb, err := ValidateToken("s", b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("secret1", Session{UserID: 1, Username: "admin"}, time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken("secret2", token)
	assert.Error(t, err)
}

func TestValidateTokenInvalid(t *testing.T) {
	_, err := ValidateToken("secret", "not-a-token")
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	token, err := GenerateToken("test", Session{UserID: 1, Username: "test", Role: model.RoleUser}, 2*time.Hour)
	require.NoError(t, err)
	claims, err := ValidateToken("test", token)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(2*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestDefaultTokenTTL(t *testing.T) {
	token, err := GenerateToken("test", Session{UserID: 1}, 0)
	require.NoError(t, err)
	claims, err := ValidateToken("test", token)
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), claims.ExpiresAt.Time, 5*time.Second)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := GenerateToken("test", Session{UserID: 1}, time.Nanosecond)
	require.NoError(t, err)
	time.Sleep(1100 * time.Millisecond)

	_, err = ValidateToken("test", token)
	assert.Error(t, err)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itec-nfc/inventario/internal/db"
)

func TestGetJWTSecretGeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Len(t, secret1, 64) // 32 bytes = 64 hex chars

	secret2, err := GetJWTSecret(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, secret1, secret2)
}

func TestGetSettingMissing(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	v, err := GetSetting(ctx, database, "nope")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, SetSettingIfMissing(ctx, database, "k", "a"))
	require.NoError(t, SetSettingIfMissing(ctx, database, "k", "b"))
	v, err = GetSetting(ctx, database, "k")
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

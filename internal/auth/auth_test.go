package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUsername(t *testing.T) {
	tests := []struct {
		first, father, mother string
		want                  string
	}{
		{"José", "Núñez", "Ávila", "jnuneza"},
		{"Camila", "Rojas", "Soto", "crojass"},
		{"María José", "De la Fuente", "Pérez", "mdelafuentep"},
		{"Iñaki", "Muñoz", "", "imunoz"},
		{"", "Olivares", "Díaz", "olivaresd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GenerateUsername(tt.first, tt.father, tt.mother), "%s %s %s", tt.first, tt.father, tt.mother)
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "accionanino", Slugify("Acción Niño"))
	assert.Equal(t, "abc123", Slugify("  ABC-123  "))
	assert.Equal(t, "", Slugify("¿?"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("clave-segura")
	require.NoError(t, err)
	assert.NotEqual(t, "clave-segura", hash)
	assert.True(t, CheckPassword(hash, "clave-segura"))
	assert.False(t, CheckPassword(hash, "otra-clave"))
}

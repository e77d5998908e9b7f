package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Lotes-api/pkg/jwt"
)

func TestGenerateParse_RoundTrip(t *testing.T) {
	token, err := jwt.Generate("secreto", "op-1", "ANALISTA_CONTROL_CALIDAD", "lotes-api", 5)
	require.NoError(t, err)

	id, role, err := jwt.Parse("secreto", token)
	require.NoError(t, err)
	assert.Equal(t, "op-1", id)
	assert.Equal(t, "ANALISTA_CONTROL_CALIDAD", role)
}

func TestParse_Rejects(t *testing.T) {
	token, err := jwt.Generate("secreto", "op-1", "ADMIN", "lotes-api", 5)
	require.NoError(t, err)

	_, _, err = jwt.Parse("otro", token)
	assert.Error(t, err, "firma con otro secreto")

	expired, err := jwt.Generate("secreto", "op-1", "ADMIN", "lotes-api", -1)
	require.NoError(t, err)
	_, _, err = jwt.Parse("secreto", expired)
	assert.Error(t, err, "token vencido")

	_, _, err = jwt.Parse("", token)
	assert.Error(t, err, "secret vacío")

	_, err = jwt.Generate("", "op-1", "ADMIN", "lotes-api", 5)
	assert.Error(t, err)
}

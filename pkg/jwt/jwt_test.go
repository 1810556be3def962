package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scripttb/720CRM-sub000/pkg/jwt"
)

func TestGenerateParse(t *testing.T) {
	token, err := jwt.Generate("s3cret", "owner-1", jwt.RoleBilling, "billing-api", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("s3cret", "billing-api", token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", claims.OwnerID())
	assert.Equal(t, jwt.RoleBilling, claims.Role)
}

func TestParse_Rejects(t *testing.T) {
	token, err := jwt.Generate("s3cret", "owner-1", jwt.RoleAdmin, "billing-api", 5)
	require.NoError(t, err)
	expired, err := jwt.Generate("s3cret", "owner-1", jwt.RoleAdmin, "billing-api", -1)
	require.NoError(t, err)

	tests := []struct {
		name, secret, issuer, token string
	}{
		{"otra clave", "other", "billing-api", token},
		{"otro emisor", "s3cret", "someone-else", token},
		{"expirado", "s3cret", "billing-api", expired},
		{"basura", "s3cret", "", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := jwt.Parse(tt.secret, tt.issuer, tt.token)
			assert.ErrorIs(t, err, jwt.ErrInvalidToken)
		})
	}
}

func TestGenerate_RequiresSecretAndSubject(t *testing.T) {
	_, err := jwt.Generate("", "owner-1", jwt.RoleAdmin, "x", 5)
	assert.Error(t, err)
	_, err = jwt.Generate("s", "", jwt.RoleAdmin, "x", 5)
	assert.Error(t, err)
}

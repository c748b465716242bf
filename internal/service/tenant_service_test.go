package service

import (
	"gradebook_backend/internal/config"
	"gradebook_backend/internal/repository"
	"gradebook_backend/internal/util"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const seedYAML = `tenants:
  - code: KRE
    name: Krebs
    secret: kre-secret
    canCreateGroups: true
  - code: ADM
    name: Verwaltung
    secret: adm-secret
    isAdmin: true
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestEnsureSeeded(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	svc := NewTenantService(repo, writeSeed(t, seedYAML))

	require.NoError(t, svc.EnsureSeeded())
	tenants, err := svc.List()
	require.NoError(t, err)
	require.Len(t, tenants, 2)
	assert.Equal(t, "ADM", tenants[0].Code)
	assert.True(t, tenants[0].IsAdmin)

	_, err = svc.Create(CreateTenantInput{Code: "MUE", Name: "Müller", Secret: "s"})
	require.NoError(t, err)

	// 已有账号时不覆盖
	require.NoError(t, svc.EnsureSeeded())
	tenants, _ = svc.List()
	assert.Len(t, tenants, 3)

	tenants, err = svc.ResetToSeed()
	require.NoError(t, err)
	assert.Len(t, tenants, 2)
}

func TestEnsureSeededMissingFile(t *testing.T) {
	svc := NewTenantService(repository.NewMemoryTenantRepository(), filepath.Join(t.TempDir(), "none.yaml"))
	assert.NoError(t, svc.EnsureSeeded())
}

func TestLoadTenantSeedRejectsDuplicates(t *testing.T) {
	_, err := LoadTenantSeed(writeSeed(t, seedYAML+`  - code: KRE
    name: Again
    secret: x
`))
	assert.ErrorIs(t, err, util.ErrTenantExists)
}

func TestCreateTenantValidation(t *testing.T) {
	svc := NewTenantService(repository.NewMemoryTenantRepository(), "")
	tests := []struct {
		name string
		in   CreateTenantInput
	}{
		{"code too long", CreateTenantInput{Code: "ABCDEFGHIJKLMNOPQ", Name: "X", Secret: "s"}},
		{"code with space", CreateTenantInput{Code: "A B", Name: "X", Secret: "s"}},
		{"no name", CreateTenantInput{Code: "ABC", Name: " ", Secret: "s"}},
		{"no secret", CreateTenantInput{Code: "ABC", Name: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.in)
			var verr *util.ValidationError
			assert.ErrorAs(t, err, &verr)
		})
	}

	_, err := svc.Create(CreateTenantInput{Code: "ABC", Name: "X", Secret: "s"})
	require.NoError(t, err)
	_, err = svc.Create(CreateTenantInput{Code: "ABC", Name: "Y", Secret: "t"})
	assert.ErrorIs(t, err, util.ErrTenantExists)
}

func TestLogin(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	require.NoError(t, NewTenantService(repo, writeSeed(t, seedYAML)).EnsureSeeded())

	cfg := &config.Config{JWT: config.JWTConfig{Secret: "test-secret", ExpireTime: time.Hour}}
	auth := NewAuthService(repo, func() *config.Config { return cfg })

	token, tenant, err := auth.Login(" KRE ", "kre-secret")
	require.NoError(t, err)
	assert.Equal(t, "Krebs", tenant.Name)

	claims, err := util.ParseJWT(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, "KRE", claims.TenantCode)
	assert.True(t, claims.CanCreateGroups)
	assert.False(t, claims.IsAdmin)

	_, _, err = auth.Login("KRE", "wrong")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	_, _, err = auth.Login("NOPE", "kre-secret")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestAdminSecretOverride(t *testing.T) {
	repo := repository.NewMemoryTenantRepository()
	svc := NewTenantService(repo, writeSeed(t, seedYAML))
	svc.AdminSecret = "from-env"
	require.NoError(t, svc.EnsureSeeded())

	adm, err := repo.FindByCode("ADM")
	require.NoError(t, err)
	assert.Equal(t, "from-env", adm.Secret)
	kre, _ := repo.FindByCode("KRE")
	assert.Equal(t, "kre-secret", kre.Secret)
}

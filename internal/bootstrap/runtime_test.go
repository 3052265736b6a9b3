package bootstrap

import (
	"context"
	"testing"

	"agora/internal/config"
	"agora/internal/models"
	"agora/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const adminPassword = "Adm1n!Passw0rd"

func devConfig() *config.Config {
	return &config.Config{
		Env:                  "development",
		InitialAdminEmail:    " Root@Example.com ",
		InitialAdminUsername: "root",
		InitialAdminPassword: adminPassword,
	}
}

func TestEnsureSuperAdmin_CreatesOnce(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	require.NoError(t, EnsureSuperAdmin(ctx, devConfig(), db))
	require.NoError(t, EnsureSuperAdmin(ctx, devConfig(), db))

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "root@example.com", users[0].Email)
	assert.Equal(t, models.RoleSuperAdmin, users[0].Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(users[0].Password), []byte(adminPassword)))
}

func TestEnsureSuperAdmin_PromotesExistingAccount(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.User{
		Username: "owner", Email: "root@example.com", Password: "x", Role: models.RoleStudent,
	}).Error)

	require.NoError(t, EnsureSuperAdmin(context.Background(), devConfig(), db))

	var user models.User
	require.NoError(t, db.Where("email = ?", "root@example.com").First(&user).Error)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	assert.Equal(t, "owner", user.Username)
}

func TestEnsureSuperAdmin_Skips(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"production", func(c *config.Config) { c.Env = "production" }},
		{"test env", func(c *config.Config) { c.Env = "test" }},
		{"no email", func(c *config.Config) { c.InitialAdminEmail = "" }},
		{"no password", func(c *config.Config) { c.InitialAdminPassword = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := testutil.NewDB(t)
			cfg := devConfig()
			tt.mutate(cfg)

			require.NoError(t, EnsureSuperAdmin(context.Background(), cfg, db))

			var count int64
			require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestEnsureSuperAdmin_ExistingSuperAdmin(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, db.Create(&models.User{
		Username: "boss", Email: "boss@example.com", Password: "x", Role: models.RoleSuperAdmin,
	}).Error)

	require.NoError(t, EnsureSuperAdmin(context.Background(), devConfig(), db))

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestEnsureSuperAdmin_WeakPassword(t *testing.T) {
	db := testutil.NewDB(t)
	cfg := devConfig()
	cfg.InitialAdminPassword = "weak"

	err := EnsureSuperAdmin(context.Background(), cfg, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INITIAL_ADMIN_PASSWORD")
}

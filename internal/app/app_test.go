package app

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasing-backoffice/internal/config"
	"leasing-backoffice/internal/domain"
)

func testConfig() *config.Config {
	ep := config.EndpointConfig{BaseURL: "http://127.0.0.1:1", TimeoutSeconds: 1}
	return &config.Config{
		Database:      config.DatabaseConfig{Driver: config.DriverSQLite, Path: ":memory:"},
		Collaborators: config.CollaboratorsConfig{Fleet: ep, Damage: ep, Credit: ep},
		JWT:           config.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"},
		Metrics:       config.MetricsConfig{Enabled: true},
	}
}

func TestNew_SQLite(t *testing.T) {
	a, err := New(context.Background(), testConfig(), prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Metrics)
	assert.NotNil(t, a.Leases)

	names := []string{}
	for _, p := range a.Probers() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"fleet", "damage", "credit"}, names)

	_, err = a.Leases.GetLease(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	token, err := a.Tokens.GenerateAccessToken(1, "ops", config.RoleAdmin)
	require.NoError(t, err)
	claims, err := a.Tokens.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, config.RoleAdmin, claims.Role)
}

func TestNew_MetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	a, err := New(context.Background(), cfg, prometheus.NewRegistry())
	require.NoError(t, err)
	defer a.Close()
	assert.Nil(t, a.Metrics)
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Driver = "mysql"
	_, err := OpenStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewAlertService(t *testing.T) {
	assert.NotNil(t, NewAlertService(config.AlertsConfig{}))
	assert.NotNil(t, NewAlertService(config.AlertsConfig{
		Enabled:        true,
		SendGridAPIKey: "SG.test",
		FromEmail:      "noreply@lease.example",
		OperatorEmail:  "ops@lease.example",
	}))
}

// Package app builds the object graph shared by the server, the cronjob
// runner and the operator CLI.
package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"leasing-backoffice/internal/collaborator"
	"leasing-backoffice/internal/config"
	"leasing-backoffice/internal/logger"
	"leasing-backoffice/internal/metrics"
	"leasing-backoffice/internal/repository"
	"leasing-backoffice/internal/repository/postgres"
	"leasing-backoffice/internal/repository/sqlite"
	"leasing-backoffice/internal/security"
	"leasing-backoffice/internal/service"
)

// Store is a lease repository that owns its connection.
type Store interface {
	repository.LeaseRepository
	repository.Migrator
	Close() error
}

type App struct {
	Config  *config.Config
	Store   Store
	Fleet   *collaborator.FleetClient
	Damage  *collaborator.DamageClient
	Credit  *collaborator.CreditClient
	Alerts  service.AlertService
	Leases  service.LeaseService
	Tokens  security.TokenManager
	Metrics *metrics.Metrics
}

// OpenStore connects to the configured lease store.
func OpenStore(ctx context.Context, cfg *config.Config) (Store, error) {
	dsn := cfg.GetDatabaseConnectionString()
	switch cfg.Database.Driver {
	case config.DriverSQLite:
		logger.Info("Opening sqlite lease store", "path", cfg.Database.Path)
		store, err := sqlite.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverPostgres, "":
		logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database)
		db, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		logger.Info("Database connection established")
		return postgres.NewStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
}

// NewAlertService picks SendGrid when alerts are enabled and falls back to
// log-only alerts otherwise.
func NewAlertService(cfg config.AlertsConfig) service.AlertService {
	if !cfg.Enabled {
		logger.Info("Operator alerts disabled, logging only")
		return service.NewLogAlertService()
	}
	logger.Info("Operator alerts via SendGrid", "operator_email", cfg.OperatorEmail)
	return service.NewSendGridAlertService(cfg.SendGridAPIKey, cfg.FromEmail, cfg.FromName, cfg.OperatorEmail)
}

// New opens the store and wires collaborators and services. reg receives the
// metrics when cfg.Metrics.Enabled; pass nil to disable metrics entirely.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, error) {
	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewWithStore(cfg, store, reg), nil
}

// NewWithStore wires everything around an already opened store.
func NewWithStore(cfg *config.Config, store Store, reg prometheus.Registerer) *App {
	var m *metrics.Metrics
	if cfg.Metrics.Enabled && reg != nil {
		m = metrics.New(reg)
	}

	collab := cfg.Collaborators
	fleet := collaborator.NewFleetClient(collab.Fleet.BaseURL, collab.Fleet.Timeout(), collaborator.WithMetrics(m))
	damage := collaborator.NewDamageClient(collab.Damage.BaseURL, collab.Damage.Timeout(), collaborator.WithMetrics(m))
	credit := collaborator.NewCreditClient(collab.Credit.BaseURL, collab.Credit.Timeout(), collaborator.WithMetrics(m))

	alerts := NewAlertService(cfg.Alerts)
	leases := service.NewLeaseService(store, fleet, damage, credit, alerts, m, service.LeaseServiceConfig{})

	return &App{
		Config:  cfg,
		Store:   store,
		Fleet:   fleet,
		Damage:  damage,
		Credit:  credit,
		Alerts:  alerts,
		Leases:  leases,
		Tokens:  security.NewTokenManager(cfg.JWT.Secret, security.DefaultTokenTTL),
		Metrics: m,
	}
}

// Probers lists the collaborators in health-report order.
func (a *App) Probers() []collaborator.Prober {
	return []collaborator.Prober{a.Fleet, a.Damage, a.Credit}
}

func (a *App) Close() error {
	return a.Store.Close()
}

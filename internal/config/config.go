package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Collaborators CollaboratorsConfig `yaml:"collaborators"`
	JWT           JWTConfig           `yaml:"jwt"`
	Log           LogConfig           `yaml:"log"`
	Alerts        AlertsConfig        `yaml:"alerts"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// ServerConfig contains HTTP and gRPC listener settings
type ServerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	GRPCPort int    `yaml:"grpc_port"`
}

// DatabaseConfig selects and configures the lease store
type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "postgres" or "sqlite"
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
	Path     string `yaml:"path"` // sqlite file, ":memory:" allowed
}

// CollaboratorsConfig holds one endpoint per remote service the lease saga calls
type CollaboratorsConfig struct {
	Fleet  EndpointConfig `yaml:"fleet"`
	Damage EndpointConfig `yaml:"damage"`
	Credit EndpointConfig `yaml:"credit"`
}

type EndpointConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the per-call bound for the endpoint
func (e EndpointConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// JWTConfig contains the shared secret used to verify gateway tokens
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// AlertsConfig controls operator notifications for partial-success sagas
type AlertsConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
	OperatorEmail  string `yaml:"operator_email"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	ReconcileVehicleRelease string `yaml:"reconcile_vehicle_release"`
	ReportUnallocatedLeases string `yaml:"report_unallocated_leases"`
	ReconcileLookbackHours  int    `yaml:"reconcile_lookback_hours"`
}

// ReconcileLookback bounds how far back terminal leases are re-checked
func (s SchedulerConfig) ReconcileLookback() time.Duration {
	return time.Duration(s.ReconcileLookbackHours) * time.Hour
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultCollaboratorTimeoutSeconds = 5
)

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}
	if val := os.Getenv("DB_PATH"); val != "" {
		c.Database.Path = val
	}

	// Collaborators
	if val := os.Getenv("FLEET_BASE_URL"); val != "" {
		c.Collaborators.Fleet.BaseURL = val
	}
	if val := os.Getenv("DAMAGE_BASE_URL"); val != "" {
		c.Collaborators.Damage.BaseURL = val
	}
	if val := os.Getenv("CREDIT_BASE_URL"); val != "" {
		c.Collaborators.Credit.BaseURL = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}
	if val := os.Getenv("GRPC_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.GRPCPort)
	}

	// Alerts
	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Alerts.SendGridAPIKey = val
	}
	if val := os.Getenv("OPERATOR_EMAIL"); val != "" {
		c.Alerts.OperatorEmail = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.GRPCPort < 0 || c.Server.GRPCPort > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.Server.GRPCPort)
	}

	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	endpoints := map[string]*EndpointConfig{
		"fleet":  &c.Collaborators.Fleet,
		"damage": &c.Collaborators.Damage,
		"credit": &c.Collaborators.Credit,
	}
	for name, ep := range endpoints {
		if ep.BaseURL == "" {
			return fmt.Errorf("%s base URL is required", name)
		}
		if !strings.HasPrefix(ep.BaseURL, "http://") && !strings.HasPrefix(ep.BaseURL, "https://") {
			return fmt.Errorf("%s base URL must be http(s): %s", name, ep.BaseURL)
		}
		if ep.TimeoutSeconds < 0 {
			return fmt.Errorf("%s timeout must not be negative", name)
		}
		if ep.TimeoutSeconds == 0 {
			ep.TimeoutSeconds = defaultCollaboratorTimeoutSeconds
		}
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret must be at least 32 characters")
	}

	if c.Alerts.Enabled {
		if c.Alerts.SendGridAPIKey == "" {
			return fmt.Errorf("SendGrid API key is required when alerts are enabled")
		}
		if c.Alerts.FromEmail == "" || c.Alerts.OperatorEmail == "" {
			return fmt.Errorf("alert from and operator emails are required when alerts are enabled")
		}
	}
	if c.Alerts.FromName == "" {
		c.Alerts.FromName = "Lease Back Office"
	}

	if c.Scheduler.ReconcileVehicleRelease == "" {
		c.Scheduler.ReconcileVehicleRelease = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.ReportUnallocatedLeases == "" {
		c.Scheduler.ReportUnallocatedLeases = "0 0 7 * * *" // 7 AM UTC
	}
	if c.Scheduler.ReconcileLookbackHours == 0 {
		c.Scheduler.ReconcileLookbackHours = 72
	}

	return nil
}

// GetDatabaseConnectionString returns the driver-specific DSN
func (c *Config) GetDatabaseConnectionString() string {
	if c.Database.Driver == DriverSQLite {
		return c.Database.Path
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GetGRPCAddress returns the gRPC health listen address, empty when disabled
func (c *Config) GetGRPCAddress() string {
	if c.Server.GRPCPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.GRPCPort)
}

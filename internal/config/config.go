package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/canxphung/DA_CNPM_242/health_service/internal/health"
	"github.com/canxphung/DA_CNPM_242/health_service/internal/models"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig
	Logging  LoggingConfig
	Storage  StorageConfig
	MeterAPI MeterAPIConfig
	Backfill BackfillConfig
	Health   HealthConfig
	CORS     CORSConfig
	Sensors  []models.Sensor
}

// ServerConfig holds all server-related configuration
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverInfluxDB = "influxdb"
	DriverPostgres = "postgres"
)

// StorageConfig selects and configures the reading store
type StorageConfig struct {
	Driver   string
	InfluxDB InfluxDBConfig
	Postgres PostgresConfig
}

// InfluxDBConfig holds InfluxDB connection settings
type InfluxDBConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// PostgresConfig holds the Supabase/Postgres connection settings
type PostgresConfig struct {
	DSN   string
	Table string
}

// MeterAPIConfig holds settings for the upstream meter API
type MeterAPIConfig struct {
	BaseURL  string
	Timeout  time.Duration
	Attempts uint
}

// BackfillConfig controls the backfill job
type BackfillConfig struct {
	From            string
	EmptyDaysToStop int
}

// HealthConfig holds classification settings
type HealthConfig struct {
	Timezone   string
	Location   *time.Location
	Thresholds health.Thresholds
	// MaxRangeDays caps the dates one range or readings request may cover
	MaxRangeDays int
}

// CORSConfig holds allowed origins
type CORSConfig struct {
	AllowedOrigins []string
}

// LoadConfig loads the configuration from environment variables and config files
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if err = godotenv.Load("../../.env"); err != nil {
			log.Println("Warning: .env file not found or could not be loaded.")
		}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/health-service")

	setDefaults(v)

	// Bind environment variables
	v.SetEnvPrefix("HEALTH")
	v.AutomaticEnv()

	v.BindEnv("server.port", "HEALTH_PORT", "PORT")
	v.BindEnv("storage.driver", "STORAGE_DRIVER")
	v.BindEnv("storage.influxdb.url", "INFLUXDB_URL")
	v.BindEnv("storage.influxdb.token", "INFLUXDB_TOKEN")
	v.BindEnv("storage.influxdb.org", "INFLUXDB_ORG")
	v.BindEnv("storage.influxdb.bucket", "INFLUXDB_BUCKET")
	v.BindEnv("storage.postgres.dsn", "DATABASE_URL")
	v.BindEnv("storage.postgres.table", "SUPABASE_TABLE")
	v.BindEnv("meterApi.baseURL", "API_BASE_URL")
	v.BindEnv("backfill.emptyDaysToStop", "EMPTY_CHUNKS_TO_STOP")

	// Try to read the config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Println("No config file found. Using environment variables and defaults.")
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "30s")
	v.SetDefault("server.writeTimeout", "60s")
	v.SetDefault("server.shutdownTimeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.influxdb.url", "http://localhost:8086")
	v.SetDefault("storage.influxdb.measurement", "noise")
	v.SetDefault("storage.postgres.table", "meter_readings")

	v.SetDefault("meterApi.baseURL", "http://139.59.223.231:3000/api/meter-sound")
	v.SetDefault("meterApi.timeout", "30s")
	v.SetDefault("meterApi.attempts", 5)

	v.SetDefault("backfill.from", "2025-05-01")
	v.SetDefault("backfill.emptyDaysToStop", 7)

	v.SetDefault("health.timezone", "Asia/Singapore")
	v.SetDefault("health.readings_per_day", health.DefaultReadingsPerDay)
	v.SetDefault("health.offline_threshold", health.DefaultOfflineThreshold)
	v.SetDefault("health.degraded_threshold", health.DefaultDegradedThreshold)
	v.SetDefault("health.range_offline_threshold", health.DefaultRangeOfflineThreshold)
	v.SetDefault("health.range_online_threshold", health.DefaultRangeOnlineThreshold)
	v.SetDefault("health.max_range_days", health.DefaultMaxRangeDays)

	v.SetDefault("cors.allowedOrigins", []string{
		"http://localhost:8501", // Streamlit dashboard
		"http://localhost:5173",
		"http://localhost:3000",
	})
}

func fromViper(v *viper.Viper) (*Config, error) {
	var config Config

	// Parse durations
	readTimeout, err := time.ParseDuration(v.GetString("server.readTimeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid read timeout: %w", err)
	}
	writeTimeout, err := time.ParseDuration(v.GetString("server.writeTimeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid write timeout: %w", err)
	}
	shutdownTimeout, err := time.ParseDuration(v.GetString("server.shutdownTimeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	apiTimeout, err := time.ParseDuration(v.GetString("meterApi.timeout"))
	if err != nil {
		return nil, fmt.Errorf("invalid meter API timeout: %w", err)
	}

	config.Server = ServerConfig{
		Port:            v.GetString("server.port"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		ShutdownTimeout: shutdownTimeout,
	}

	config.Logging = LoggingConfig{
		Level:  v.GetString("logging.level"),
		Format: v.GetString("logging.format"),
	}

	config.Storage = StorageConfig{
		Driver: v.GetString("storage.driver"),
		InfluxDB: InfluxDBConfig{
			URL:         v.GetString("storage.influxdb.url"),
			Token:       v.GetString("storage.influxdb.token"),
			Org:         v.GetString("storage.influxdb.org"),
			Bucket:      v.GetString("storage.influxdb.bucket"),
			Measurement: v.GetString("storage.influxdb.measurement"),
		},
		Postgres: PostgresConfig{
			DSN:   v.GetString("storage.postgres.dsn"),
			Table: v.GetString("storage.postgres.table"),
		},
	}

	config.MeterAPI = MeterAPIConfig{
		BaseURL:  v.GetString("meterApi.baseURL"),
		Timeout:  apiTimeout,
		Attempts: v.GetUint("meterApi.attempts"),
	}

	config.Backfill = BackfillConfig{
		From:            v.GetString("backfill.from"),
		EmptyDaysToStop: max(1, v.GetInt("backfill.emptyDaysToStop")),
	}

	loc, err := time.LoadLocation(v.GetString("health.timezone"))
	if err != nil {
		return nil, fmt.Errorf("invalid health timezone: %w", err)
	}

	config.Health = HealthConfig{
		Timezone: v.GetString("health.timezone"),
		Location: loc,
		Thresholds: health.Thresholds{
			ReadingsPerDay:        v.GetInt("health.readings_per_day"),
			OfflineThreshold:      v.GetFloat64("health.offline_threshold"),
			DegradedThreshold:     v.GetFloat64("health.degraded_threshold"),
			RangeOfflineThreshold: v.GetFloat64("health.range_offline_threshold"),
			RangeOnlineThreshold:  v.GetFloat64("health.range_online_threshold"),
		},
		MaxRangeDays: v.GetInt("health.max_range_days"),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: v.GetStringSlice("cors.allowedOrigins"),
	}

	config.Sensors = models.DefaultSensors
	if v.IsSet("sensors") {
		var sensors []models.Sensor
		if err := v.UnmarshalKey("sensors", &sensors); err != nil {
			return nil, fmt.Errorf("invalid sensors list: %w", err)
		}
		config.Sensors = sensors
	}

	// Validate required configuration
	if err := config.Health.Thresholds.Validate(); err != nil {
		return nil, err
	}

	switch config.Storage.Driver {
	case DriverMemory:
	case DriverInfluxDB:
		if config.Storage.InfluxDB.Token == "" || config.Storage.InfluxDB.Org == "" || config.Storage.InfluxDB.Bucket == "" {
			return nil, fmt.Errorf("influxdb storage requires token, org and bucket")
		}
	case DriverPostgres:
		if config.Storage.Postgres.DSN == "" {
			return nil, fmt.Errorf("postgres storage requires a DSN")
		}
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", config.Storage.Driver)
	}

	if config.Health.MaxRangeDays < 1 {
		return nil, fmt.Errorf("health.max_range_days must be at least 1, got %d", config.Health.MaxRangeDays)
	}

	if len(config.Sensors) == 0 {
		return nil, fmt.Errorf("at least one sensor must be configured")
	}

	return &config, nil
}

package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "muscle_selector.cfg.json"

// ServerConfig holds HTTP/WebSocket listener settings
type ServerConfig struct {
	Listen          string        `json:"listen" mapstructure:"listen"`
	AllowedOrigins  []string      `json:"allowedOrigins" mapstructure:"allowedOrigins"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds SQLite storage backend settings
type SQLiteConfig struct {
	Path         string        `json:"path" mapstructure:"path"`
	DumpPath     string        `json:"dumpPath" mapstructure:"dumpPath"`
	DumpInterval time.Duration `json:"dumpInterval" mapstructure:"dumpInterval"`
}

// StorageConfig selects and configures the layout slot backend
type StorageConfig struct {
	Type      string       `json:"type" mapstructure:"type"`
	LayoutKey string       `json:"layoutKey" mapstructure:"layoutKey"`
	Memory    MemoryConfig `json:"memory" mapstructure:"memory"`
	SQLite    SQLiteConfig `json:"sqlite" mapstructure:"sqlite"`
}

// EditorConfig holds the label editing constants
type EditorConfig struct {
	MinWidth         float64 `json:"minWidth" mapstructure:"minWidth"`
	MinHeight        float64 `json:"minHeight" mapstructure:"minHeight"`
	RotationStep     float64 `json:"rotationStep" mapstructure:"rotationStep"`
	ResizeWidthStep  float64 `json:"resizeWidthStep" mapstructure:"resizeWidthStep"`
	ResizeHeightStep float64 `json:"resizeHeightStep" mapstructure:"resizeHeightStep"`
	DeviceScale      float64 `json:"deviceScale" mapstructure:"deviceScale"`
}

// OTelConfig holds OpenTelemetry settings
type OTelConfig struct {
	Enabled      bool          `json:"enabled" mapstructure:"enabled"`
	ServiceName  string        `json:"serviceName" mapstructure:"serviceName"`
	BatchTimeout time.Duration `json:"batchTimeout" mapstructure:"batchTimeout"`
	Endpoint     string        `json:"endpoint" mapstructure:"endpoint"`
	Insecure     bool          `json:"insecure" mapstructure:"insecure"`
}

// MetricsConfig holds InfluxDB interaction metrics settings
type MetricsConfig struct {
	Enabled       bool          `json:"enabled" mapstructure:"enabled"`
	Host          string        `json:"host" mapstructure:"host"`
	Port          string        `json:"port" mapstructure:"port"`
	Protocol      string        `json:"protocol" mapstructure:"protocol"`
	Token         string        `json:"token" mapstructure:"token"`
	Org           string        `json:"org" mapstructure:"org"`
	Bucket        string        `json:"bucket" mapstructure:"bucket"`
	FlushInterval time.Duration `json:"flushInterval" mapstructure:"flushInterval"`
	BackupPath    string        `json:"backupPath" mapstructure:"backupPath"`
}

// SentryConfig holds error reporting settings
type SentryConfig struct {
	DSN         string  `json:"dsn" mapstructure:"dsn"`
	Environment string  `json:"environment" mapstructure:"environment"`
	Release     string  `json:"release" mapstructure:"release"`
	SampleRate  float64 `json:"sampleRate" mapstructure:"sampleRate"`
}

// LoggingConfig holds log level, log directory and GELF shipping settings
type LoggingConfig struct {
	Level          string `json:"level" mapstructure:"level"`
	Dir            string `json:"dir" mapstructure:"dir"`
	GraylogEnabled bool   `json:"graylogEnabled" mapstructure:"graylogEnabled"`
	GraylogAddress string `json:"graylogAddress" mapstructure:"graylogAddress"`
}

// DBConfig holds the Postgres connection settings
type DBConfig struct {
	Host           string        `json:"host" mapstructure:"host"`
	Port           string        `json:"port" mapstructure:"port"`
	Username       string        `json:"username" mapstructure:"username"`
	Password       string        `json:"password" mapstructure:"password"`
	Database       string        `json:"database" mapstructure:"database"`
	SSLMode        string        `json:"sslmode" mapstructure:"sslmode"`
	MaxOpenConns   int           `json:"maxOpenConns" mapstructure:"maxOpenConns"`
	ConnectTimeout time.Duration `json:"connectTimeout" mapstructure:"connectTimeout"`
}

// MonitorConfig holds the status file writer settings
type MonitorConfig struct {
	Enabled  bool          `json:"enabled" mapstructure:"enabled"`
	Dir      string        `json:"dir" mapstructure:"dir"`
	Interval time.Duration `json:"interval" mapstructure:"interval"`
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	SetDefaults()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// SetDefaults registers every default value without reading a file.
func SetDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./logs")

	viper.SetDefault("server.listen", ":8080")
	viper.SetDefault("server.allowedOrigins", []string{})
	viper.SetDefault("server.shutdownTimeout", "10s")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.layoutKey", "muscle-labels-layout")
	viper.SetDefault("storage.memory.outputDir", "./layouts")
	viper.SetDefault("storage.memory.compressOutput", false)
	viper.SetDefault("storage.sqlite.path", "")
	viper.SetDefault("storage.sqlite.dumpPath", "./layouts.db")
	viper.SetDefault("storage.sqlite.dumpInterval", "1m")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "muscle_selector")
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("db.maxOpenConns", 10)
	viper.SetDefault("db.connectTimeout", "5s")

	viper.SetDefault("editor.minWidth", 30.0)
	viper.SetDefault("editor.minHeight", 18.0)
	viper.SetDefault("editor.rotationStep", 15.0)
	viper.SetDefault("editor.resizeWidthStep", 10.0)
	viper.SetDefault("editor.resizeHeightStep", 5.0)
	viper.SetDefault("editor.deviceScale", 1.0)

	viper.SetDefault("exercises.cacheTTL", "5m")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "muscle-selector")
	viper.SetDefault("influx.bucket", "interactions")
	viper.SetDefault("influx.flushInterval", "10s")
	viper.SetDefault("influx.backupPath", "./interactions.lp.gz")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "muscle-selector")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)

	viper.SetDefault("sentry.dsn", "")
	viper.SetDefault("sentry.environment", "development")
	viper.SetDefault("sentry.release", "")
	viper.SetDefault("sentry.sampleRate", 1.0)

	viper.SetDefault("monitor.enabled", true)
	viper.SetDefault("monitor.dir", ".")
	viper.SetDefault("monitor.interval", "1s")
}

// GetServerConfig returns the listener configuration.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Listen:          viper.GetString("server.listen"),
		AllowedOrigins:  viper.GetStringSlice("server.allowedOrigins"),
		ShutdownTimeout: viper.GetDuration("server.shutdownTimeout"),
	}
}

// GetStorageConfig returns the layout storage configuration.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type:      viper.GetString("storage.type"),
		LayoutKey: viper.GetString("storage.layoutKey"),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			Path:         viper.GetString("storage.sqlite.path"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
		},
	}
}

// GetDBConfig returns the Postgres connection settings.
func GetDBConfig() DBConfig {
	return DBConfig{
		Host:           viper.GetString("db.host"),
		Port:           viper.GetString("db.port"),
		Username:       viper.GetString("db.username"),
		Password:       viper.GetString("db.password"),
		Database:       viper.GetString("db.database"),
		SSLMode:        viper.GetString("db.sslmode"),
		MaxOpenConns:   viper.GetInt("db.maxOpenConns"),
		ConnectTimeout: viper.GetDuration("db.connectTimeout"),
	}
}

// GetEditorConfig returns the label editing constants.
func GetEditorConfig() EditorConfig {
	return EditorConfig{
		MinWidth:         viper.GetFloat64("editor.minWidth"),
		MinHeight:        viper.GetFloat64("editor.minHeight"),
		RotationStep:     viper.GetFloat64("editor.rotationStep"),
		ResizeWidthStep:  viper.GetFloat64("editor.resizeWidthStep"),
		ResizeHeightStep: viper.GetFloat64("editor.resizeHeightStep"),
		DeviceScale:      viper.GetFloat64("editor.deviceScale"),
	}
}

// GetOTelConfig returns the OpenTelemetry configuration.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),
	}
}

// GetMetricsConfig returns the InfluxDB configuration.
func GetMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Enabled:       viper.GetBool("influx.enabled"),
		Host:          viper.GetString("influx.host"),
		Port:          viper.GetString("influx.port"),
		Protocol:      viper.GetString("influx.protocol"),
		Token:         viper.GetString("influx.token"),
		Org:           viper.GetString("influx.org"),
		Bucket:        viper.GetString("influx.bucket"),
		FlushInterval: viper.GetDuration("influx.flushInterval"),
		BackupPath:    viper.GetString("influx.backupPath"),
	}
}

// GetSentryConfig returns the error reporting configuration.
func GetSentryConfig() SentryConfig {
	return SentryConfig{
		DSN:         viper.GetString("sentry.dsn"),
		Environment: viper.GetString("sentry.environment"),
		Release:     viper.GetString("sentry.release"),
		SampleRate:  viper.GetFloat64("sentry.sampleRate"),
	}
}

// GetLoggingConfig returns the logging configuration.
func GetLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:          viper.GetString("logLevel"),
		Dir:            viper.GetString("logsDir"),
		GraylogEnabled: viper.GetBool("graylog.enabled"),
		GraylogAddress: viper.GetString("graylog.address"),
	}
}

// GetMonitorConfig returns the status monitor configuration.
func GetMonitorConfig() MonitorConfig {
	return MonitorConfig{
		Enabled:  viper.GetBool("monitor.enabled"),
		Dir:      viper.GetString("monitor.dir"),
		Interval: viper.GetDuration("monitor.interval"),
	}
}

// GetExerciseCacheTTL returns how long exercise lookups are memoized.
func GetExerciseCacheTTL() time.Duration {
	return viper.GetDuration("exercises.cacheTTL")
}


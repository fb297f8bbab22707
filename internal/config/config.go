package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FileName is the config file looked up in the config directory.
const FileName = "monoloc.cfg.json"

// EnvPrefix prefixes environment overrides, e.g. MONOLOC_SERVER_PORT.
const EnvPrefix = "MONOLOC"

// MemoryConfig holds in-memory/JSON storage backend settings
type MemoryConfig struct {
	OutputDir      string `json:"outputDir" mapstructure:"outputDir"`
	CompressOutput bool   `json:"compressOutput" mapstructure:"compressOutput"`
}

// SQLiteConfig holds settings for the in-memory SQLite backend.
type SQLiteConfig struct {
	DumpInterval time.Duration
	DumpPath     string
}

// WriterConfig tunes the batched database writer shared by the postgres and
// sqlite backends.
type WriterConfig struct {
	FlushInterval time.Duration
	BatchSize     int
	MaxQueue      int
}

// StorageConfig selects and configures the persistence backend.
type StorageConfig struct {
	Type   string
	Memory MemoryConfig
	SQLite SQLiteConfig
	Writer WriterConfig
}

// OTelConfig configures the OpenTelemetry log provider.
type OTelConfig struct {
	Enabled      bool
	ServiceName  string
	BatchTimeout time.Duration
	Endpoint     string
	Insecure     bool
	// Metrics enables the periodic metric snapshot file.
	Metrics        bool
	MetricInterval time.Duration
}

// RangingConfig tunes the estimator and uncertainty region.
type RangingConfig struct {
	MinKeypointConfidence float64
	HeightMin             float64
	HeightNominal         float64
	HeightMax             float64
	DepressionFloor       float64
	RegionHalfWidth       float64
	GeodesyModel          string
}

// ServerConfig configures the HTTP service.
type ServerConfig struct {
	Address string
	Workers int
	// PersistQueue is the buffered persist command's queue length.
	PersistQueue int
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logsDir", "./monoloc-logs")

	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("server.workers", runtime.NumCPU())
	viper.SetDefault("server.persistQueue", 1024)

	viper.SetDefault("ranging.minKeypointConf", 0.5)
	viper.SetDefault("ranging.heightMin", 1.6)
	viper.SetDefault("ranging.heightNominal", 1.7)
	viper.SetDefault("ranging.heightMax", 1.8)
	viper.SetDefault("ranging.depressionFloorRad", 0.05)
	viper.SetDefault("region.halfWidthDeg", 3.0)
	viper.SetDefault("geodesy.model", "wgs84")

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("db.username", "postgres")
	viper.SetDefault("db.password", "postgres")
	viper.SetDefault("db.database", "monoloc")

	viper.SetDefault("influx.enabled", false)
	viper.SetDefault("influx.host", "localhost")
	viper.SetDefault("influx.port", "8086")
	viper.SetDefault("influx.protocol", "http")
	viper.SetDefault("influx.token", "supersecrettoken")
	viper.SetDefault("influx.org", "monoloc-metrics")
	viper.SetDefault("influx.bucket", "localization")

	viper.SetDefault("graylog.enabled", false)
	viper.SetDefault("graylog.address", "localhost:12201")

	viper.SetDefault("storage.type", "memory")
	viper.SetDefault("storage.memory.outputDir", "./localizations")
	viper.SetDefault("storage.memory.compressOutput", true)
	viper.SetDefault("storage.sqlite.dumpInterval", "3m")
	viper.SetDefault("storage.sqlite.dumpPath", "./monoloc.db")
	viper.SetDefault("storage.writer.flushInterval", "2s")
	viper.SetDefault("storage.writer.batchSize", 500)
	viper.SetDefault("storage.writer.maxQueue", 50000)

	viper.SetDefault("otel.enabled", false)
	viper.SetDefault("otel.serviceName", "monoloc")
	viper.SetDefault("otel.batchTimeout", "5s")
	viper.SetDefault("otel.endpoint", "")
	viper.SetDefault("otel.insecure", true)
	viper.SetDefault("otel.metrics", false)
	viper.SetDefault("otel.metricInterval", "30s")
}

// Load reads configuration from JSON file and sets default values.
// configDir is the directory containing the config file.
func Load(configDir string) error {
	setDefaults()
	bindEnv()

	viper.SetConfigName(FileName)
	viper.AddConfigPath(configDir)
	viper.SetConfigType("json")

	err := viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	return nil
}

// LoadOptional is Load for callers that can run on defaults alone: a missing
// config file is not an error, a malformed one still is.
func LoadOptional(configDir string) error {
	err := Load(configDir)
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

func bindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value.
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStorageConfig returns the storage section.
func GetStorageConfig() StorageConfig {
	return StorageConfig{
		Type: strings.ToLower(viper.GetString("storage.type")),
		Memory: MemoryConfig{
			OutputDir:      viper.GetString("storage.memory.outputDir"),
			CompressOutput: viper.GetBool("storage.memory.compressOutput"),
		},
		SQLite: SQLiteConfig{
			DumpInterval: viper.GetDuration("storage.sqlite.dumpInterval"),
			DumpPath:     viper.GetString("storage.sqlite.dumpPath"),
		},
		Writer: WriterConfig{
			FlushInterval: viper.GetDuration("storage.writer.flushInterval"),
			BatchSize:     viper.GetInt("storage.writer.batchSize"),
			MaxQueue:      viper.GetInt("storage.writer.maxQueue"),
		},
	}
}

// GetOTelConfig returns the otel section.
func GetOTelConfig() OTelConfig {
	return OTelConfig{
		Enabled:      viper.GetBool("otel.enabled"),
		ServiceName:  viper.GetString("otel.serviceName"),
		BatchTimeout: viper.GetDuration("otel.batchTimeout"),
		Endpoint:     viper.GetString("otel.endpoint"),
		Insecure:     viper.GetBool("otel.insecure"),

		Metrics:        viper.GetBool("otel.metrics"),
		MetricInterval: viper.GetDuration("otel.metricInterval"),
	}
}

// GetRangingConfig returns the ranging, region and geodesy settings.
func GetRangingConfig() RangingConfig {
	return RangingConfig{
		MinKeypointConfidence: viper.GetFloat64("ranging.minKeypointConf"),
		HeightMin:             viper.GetFloat64("ranging.heightMin"),
		HeightNominal:         viper.GetFloat64("ranging.heightNominal"),
		HeightMax:             viper.GetFloat64("ranging.heightMax"),
		DepressionFloor:       viper.GetFloat64("ranging.depressionFloorRad"),
		RegionHalfWidth:       viper.GetFloat64("region.halfWidthDeg"),
		GeodesyModel:          viper.GetString("geodesy.model"),
	}
}

// GetServerConfig returns the server section.
func GetServerConfig() ServerConfig {
	return ServerConfig{
		Address:      viper.GetString("server.address"),
		Workers:      viper.GetInt("server.workers"),
		PersistQueue: viper.GetInt("server.persistQueue"),
	}
}

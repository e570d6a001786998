package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/RMahshie/twinion/internal/extraction"
	"github.com/RMahshie/twinion/internal/smoothing"
	"github.com/RMahshie/twinion/pkg/models"
)

// Viper keys
const (
	KeyDatabaseURL        = "DATABASE_URL"
	KeyPort               = "PORT"
	KeyEnvironment        = "ENVIRONMENT"
	KeyAllowedOrigins     = "ALLOWED_ORIGINS"
	KeyAWSRegion          = "AWS_REGION"
	KeyAWSAccessKeyID     = "AWS_ACCESS_KEY_ID"
	KeyAWSSecretAccessKey = "AWS_SECRET_ACCESS_KEY"
	KeyS3Bucket           = "S3_BUCKET"
	KeyS3Endpoint         = "S3_ENDPOINT"
	KeyS3ResultsPrefix    = "S3_RESULTS_PREFIX"
	KeyTimeHalfWindow     = "TIME_HALF_WINDOW"
	KeyMassDelta          = "MZ_DELTA"
	KeySmoothingHalfWidth = "SMOOTHING_HALF_WIDTH"
	KeyMaxHits            = "MAX_HITS"
	KeyWorkers            = "WORKERS"
	KeyOutputDir          = "OUTPUT_DIR"
	KeyLogFile            = "LOG_FILE"
	KeyLogLevel           = "LOG_LEVEL"
)

// Config holds all configuration for the application
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	AWS        AWSConfig
	Extraction ExtractionConfig
	Log        LogConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

// AWSConfig holds AWS/S3 configuration
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	S3Bucket        string
	S3Endpoint      string
	ResultsPrefix   string
}

// ExtractionConfig holds the extraction policy and output location
type ExtractionConfig struct {
	TimeHalfWindow     float64
	MassDelta          float64
	SmoothingHalfWidth int
	MaxHits            int
	Workers            int
	OutputDir          string
}

// LogConfig holds logging configuration
type LogConfig struct {
	File  string
	Level string
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyDatabaseURL, "")
	v.SetDefault(KeyPort, "8080")
	v.SetDefault(KeyEnvironment, "dev")
	v.SetDefault(KeyAllowedOrigins, "http://localhost:5173,http://localhost:3000")
	v.SetDefault(KeyAWSRegion, "us-east-1")
	v.SetDefault(KeyAWSAccessKeyID, "")
	v.SetDefault(KeyAWSSecretAccessKey, "")
	v.SetDefault(KeyS3Bucket, "")
	v.SetDefault(KeyS3Endpoint, "")
	v.SetDefault(KeyS3ResultsPrefix, "")
	v.SetDefault(KeyTimeHalfWindow, extraction.DefaultTimeHalfWindow)
	v.SetDefault(KeyMassDelta, extraction.DefaultMassDelta)
	v.SetDefault(KeySmoothingHalfWidth, smoothing.DefaultHalfWidth)
	v.SetDefault(KeyMaxHits, extraction.DefaultMaxHits)
	v.SetDefault(KeyWorkers, 1)
	v.SetDefault(KeyOutputDir, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogLevel, "info")
}

// Load loads configuration from v. Values come, in increasing precedence,
// from defaults, the .env.<environment> file, environment variables and any
// flags bound on v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	// Environment variables override .env file values
	v.AutomaticEnv()

	env := v.GetString(KeyEnvironment)
	if env == "" {
		env = "dev" // Use "dev" to match .env.dev filename
	}

	// Try to read .env file for the current environment
	v.SetConfigName(".env." + env)
	v.SetConfigType("env")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read .env.%s: %w", env, err)
		}
	}

	for _, key := range []string{
		KeyDatabaseURL, KeyPort, KeyEnvironment, KeyAllowedOrigins,
		KeyAWSRegion, KeyAWSAccessKeyID, KeyAWSSecretAccessKey,
		KeyS3Bucket, KeyS3Endpoint, KeyS3ResultsPrefix,
		KeyTimeHalfWindow, KeyMassDelta, KeySmoothingHalfWidth,
		KeyMaxHits, KeyWorkers, KeyOutputDir, KeyLogFile, KeyLogLevel,
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var config Config
	config.Database.URL = v.GetString(KeyDatabaseURL)
	config.Server.Port = v.GetString(KeyPort)
	config.Server.Env = v.GetString(KeyEnvironment)
	config.Server.AllowedOrigins = splitList(v.GetString(KeyAllowedOrigins))
	config.AWS.Region = v.GetString(KeyAWSRegion)
	config.AWS.AccessKeyID = v.GetString(KeyAWSAccessKeyID)
	config.AWS.SecretAccessKey = v.GetString(KeyAWSSecretAccessKey)
	config.AWS.S3Bucket = v.GetString(KeyS3Bucket)
	config.AWS.S3Endpoint = v.GetString(KeyS3Endpoint)
	config.AWS.ResultsPrefix = v.GetString(KeyS3ResultsPrefix)
	config.Extraction.TimeHalfWindow = v.GetFloat64(KeyTimeHalfWindow)
	config.Extraction.MassDelta = v.GetFloat64(KeyMassDelta)
	config.Extraction.SmoothingHalfWidth = v.GetInt(KeySmoothingHalfWidth)
	config.Extraction.MaxHits = v.GetInt(KeyMaxHits)
	config.Extraction.Workers = v.GetInt(KeyWorkers)
	config.Extraction.OutputDir = v.GetString(KeyOutputDir)
	config.Log.File = v.GetString(KeyLogFile)
	config.Log.Level = v.GetString(KeyLogLevel)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate rejects settings the extraction engine cannot run with
func (c *Config) Validate() error {
	e := c.Extraction
	switch {
	case e.TimeHalfWindow < 0:
		return fmt.Errorf("%s must not be negative, got %v", KeyTimeHalfWindow, e.TimeHalfWindow)
	case e.SmoothingHalfWidth < 0:
		return fmt.Errorf("%s must not be negative, got %d", KeySmoothingHalfWidth, e.SmoothingHalfWidth)
	case e.MaxHits < 1:
		return fmt.Errorf("%s must be at least 1, got %d", KeyMaxHits, e.MaxHits)
	case e.Workers < 1:
		return fmt.Errorf("%s must be at least 1, got %d", KeyWorkers, e.Workers)
	}
	return nil
}

// Settings converts the extraction configuration for the pipeline
func (c *Config) Settings() extraction.Settings {
	return extraction.Settings{
		TimeHalfWindow:     c.Extraction.TimeHalfWindow,
		MassDelta:          c.Extraction.MassDelta,
		SmoothingHalfWidth: c.Extraction.SmoothingHalfWidth,
		MaxHits:            c.Extraction.MaxHits,
		Workers:            c.Extraction.Workers,
	}
}

// RunSettings returns the defaults applied to runs created over HTTP
func (c *Config) RunSettings() models.RunSettings {
	return models.RunSettings{
		TimeHalfWindow:     c.Extraction.TimeHalfWindow,
		MassDelta:          c.Extraction.MassDelta,
		SmoothingHalfWidth: c.Extraction.SmoothingHalfWidth,
		MaxHits:            c.Extraction.MaxHits,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

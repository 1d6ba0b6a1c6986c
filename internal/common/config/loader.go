// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like AWS_SQS_QUEUE_URL
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, e.g. config.production
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads .env from the working directory or the project root.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up directories looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig applies direct env fallbacks for values that commonly
// arrive through the environment rather than the yaml file.
func overrideEmptyConfig(cfg *Config) {
	if cfg.AWS.SQS.QueueURL == "" {
		if val := os.Getenv("SQS_QUEUE_URL"); val != "" {
			cfg.AWS.SQS.QueueURL = val
		}
	}
	if cfg.AWS.SES.Sender == "" {
		if val := os.Getenv("SES_SENDER"); val != "" {
			cfg.AWS.SES.Sender = val
		}
	}
	if cfg.AWS.SES.TestRecipient == "" {
		if val := os.Getenv("TEST_RECIPIENT"); val != "" {
			cfg.AWS.SES.TestRecipient = val
		}
	}
	if cfg.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.AWS.Region = val
		}
	}
	if cfg.AWS.DynamoDB.PreferencesTable == "" {
		if val := os.Getenv("PREF_TABLE"); val != "" {
			cfg.AWS.DynamoDB.PreferencesTable = val
		}
	}
	if cfg.AWS.DynamoDB.RestaurantsTable == "" {
		if val := os.Getenv("DDB_TABLE"); val != "" {
			cfg.AWS.DynamoDB.RestaurantsTable = val
		}
	}
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}

	if cfg.Server.DialogAddress == "" {
		cfg.Server.DialogAddress = ":8080"
	}
	if cfg.Server.MetricsAddress == "" {
		cfg.Server.MetricsAddress = ":9102"
	}

	if cfg.Database.Elasticsearch.Index == "" {
		cfg.Database.Elasticsearch.Index = "restaurants"
	}
	if cfg.Database.Elasticsearch.URL == "" && len(cfg.Database.Elasticsearch.Addresses) > 0 {
		cfg.Database.Elasticsearch.URL = cfg.Database.Elasticsearch.Addresses[0]
	}

	if cfg.AWS.DynamoDB.PreferencesTable == "" {
		cfg.AWS.DynamoDB.PreferencesTable = "user-preferences"
	}
	if cfg.AWS.DynamoDB.RestaurantsTable == "" {
		cfg.AWS.DynamoDB.RestaurantsTable = "restaurants"
	}

	if cfg.Dialog.Timeout == 0 {
		cfg.Dialog.Timeout = 10000
	}
	if cfg.Dialog.PreferenceCacheTTL == 0 {
		cfg.Dialog.PreferenceCacheTTL = 300
	}

	if cfg.Fulfillment.Timeout == 0 {
		cfg.Fulfillment.Timeout = 30000
	}
	if cfg.Fulfillment.PollInterval == 0 {
		cfg.Fulfillment.PollInterval = 5000
	}
	if cfg.Fulfillment.CandidateLimit == 0 {
		cfg.Fulfillment.CandidateLimit = 50
	}
	if cfg.Fulfillment.MinCandidates == 0 {
		cfg.Fulfillment.MinCandidates = 3
	}
	if cfg.Fulfillment.SampleSize == 0 {
		cfg.Fulfillment.SampleSize = 3
	}
	if cfg.Fulfillment.EmailSubject == "" {
		cfg.Fulfillment.EmailSubject = "Your Dining Concierge Suggestions"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	if cfg.AWS.SQS.QueueURL == "" {
		return fmt.Errorf("aws.sqs.queue_url is required")
	}

	if cfg.AWS.SES.Sender == "" {
		return fmt.Errorf("aws.ses.sender is required")
	}

	if len(cfg.Database.Elasticsearch.Addresses) == 0 && cfg.Database.Elasticsearch.URL == "" {
		return fmt.Errorf("database.elasticsearch.addresses or url is required")
	}

	if cfg.Fulfillment.SampleSize > cfg.Fulfillment.MinCandidates {
		return fmt.Errorf("fulfillment.sample_size cannot exceed fulfillment.min_candidates")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

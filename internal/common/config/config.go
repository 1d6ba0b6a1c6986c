// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	AWS         AWSConfig         `mapstructure:"aws"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Dialog      DialogConfig      `mapstructure:"dialog"`
	Fulfillment FulfillmentConfig `mapstructure:"fulfillment"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	DialogAddress  string `mapstructure:"dialog_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
}

// AWSConfig holds settings for the SQS queue, DynamoDB tables and SES.
type AWSConfig struct {
	Region string `mapstructure:"region"`

	SQS struct {
		QueueURL string `mapstructure:"queue_url"`
	} `mapstructure:"sqs"`

	DynamoDB struct {
		PreferencesTable string `mapstructure:"preferences_table"`
		RestaurantsTable string `mapstructure:"restaurants_table"`
	} `mapstructure:"dynamodb"`

	SES struct {
		Sender string `mapstructure:"sender"`
		// TestRecipient overrides the payload email when set (sandbox mode).
		TestRecipient string `mapstructure:"test_recipient"`
	} `mapstructure:"ses"`
}

type DatabaseConfig struct {
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"`
	URL       string   `mapstructure:"url"` // Single URL for backwards compatibility
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// DialogConfig holds settings for the dialog-turn handler.
type DialogConfig struct {
	Timeout            int `mapstructure:"timeout"`              // milliseconds
	PreferenceCacheTTL int `mapstructure:"preference_cache_ttl"` // seconds
}

// FulfillmentConfig holds settings for the fulfillment worker.
type FulfillmentConfig struct {
	Timeout        int    `mapstructure:"timeout"`       // milliseconds
	PollInterval   int    `mapstructure:"poll_interval"` // milliseconds
	CandidateLimit int    `mapstructure:"candidate_limit"`
	MinCandidates  int    `mapstructure:"min_candidates"`
	SampleSize     int    `mapstructure:"sample_size"`
	EmailSubject   string `mapstructure:"email_subject"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

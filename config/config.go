// Package config loads the chat client configuration from environment
// variables and an optional dotenv file into an explicit Config value that
// is passed to the store, model and chat loop at construction time.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Completion providers understood by the example wiring.
const (
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config stores all configuration of the application.
type Config struct {
	Redis      RedisConfig      `mapstructure:"redis"`
	Completion CompletionConfig `mapstructure:"completion"`
	Log        LogConfig        `mapstructure:"log"`
}

// RedisConfig stores cache connection details.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	SSL          bool          `mapstructure:"ssl"`
	TTL          time.Duration `mapstructure:"ttl"`           // 0 keeps threads forever
	WriteRetries int           `mapstructure:"write_retries"` // extra SET attempts on network failure
	Timeout      time.Duration `mapstructure:"timeout"`       // dial / read / write timeout
}

// CompletionConfig selects and configures the hosted completion service.
type CompletionConfig struct {
	Provider           string `mapstructure:"provider"`
	AzureEndpoint      string `mapstructure:"azure_endpoint"`
	AzureKey           string `mapstructure:"azure_key"`
	AzureDeployment    string `mapstructure:"azure_deployment"`
	AzureAPIVersion    string `mapstructure:"azure_api_version"`
	OpenAIAPIKey       string `mapstructure:"openai_api_key"`
	OpenAIModel        string `mapstructure:"openai_model"`
	AnthropicAPIKey    string `mapstructure:"anthropic_api_key"`
	AnthropicModel     string `mapstructure:"anthropic_model"`
	Streaming          bool   `mapstructure:"streaming"`
	MaxHistoryMessages int    `mapstructure:"max_history_messages"`
}

// LogConfig controls the diagnostic logger (stderr).
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type binding struct {
	key string
	env string
	def any
}

// placeholder values mark settings that must be supplied by the user; they
// are passed through unchanged and make the collaborator fail downstream.
var bindings = []binding{
	{"redis.host", "REDIS_HOST", "<your-redis-host>"},
	{"redis.port", "REDIS_PORT", 6380},
	{"redis.password", "REDIS_PASSWORD", "<your-redis-password>"},
	{"redis.ssl", "REDIS_SSL", true},
	{"redis.ttl", "REDIS_TTL", "0s"},
	{"redis.write_retries", "REDIS_WRITE_RETRIES", 2},
	{"redis.timeout", "REDIS_TIMEOUT", "5s"},

	{"completion.provider", "CHAT_PROVIDER", ProviderAzure},
	{"completion.azure_endpoint", "AZURE_OPENAI_ENDPOINT", "<your-endpoint>"},
	{"completion.azure_key", "AZURE_OPENAI_KEY", "<your-key>"},
	{"completion.azure_deployment", "AZURE_OPENAI_DEPLOYMENT", "<your-deployment>"},
	{"completion.azure_api_version", "AZURE_OPENAI_API_VERSION", "2024-10-21"},
	{"completion.openai_api_key", "OPENAI_API_KEY", ""},
	{"completion.openai_model", "OPENAI_MODEL", "gpt-4o-mini"},
	{"completion.anthropic_api_key", "ANTHROPIC_API_KEY", ""},
	{"completion.anthropic_model", "ANTHROPIC_MODEL", ""},
	{"completion.streaming", "CHAT_STREAMING", false},
	{"completion.max_history_messages", "CHAT_MAX_HISTORY", 20},

	{"log.level", "CHAT_LOG_LEVEL", "warn"},
	{"log.format", "CHAT_LOG_FORMAT", "text"},
}

// Load reads configuration from environment variables. When envFile names an
// existing dotenv file its values fill in variables missing from the
// process environment (the environment always wins).
func Load(envFile string) (*Config, error) {
	v := viper.New()
	for _, b := range bindings {
		v.SetDefault(b.key, b.def)
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", b.env, err)
		}
	}

	if envFile != "" {
		if err := applyEnvFile(v, envFile); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	cfg.Completion.Provider = strings.ToLower(strings.TrimSpace(cfg.Completion.Provider))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	fv := viper.New()
	fv.SetConfigFile(path)
	fv.SetConfigType("env")
	if err := fv.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read env file: %w", err)
	}
	for _, b := range bindings {
		if fv.IsSet(b.env) {
			v.SetDefault(b.key, fv.Get(b.env))
		}
	}
	return nil
}

// Validate checks structural settings. Placeholder credentials are accepted.
func (c *Config) Validate() error {
	switch c.Completion.Provider {
	case ProviderAzure, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown completion provider %q", c.Completion.Provider)
	}
	if c.Completion.Streaming && c.Completion.Provider == ProviderAnthropic {
		return fmt.Errorf("streaming is not supported by completion provider %q", c.Completion.Provider)
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis port %d", c.Redis.Port)
	}
	if c.Redis.WriteRetries < 0 {
		return fmt.Errorf("invalid redis write retries %d", c.Redis.WriteRetries)
	}
	if c.Redis.TTL < 0 {
		return fmt.Errorf("invalid redis ttl %s", c.Redis.TTL)
	}
	return nil
}

// Placeholders returns the environment variable names whose effective value
// is still a "<...>" placeholder and which matter for the selected provider.
func (c *Config) Placeholders() []string {
	check := map[string]string{
		"REDIS_HOST":     c.Redis.Host,
		"REDIS_PASSWORD": c.Redis.Password,
	}
	if c.Completion.Provider == ProviderAzure {
		check["AZURE_OPENAI_ENDPOINT"] = c.Completion.AzureEndpoint
		check["AZURE_OPENAI_KEY"] = c.Completion.AzureKey
		check["AZURE_OPENAI_DEPLOYMENT"] = c.Completion.AzureDeployment
	}
	var out []string
	for _, b := range bindings {
		if val, ok := check[b.env]; ok && isPlaceholder(val) {
			out = append(out, b.env)
		}
	}
	return out
}

func isPlaceholder(s string) bool {
	return strings.HasPrefix(s, "<") && strings.HasSuffix(s, ">")
}

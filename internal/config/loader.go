package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. RETAILBOT_TELEGRAM_TOKEN.
const EnvPrefix = "RETAILBOT"

// LoadConfig loads and validates configuration from, in increasing priority:
// 1. Default values
// 2. the YAML file at path (optional)
// 3. RETAILBOT_* environment variables, including those from a local .env file
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: failed to load .env file: %v", ErrConfiguration, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: failed to read config file %q: %v", ErrConfiguration, path, err)
		}
	}

	cfg := newDefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	return cfg, nil
}

// newDefaultConfig returns a Config carrying every default, including the
// message texts which are not registered individually with viper.
func newDefaultConfig() *Config {
	tasks := make(map[string]TaskConfig, len(DefaultTasks))
	for name, task := range DefaultTasks {
		tasks[name] = task
	}

	return &Config{
		Logger:   LoggerConfig{Level: DefaultLogLevel},
		Telegram: TelegramConfig{ParseMode: DefaultParseMode},
		Backend: BackendConfig{
			BaseURL: DefaultBackendBaseURL,
			Timeout: DefaultBackendTimeout,
		},
		API: APIConfig{
			ListenAddr:      DefaultAPIListenAddr,
			ReadTimeout:     DefaultAPIReadTimeout,
			WriteTimeout:    DefaultAPIWriteTimeout,
			ShutdownTimeout: DefaultAPIShutdownTimeout,
			MaxPageSize:     DefaultAPIMaxPageSize,
		},
		Database: DatabaseConfig{Path: DefaultDBPath},
		LLM: LLMConfig{
			Provider:    DefaultLLMProvider,
			Model:       DefaultLLMModel,
			Temperature: DefaultLLMTemperature,
			Timeout:     DefaultLLMTimeout,
			MaxRetries:  DefaultLLMMaxRetries,
			RetryDelay:  DefaultLLMRetryDelay,
		},
		Assistant: AssistantConfig{
			Language:             DefaultLanguage,
			StoreName:            DefaultStoreName,
			ProductLimit:         DefaultProductLimit,
			ListingLimit:         DefaultListingLimit,
			FAQLimit:             DefaultFAQLimit,
			HistoryConversations: DefaultHistoryConversations,
			HistoryMessages:      DefaultHistoryMessages,
			CatalogTTL:           DefaultCatalogTTL,
			ListingTTL:           DefaultListingTTL,
		},
		Conversations: ConversationsConfig{IdleTimeout: DefaultConversationIdleTimeout},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Interval: DefaultRateLimitInterval,
			Burst:    DefaultRateLimitBurst,
		},
		Scheduler: SchedulerConfig{Tasks: tasks},
		Messages:  DefaultMessages,
	}
}

// setDefaults registers the keys that may be overridden from the environment.
// AutomaticEnv only resolves keys viper already knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.parse_mode", DefaultParseMode)

	v.SetDefault("backend.base_url", DefaultBackendBaseURL)
	v.SetDefault("backend.auth_secret", "")
	v.SetDefault("backend.timeout", DefaultBackendTimeout)

	v.SetDefault("api.listen_addr", DefaultAPIListenAddr)
	v.SetDefault("api.auth_secret", "")
	v.SetDefault("api.read_timeout", DefaultAPIReadTimeout)
	v.SetDefault("api.write_timeout", DefaultAPIWriteTimeout)
	v.SetDefault("api.shutdown_timeout", DefaultAPIShutdownTimeout)
	v.SetDefault("api.max_page_size", DefaultAPIMaxPageSize)
	v.SetDefault("api.cors_origins", []string{})

	v.SetDefault("database.path", DefaultDBPath)

	v.SetDefault("llm.provider", DefaultLLMProvider)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.temperature", DefaultLLMTemperature)
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.max_retries", DefaultLLMMaxRetries)
	v.SetDefault("llm.retry_delay", DefaultLLMRetryDelay)

	v.SetDefault("assistant.language", DefaultLanguage)
	v.SetDefault("assistant.store_name", DefaultStoreName)
	v.SetDefault("assistant.product_limit", DefaultProductLimit)
	v.SetDefault("assistant.listing_limit", DefaultListingLimit)
	v.SetDefault("assistant.faq_limit", DefaultFAQLimit)
	v.SetDefault("assistant.history_conversations", DefaultHistoryConversations)
	v.SetDefault("assistant.history_messages", DefaultHistoryMessages)
	v.SetDefault("assistant.catalog_ttl", DefaultCatalogTTL)
	v.SetDefault("assistant.listing_ttl", DefaultListingTTL)

	v.SetDefault("conversations.idle_timeout", DefaultConversationIdleTimeout)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.interval", DefaultRateLimitInterval)
	v.SetDefault("rate_limit.burst", DefaultRateLimitBurst)

	for name, task := range DefaultTasks {
		v.SetDefault("scheduler.tasks."+name+".enabled", task.Enabled)
		v.SetDefault("scheduler.tasks."+name+".schedule", task.Schedule)
	}
}

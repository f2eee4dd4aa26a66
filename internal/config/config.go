// Package config provides configuration loading, validation, and management
// for the retail bot and its inventory API. It handles reading from YAML files,
// environment variables, and default values.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-telegram/bot/models"
)

// ErrConfiguration wraps every loading or validation failure.
var ErrConfiguration = errors.New("configuration error")

// Config defines the application configuration parameters for all components.
type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger"`
	Telegram      TelegramConfig      `mapstructure:"telegram"`
	Backend       BackendConfig       `mapstructure:"backend"`
	API           APIConfig           `mapstructure:"api"`
	Database      DatabaseConfig      `mapstructure:"database"`
	LLM           LLMConfig           `mapstructure:"llm"`
	Assistant     AssistantConfig     `mapstructure:"assistant"`
	Conversations ConversationsConfig `mapstructure:"conversations"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	Scheduler     SchedulerConfig     `mapstructure:"scheduler"`
	Messages      MessagesConfig      `mapstructure:"messages"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Telegram transport settings.
type TelegramConfig struct {
	Token     string `mapstructure:"token"`
	ParseMode string `mapstructure:"parse_mode" validate:"oneof=Markdown MarkdownV2 HTML"`
	// BotInfo is filled at startup from getMe.
	BotInfo *models.User `mapstructure:"-"`
}

// BackendConfig configures the bot's REST client for the inventory API.
type BackendConfig struct {
	BaseURL    string        `mapstructure:"base_url"    validate:"required,url"`
	AuthSecret string        `mapstructure:"auth_secret"`
	Timeout    time.Duration `mapstructure:"timeout"     validate:"min=1s,max=2m"`
}

// APIConfig configures the inventory REST server.
type APIConfig struct {
	ListenAddr      string        `mapstructure:"listen_addr"      validate:"required"`
	AuthSecret      string        `mapstructure:"auth_secret"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"     validate:"min=1s"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"    validate:"min=1s"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1s"`
	MaxPageSize     int           `mapstructure:"max_page_size"    validate:"min=1,max=1000"`
	CORSOrigins     []string      `mapstructure:"cors_origins"     validate:"dive,url"`
}

// DatabaseConfig holds the SQLite location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// LLMConfig selects and configures the text generation provider.
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"    validate:"oneof=gemini openai"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"       validate:"required"`
	BaseURL     string        `mapstructure:"base_url"    validate:"omitempty,url"`
	Temperature float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	Timeout     time.Duration `mapstructure:"timeout"     validate:"min=1s,max=10m"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0,max=10"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" validate:"min=0"`
}

// AssistantConfig tunes context gathering and prompt assembly.
type AssistantConfig struct {
	Language             string        `mapstructure:"language"              validate:"oneof=es en"`
	StoreName            string        `mapstructure:"store_name"            validate:"required"`
	ProductLimit         int           `mapstructure:"product_limit"         validate:"min=1,max=500"`
	ListingLimit         int           `mapstructure:"listing_limit"         validate:"min=1,max=500"`
	FAQLimit             int           `mapstructure:"faq_limit"             validate:"min=1,max=500"`
	HistoryConversations int           `mapstructure:"history_conversations" validate:"min=0,max=10"`
	HistoryMessages      int           `mapstructure:"history_messages"      validate:"min=0,max=50"`
	CatalogTTL           time.Duration `mapstructure:"catalog_ttl"           validate:"min=0"`
	ListingTTL           time.Duration `mapstructure:"listing_ttl"           validate:"min=1m"`
}

// ConversationsConfig holds the conversation lifecycle policy.
type ConversationsConfig struct {
	IdleTimeout time.Duration `mapstructure:"idle_timeout" validate:"min=1m"`
}

// RateLimitConfig configures the per-user token bucket on inbound updates.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"min=0"`
	Burst    int           `mapstructure:"burst"    validate:"min=1"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig is a single scheduled task entry.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds every user-facing text the bot sends.
type MessagesConfig struct {
	Welcome            string `mapstructure:"welcome"             validate:"required"`
	ProductsHeader     string `mapstructure:"products_header"     validate:"required"`
	NoProducts         string `mapstructure:"no_products"         validate:"required"`
	CategoryHeader     string `mapstructure:"category_header"     validate:"required"`
	NoCategoryProducts string `mapstructure:"no_category_products" validate:"required"`
	FAQHeader          string `mapstructure:"faq_header"          validate:"required"`
	NoFAQs             string `mapstructure:"no_faqs"             validate:"required"`
	FAQHint            string `mapstructure:"faq_hint"            validate:"required"`
	ReserveUsage       string `mapstructure:"reserve_usage"       validate:"required"`
	InvalidNumbers     string `mapstructure:"invalid_numbers"     validate:"required"`
	ReserveSuccess     string `mapstructure:"reserve_success"     validate:"required"`
	ProductNotFound    string `mapstructure:"product_not_found"   validate:"required"`
	InsufficientStock  string `mapstructure:"insufficient_stock"  validate:"required"`
	OrdersHeader       string `mapstructure:"orders_header"       validate:"required"`
	OrdersFooter       string `mapstructure:"orders_footer"       validate:"required"`
	NoOrders           string `mapstructure:"no_orders"           validate:"required"`
	CancelNeedsListing string `mapstructure:"cancel_needs_listing" validate:"required"`
	CancelUsage        string `mapstructure:"cancel_usage"        validate:"required"`
	InvalidIndex       string `mapstructure:"invalid_index"       validate:"required"`
	CancelSuccess      string `mapstructure:"cancel_success"      validate:"required"`
	CancelNotAllowed   string `mapstructure:"cancel_not_allowed"  validate:"required"`
	OrderNotFound      string `mapstructure:"order_not_found"     validate:"required"`
	RemoveUsage        string `mapstructure:"remove_usage"        validate:"required"`
	RemoveSuccess      string `mapstructure:"remove_success"      validate:"required"`
	RemoveNotAllowed   string `mapstructure:"remove_not_allowed"  validate:"required"`
	QuoteUsage         string `mapstructure:"quote_usage"         validate:"required"`
	QuoteResult        string `mapstructure:"quote_result"        validate:"required"`
	CancelHowTo        string `mapstructure:"cancel_how_to"       validate:"required"`
	LLMFallback        string `mapstructure:"llm_fallback"        validate:"required"`
	GeneralError       string `mapstructure:"general_error"       validate:"required"`
	BackendUnavailable string `mapstructure:"backend_unavailable" validate:"required"`
	RateLimited        string `mapstructure:"rate_limited"        validate:"required"`
	UnknownCommand     string `mapstructure:"unknown_command"     validate:"required"`
}

// Validate checks the struct tags of the whole configuration.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidateBot checks the settings only the chatbot process needs.
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return fmt.Errorf("%w: telegram.token is required", ErrConfiguration)
	}
	if c.LLM.Provider == "gemini" && c.LLM.APIKey == "" {
		return fmt.Errorf("%w: llm.api_key is required for the gemini provider", ErrConfiguration)
	}
	if c.LLM.Provider == "openai" && c.LLM.APIKey == "" && c.LLM.BaseURL == "" {
		return fmt.Errorf("%w: llm.api_key or llm.base_url is required for the openai provider", ErrConfiguration)
	}
	return nil
}

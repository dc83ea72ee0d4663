package config

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// MongoDB.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Redis configuration.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`
	RedisQueueDB   int    `mapstructure:"REDIS_QUEUE_DB"`

	// Conversation working memory: "redis" or "memory".
	SessionBackend string        `mapstructure:"SESSION_BACKEND"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`

	// WhatsApp Cloud API.
	WhatsAppToken         string `mapstructure:"WHATSAPP_TOKEN"`
	WhatsAppPhoneNumberID string `mapstructure:"WHATSAPP_PHONE_NUMBER_ID"`
	WhatsAppAPIVersion    string `mapstructure:"WHATSAPP_API_VERSION"`
	WhatsAppBaseURL       string `mapstructure:"WHATSAPP_BASE_URL"`
	VerifyToken           string `mapstructure:"VERIFY_TOKEN"`
	AppSecret             string `mapstructure:"APP_SECRET"`

	// Signs bearer tokens for the ticket API; empty disables it.
	JWTSecret string `mapstructure:"JWT_SECRET"`

	// Booking flow.
	BusinessName      string        `mapstructure:"BUSINESS_NAME"`
	TicketPrefix      string        `mapstructure:"TICKET_PREFIX"`
	SlotOfferCount    int           `mapstructure:"SLOT_OFFER_COUNT"`
	SlotRepromptDelay time.Duration `mapstructure:"SLOT_REPROMPT_DELAY"`
	RepromptBackend   string        `mapstructure:"REPROMPT_BACKEND"` // "asynq" or "local"
	StepTimeout       time.Duration `mapstructure:"STEP_TIMEOUT"`     // declared only, see DESIGN.md
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "3000")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 600)
	viper.SetDefault("DATABASE_URL", "mongodb://127.0.0.1:27017")
	viper.SetDefault("DATABASE_NAME", "ti_easy_service")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("REDIS_QUEUE_DB", 1)
	viper.SetDefault("SESSION_BACKEND", "redis")
	viper.SetDefault("SESSION_TTL", 30*time.Minute)
	viper.SetDefault("WHATSAPP_TOKEN", "")
	viper.SetDefault("WHATSAPP_PHONE_NUMBER_ID", "")
	viper.SetDefault("WHATSAPP_API_VERSION", "v19.0")
	viper.SetDefault("WHATSAPP_BASE_URL", "https://graph.facebook.com")
	viper.SetDefault("VERIFY_TOKEN", "")
	viper.SetDefault("APP_SECRET", "")
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("BUSINESS_NAME", "Track and Trail, Doorstep Cycle Care")
	viper.SetDefault("TICKET_PREFIX", "SR")
	viper.SetDefault("SLOT_OFFER_COUNT", 3)
	viper.SetDefault("SLOT_REPROMPT_DELAY", 500*time.Millisecond)
	viper.SetDefault("REPROMPT_BACKEND", "local")
	viper.SetDefault("STEP_TIMEOUT", 5*time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// Validate reports missing settings the process cannot run without.
func (c Config) Validate() error {
	var missing []string
	if c.WhatsAppToken == "" {
		missing = append(missing, "WHATSAPP_TOKEN")
	}
	if c.WhatsAppPhoneNumberID == "" {
		missing = append(missing, "WHATSAPP_PHONE_NUMBER_ID")
	}
	if c.VerifyToken == "" {
		missing = append(missing, "VERIFY_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v", missing)
	}
	if c.SlotOfferCount < 1 || c.SlotOfferCount > 3 {
		return fmt.Errorf("SLOT_OFFER_COUNT must be between 1 and 3, got %d", c.SlotOfferCount)
	}
	return nil
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config is built once at process start and passed by dependency injection
// into each component. Whether an optional feature (storage, messaging) is
// configured is a static fact decided here, never discovered on first use.
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Business  BusinessConfig
	Loyalty   LoyaltyConfig
	WhatsApp  WhatsAppConfig
	Storage   StorageConfig
	Invoice   InvoiceConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
	Debug    bool
}

// BusinessConfig holds the branding printed on invoices.
type BusinessConfig struct {
	Name    string
	Address string
	Phone   string
	LogoURL string
}

// LoyaltyConfig controls the cake-category discount.
type LoyaltyConfig struct {
	Frequency          int    // every Nth cake purchase qualifies
	DiscountPercentage int
	CakeCategory       string // category name that counts toward loyalty
}

// WhatsAppConfig holds the messaging platform credentials and protocol knobs.
type WhatsAppConfig struct {
	APIBaseURL    string
	PhoneNumberID string
	AccessToken   string
	TemplateName  string
	LanguageCode  string
	CountryCode   string
	SendDelay     time.Duration // protocol-required pause after the template message
	Timeout       time.Duration
	TestMode      bool
}

// Configured reports whether live message delivery is possible.
func (c *WhatsAppConfig) Configured() bool {
	return c.TestMode || (c.AccessToken != "" && c.PhoneNumberID != "")
}

// StorageConfig holds the object storage settings for invoice documents.
type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string // optional, for MinIO/LocalStack
	PublicBaseURL string // optional override for public links
	RetentionDays int    // 0 disables retention cleanup
}

// Configured reports whether document upload is possible.
func (c *StorageConfig) Configured() bool {
	return c.Bucket != ""
}

// InvoiceConfig controls PDF generation scratch space.
type InvoiceConfig struct {
	ScratchDir    string
	SweepInterval time.Duration
	SweepMaxAge   time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "bakebill-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "bakebill")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Kolkata")
	viper.SetDefault("BUSINESS_NAME", "Sweet Crumb Bakery")
	viper.SetDefault("BUSINESS_ADDRESS", "")
	viper.SetDefault("BUSINESS_PHONE", "")
	viper.SetDefault("BUSINESS_LOGO_URL", "")
	viper.SetDefault("LOYALTY_FREQUENCY", 3)
	viper.SetDefault("LOYALTY_DISCOUNT_PERCENT", 10)
	viper.SetDefault("LOYALTY_CAKE_CATEGORY", "cakes")
	viper.SetDefault("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v17.0")
	viper.SetDefault("WHATSAPP_PHONE_NUMBER_ID", "")
	viper.SetDefault("WHATSAPP_ACCESS_TOKEN", "")
	viper.SetDefault("WHATSAPP_TEMPLATE_NAME", "bill_notification")
	viper.SetDefault("WHATSAPP_LANGUAGE_CODE", "en")
	viper.SetDefault("WHATSAPP_COUNTRY_CODE", "91")
	viper.SetDefault("WHATSAPP_SEND_DELAY_SECONDS", 3)
	viper.SetDefault("WHATSAPP_TIMEOUT_SECONDS", 30)
	viper.SetDefault("WHATSAPP_TEST_MODE", false)
	viper.SetDefault("STORAGE_BUCKET", "")
	viper.SetDefault("STORAGE_REGION", "ap-south-1")
	viper.SetDefault("STORAGE_ENDPOINT", "")
	viper.SetDefault("STORAGE_PUBLIC_BASE_URL", "")
	viper.SetDefault("STORAGE_RETENTION_DAYS", 90)
	viper.SetDefault("INVOICE_SCRATCH_DIR", "./tmp/invoices")
	viper.SetDefault("INVOICE_SWEEP_MINUTES", 60)
	viper.SetDefault("INVOICE_SWEEP_MAX_AGE_MINUTES", 60)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 100)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
			Debug:    viper.GetBool("APP_DEBUG"),
		},
		Business: BusinessConfig{
			Name:    viper.GetString("BUSINESS_NAME"),
			Address: viper.GetString("BUSINESS_ADDRESS"),
			Phone:   viper.GetString("BUSINESS_PHONE"),
			LogoURL: viper.GetString("BUSINESS_LOGO_URL"),
		},
		Loyalty: LoyaltyConfig{
			Frequency:          viper.GetInt("LOYALTY_FREQUENCY"),
			DiscountPercentage: viper.GetInt("LOYALTY_DISCOUNT_PERCENT"),
			CakeCategory:       viper.GetString("LOYALTY_CAKE_CATEGORY"),
		},
		WhatsApp: WhatsAppConfig{
			APIBaseURL:    viper.GetString("WHATSAPP_API_BASE_URL"),
			PhoneNumberID: viper.GetString("WHATSAPP_PHONE_NUMBER_ID"),
			AccessToken:   viper.GetString("WHATSAPP_ACCESS_TOKEN"),
			TemplateName:  viper.GetString("WHATSAPP_TEMPLATE_NAME"),
			LanguageCode:  viper.GetString("WHATSAPP_LANGUAGE_CODE"),
			CountryCode:   viper.GetString("WHATSAPP_COUNTRY_CODE"),
			SendDelay:     time.Duration(viper.GetInt("WHATSAPP_SEND_DELAY_SECONDS")) * time.Second,
			Timeout:       time.Duration(viper.GetInt("WHATSAPP_TIMEOUT_SECONDS")) * time.Second,
			TestMode:      viper.GetBool("WHATSAPP_TEST_MODE"),
		},
		Storage: StorageConfig{
			Bucket:        viper.GetString("STORAGE_BUCKET"),
			Region:        viper.GetString("STORAGE_REGION"),
			Endpoint:      viper.GetString("STORAGE_ENDPOINT"),
			PublicBaseURL: viper.GetString("STORAGE_PUBLIC_BASE_URL"),
			RetentionDays: viper.GetInt("STORAGE_RETENTION_DAYS"),
		},
		Invoice: InvoiceConfig{
			ScratchDir:    viper.GetString("INVOICE_SCRATCH_DIR"),
			SweepInterval: time.Duration(viper.GetInt("INVOICE_SWEEP_MINUTES")) * time.Minute,
			SweepMaxAge:   time.Duration(viper.GetInt("INVOICE_SWEEP_MAX_AGE_MINUTES")) * time.Minute,
		},
		CORS: CORSConfig{
			AllowedOrigins: viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods: viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders: viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

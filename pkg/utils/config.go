package utils

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"gig-booking/internal/pricing"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Pricing   PricingConfig
	Payment   PaymentConfig
	Relay     RelayConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name               string
	Port               string
	Debug              bool
	LogPath            string
	Environment        string
	CORSAllowedOrigins []string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	Name        string
	User        string
	Password    string
	MaxConns    int32
	AutoMigrate bool
}

type JWTConfig struct {
	Secret string
}

type PricingConfig struct {
	PlatformFee decimal.Decimal
	FeePercent  decimal.Decimal
	FeeFixed    decimal.Decimal
}

type PaymentConfig struct {
	Timeout        time.Duration
	OmisePublicKey string
	OmiseSecretKey string
}

type RelayConfig struct {
	RabbitMQURL string
	Exchange    string
	Interval    time.Duration
	BatchSize   int
}

type TelemetryConfig struct {
	OTLPEndpoint string
}

// LoadConfig reads .env when present and lets the environment override it.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	viper.SetDefault("APP_NAME", "gig-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("PLATFORM_FEE", pricing.DefaultPlatformFee.String())
	viper.SetDefault("PAYMENT_FEE_PERCENT", pricing.DefaultFeePercent.String())
	viper.SetDefault("PAYMENT_FEE_FIXED", pricing.DefaultFeeFixed.String())
	viper.SetDefault("PAYMENT_TIMEOUT_SECONDS", 10)
	viper.SetDefault("AUDIT_EXCHANGE", "audit.events")
	viper.SetDefault("AUDIT_RELAY_INTERVAL_SECONDS", 5)
	viper.SetDefault("AUDIT_RELAY_BATCH", 100)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	platformFee, err := decimal.NewFromString(viper.GetString("PLATFORM_FEE"))
	if err != nil {
		return nil, errors.New("PLATFORM_FEE must be a decimal number")
	}
	feePercent, err := decimal.NewFromString(viper.GetString("PAYMENT_FEE_PERCENT"))
	if err != nil {
		return nil, errors.New("PAYMENT_FEE_PERCENT must be a decimal number")
	}
	feeFixed, err := decimal.NewFromString(viper.GetString("PAYMENT_FEE_FIXED"))
	if err != nil {
		return nil, errors.New("PAYMENT_FEE_FIXED must be a decimal number")
	}

	config := &Config{
		App: AppConfig{
			Name:               viper.GetString("APP_NAME"),
			Port:               viper.GetString("PORT"),
			Debug:              viper.GetBool("DEBUG"),
			LogPath:            viper.GetString("LOG_PATH"),
			Environment:        viper.GetString("ENVIRONMENT"),
			CORSAllowedOrigins: splitList(viper.GetString("CORS_ALLOWED_ORIGINS")),
		},
		Database: DatabaseConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			Name:        viper.GetString("DB_NAME"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASS"),
			MaxConns:    viper.GetInt32("DB_MAX_CONNS"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
		},
		Pricing: PricingConfig{
			PlatformFee: platformFee,
			FeePercent:  feePercent,
			FeeFixed:    feeFixed,
		},
		Payment: PaymentConfig{
			Timeout:        time.Duration(viper.GetInt("PAYMENT_TIMEOUT_SECONDS")) * time.Second,
			OmisePublicKey: viper.GetString("OMISE_PUBLIC_KEY"),
			OmiseSecretKey: viper.GetString("OMISE_SECRET_KEY"),
		},
		Relay: RelayConfig{
			RabbitMQURL: viper.GetString("RABBITMQ_URL"),
			Exchange:    viper.GetString("AUDIT_EXCHANGE"),
			Interval:    time.Duration(viper.GetInt("AUDIT_RELAY_INTERVAL_SECONDS")) * time.Second,
			BatchSize:   viper.GetInt("AUDIT_RELAY_BATCH"),
		},
		Telemetry: TelemetryConfig{
			OTLPEndpoint: viper.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

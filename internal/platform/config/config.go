package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTIssuer         string
	JWTExpiryDuration time.Duration

	// Default currency for lazily created wallets, ISO 4217.
	DefaultCurrency string

	// WithdrawalFeeRate is the fee charged on withdrawals as a fraction of the
	// requested amount (e.g. "0.015" for 1.5%). Parsed as a decimal so fee
	// arithmetic never touches floating point.
	WithdrawalFeeRate decimal.Decimal

	// Paystack gateway settings.
	PaystackSecretKey string
	PaystackBaseURL   string
	GatewayTimeout    time.Duration
	GatewayMaxRetries uint64

	RedisAddr string

	KafkaBrokers          []string
	KafkaTransactionTopic string

	// Requests per minute per client IP on fund-movement routes.
	RateLimitPerMinute int64
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "savecircle-backend")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("DEFAULT_CURRENCY", "NGN")
	viper.SetDefault("WITHDRAWAL_FEE_RATE", "0.01")
	viper.SetDefault("PAYSTACK_SECRET_KEY", "")
	viper.SetDefault("PAYSTACK_BASE_URL", "https://api.paystack.co")
	viper.SetDefault("GATEWAY_TIMEOUT", "30s")
	viper.SetDefault("GATEWAY_MAX_RETRIES", 3)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TRANSACTION_TOPIC", "wallet.transactions")
	viper.SetDefault("RATE_LIMIT_PER_MINUTE", 60)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	jwtExpiryStr := viper.GetString("JWT_EXPIRY_DURATION")
	jwtExpiryDuration, err := time.ParseDuration(jwtExpiryStr)
	if err != nil {
		jwtExpiryDuration = time.Hour
		log.Printf("Warning: Invalid value for JWT_EXPIRY_DURATION ('%s'). Defaulting to %s.\n", jwtExpiryStr, jwtExpiryDuration)
	}
	cfg.JWTExpiryDuration = jwtExpiryDuration

	cfg.DefaultCurrency = viper.GetString("DEFAULT_CURRENCY")

	feeRateStr := viper.GetString("WITHDRAWAL_FEE_RATE")
	feeRate, err := decimal.NewFromString(feeRateStr)
	if err != nil || feeRate.IsNegative() {
		feeRate = decimal.Zero
		log.Printf("Warning: Invalid value for WITHDRAWAL_FEE_RATE ('%s'). Defaulting to 0.\n", feeRateStr)
	}
	cfg.WithdrawalFeeRate = feeRate

	cfg.PaystackSecretKey = viper.GetString("PAYSTACK_SECRET_KEY")
	if cfg.PaystackSecretKey == "" {
		log.Println("Warning: PAYSTACK_SECRET_KEY not set. Gateway calls will fail.")
	}
	cfg.PaystackBaseURL = viper.GetString("PAYSTACK_BASE_URL")

	gatewayTimeoutStr := viper.GetString("GATEWAY_TIMEOUT")
	gatewayTimeout, err := time.ParseDuration(gatewayTimeoutStr)
	if err != nil {
		gatewayTimeout = 30 * time.Second
		log.Printf("Warning: Invalid value for GATEWAY_TIMEOUT ('%s'). Defaulting to %s.\n", gatewayTimeoutStr, gatewayTimeout)
	}
	cfg.GatewayTimeout = gatewayTimeout
	cfg.GatewayMaxRetries = viper.GetUint64("GATEWAY_MAX_RETRIES")

	cfg.RedisAddr = viper.GetString("REDIS_ADDR")
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set. Idempotency fast path disabled; the database reservation still applies.")
	}

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = viper.GetStringSlice("KAFKA_BROKERS")
	} else {
		log.Println("Warning: KAFKA_BROKERS not set. Transaction events will not be published.")
	}
	cfg.KafkaTransactionTopic = viper.GetString("KAFKA_TRANSACTION_TOPIC")

	cfg.RateLimitPerMinute = viper.GetInt64("RATE_LIMIT_PER_MINUTE")

	return cfg, nil
}

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	awspkg "github.com/learnhub/course-checkout/pkg/aws"
)

type MoMoConfig struct {
	PartnerCode string        `validate:"required"`
	AccessKey   string        `validate:"required"`
	SecretKey   string        `validate:"required"`
	Endpoint    string        `validate:"required,url"`
	RequestType string        `validate:"required"`
	Lang        string        `validate:"omitempty,oneof=vi en"`
	Timeout     time.Duration `validate:"gt=0"`
}

type VNPayConfig struct {
	TmnCode    string        `validate:"required"`
	HashSecret string        `validate:"required"`
	PayURL     string        `validate:"required,url"`
	Version    string        `validate:"required"`
	Locale     string        `validate:"omitempty,oneof=vn en"`
	ExpireIn   time.Duration `validate:"gt=0"`
}

type Config struct {
	Port   string
	AppEnv string

	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     string
	PostgresSSLMode  string
	PostgresTimeZone string

	RedisURL string
	CartTTL  time.Duration

	JWTSecret      string
	AllowedOrigins []string

	Currency      string
	PublicBaseURL string // base of the IPN and return URLs handed to gateways
	FrontendURL   string // base of the success/cancel pages

	MoMo  MoMoConfig
	VNPay VNPayConfig

	EventBus           string // "sns", "sqs", "kafka" or "" for none
	PaymentSNSTopicARN string
	PaymentSQSQueueURL string
	KafkaBrokers       []string
	KafkaPaymentTopic  string

	UseSecretsManager bool
	SecretName        string
	CloudWatchEnabled bool
	CloudWatchGroup   string
	CloudWatchNS      string
}

// LoadConfig reads the environment, seeded from .env when present. Only the
// database settings are required; an incomplete gateway is reported by its
// provider at request time.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:   getEnv("PORT", "8090"),
		AppEnv: getEnv("APP_ENV", "development"),

		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		PostgresTimeZone: getEnv("POSTGRES_TIMEZONE", "Asia/Ho_Chi_Minh"),

		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		CartTTL:  time.Duration(getEnvInt("CART_TTL_HOURS", 24*7)) * time.Hour,

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		Currency:      getEnv("CURRENCY", "VND"),
		PublicBaseURL: strings.TrimSuffix(os.Getenv("PUBLIC_BASE_URL"), "/"),
		FrontendURL:   strings.TrimSuffix(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		MoMo: MoMoConfig{
			PartnerCode: os.Getenv("MOMO_PARTNER_CODE"),
			AccessKey:   os.Getenv("MOMO_ACCESS_KEY"),
			SecretKey:   os.Getenv("MOMO_SECRET_KEY"),
			Endpoint:    getEnv("MOMO_ENDPOINT", "https://test-payment.momo.vn/v2/gateway/api/create"),
			RequestType: getEnv("MOMO_REQUEST_TYPE", "captureWallet"),
			Lang:        getEnv("MOMO_LANG", "vi"),
			Timeout:     time.Duration(getEnvInt("MOMO_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		VNPay: VNPayConfig{
			TmnCode:    os.Getenv("VNPAY_TMN_CODE"),
			HashSecret: os.Getenv("VNPAY_HASH_SECRET"),
			PayURL:     getEnv("VNPAY_PAY_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			Version:    getEnv("VNPAY_VERSION", "2.1.0"),
			Locale:     getEnv("VNPAY_LOCALE", "vn"),
			ExpireIn:   time.Duration(getEnvInt("VNPAY_EXPIRE_MINUTES", 15)) * time.Minute,
		},

		EventBus:           strings.ToLower(os.Getenv("EVENT_BUS")),
		PaymentSNSTopicARN: os.Getenv("PAYMENT_SNS_TOPIC_ARN"),
		PaymentSQSQueueURL: os.Getenv("PAYMENT_SQS_QUEUE_URL"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaPaymentTopic:  getEnv("KAFKA_PAYMENT_TOPIC", "payment-events"),

		UseSecretsManager: os.Getenv("AWS_USE_SECRETS") == "true",
		SecretName:        getEnv("AWS_SECRET_NAME", "course-checkout/gateways"),
		CloudWatchEnabled: os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchGroup:   getEnv("CLOUDWATCH_LOG_GROUP", "/learnhub/services"),
		CloudWatchNS:      getEnv("CLOUDWATCH_NAMESPACE", "LearnHub"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for name, v := range map[string]string{
		"POSTGRES_USER":     c.PostgresUser,
		"POSTGRES_PASSWORD": c.PostgresPassword,
		"POSTGRES_DB":       c.PostgresDB,
		"POSTGRES_HOST":     c.PostgresHost,
	} {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	switch c.EventBus {
	case "", "sns", "sqs", "kafka":
	default:
		return fmt.Errorf("unsupported EVENT_BUS %q", c.EventBus)
	}
	return nil
}

// DSN renders the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.PostgresHost, c.PostgresUser, c.PostgresPassword, c.PostgresDB,
		c.PostgresPort, c.PostgresSSLMode, c.PostgresTimeZone)
}

// gatewaySecrets is the JSON document stored under SecretName.
type gatewaySecrets struct {
	MoMoAccessKey    string `json:"momo_access_key"`
	MoMoSecretKey    string `json:"momo_secret_key"`
	VNPayHashSecret  string `json:"vnpay_hash_secret"`
	PostgresPassword string `json:"postgres_password"`
	JWTSecret        string `json:"jwt_secret"`
}

// ApplySecrets overrides credentials with the values stored in Secrets
// Manager. Empty fields in the secret leave the environment value in place.
func (c *Config) ApplySecrets(ctx context.Context, secrets awspkg.SecretGetter) error {
	raw, err := secrets.GetSecret(ctx, c.SecretName)
	if err != nil {
		return err
	}
	var s gatewaySecrets
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return fmt.Errorf("secret %s is not valid JSON: %w", c.SecretName, err)
	}
	override(&c.MoMo.AccessKey, s.MoMoAccessKey)
	override(&c.MoMo.SecretKey, s.MoMoSecretKey)
	override(&c.VNPay.HashSecret, s.VNPayHashSecret)
	override(&c.PostgresPassword, s.PostgresPassword)
	override(&c.JWTSecret, s.JWTSecret)
	return nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil && v > 0 {
		return v
	}
	return fallback
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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"finance-app-go/pkg/logger"
)

type Config struct {
	HTTPPort       string
	Env            string
	AllowedOrigins []string
	DB             DBConfig
	Supabase       SupabaseConfig
	Groups         GroupsConfig
	Subscription   SubscriptionConfig
}

type DBConfig struct {
	DSN             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type SupabaseConfig struct {
	URL            string
	PublishableKey string
	JWTSecret      string
	AuthTimeout    time.Duration
	SkipAuth       bool
	MockUserID     string
	MockUserEmail  string
	MockUserName   string
	MockUserAvatar string
}

type GroupsConfig struct {
	InvitationTTL time.Duration
}

type SubscriptionConfig struct {
	WebhookSecret  string
	DefaultPeriod  time.Duration
	StatusCacheTTL time.Duration
}

// ReconcilerConfig drives the subscription-watch client, not the server.
type ReconcilerConfig struct {
	APIURL      string
	Token       string
	MinInterval time.Duration
	ForcedDelay time.Duration
	MaxRetries  int
	Backoff     time.Duration
	PollEvery   time.Duration
}

func Load(log logger.Logger) (Config, error) {
	err := loadDotEnv(log)
	if err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	return Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
		DB: DBConfig{
			DSN:             getEnv("DB_DSN", ""),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", "postgres"),
			Name:            getEnv("DB_NAME", "finance_app"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			TimeZone:        getEnv("DB_TIMEZONE", "UTC"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Supabase: SupabaseConfig{
			URL:            getEnv("SUPABASE_URL", ""),
			PublishableKey: getEnv("SUPABASE_PUBLISHABLE_KEY", getEnv("VITE_SUPABASE_PUBLISHABLE_KEY", "")),
			JWTSecret:      getEnv("SUPABASE_JWT_SECRET", ""),
			AuthTimeout:    getEnvDuration("SUPABASE_AUTH_TIMEOUT", 5*time.Second),
			SkipAuth:       getEnvBool("AUTH_SKIP", false),
			MockUserID:     getEnv("AUTH_MOCK_USER_ID", "00000000-0000-0000-0000-000000000001"),
			MockUserEmail:  getEnv("AUTH_MOCK_USER_EMAIL", ""),
			MockUserName:   getEnv("AUTH_MOCK_USER_NAME", ""),
			MockUserAvatar: getEnv("AUTH_MOCK_USER_AVATAR_URL", ""),
		},
		Groups: GroupsConfig{
			InvitationTTL: getEnvDuration("INVITATION_TTL", 7*24*time.Hour),
		},
		Subscription: SubscriptionConfig{
			WebhookSecret:  getEnv("PAYMENT_WEBHOOK_SECRET", ""),
			DefaultPeriod:  getEnvDuration("SUBSCRIPTION_PERIOD", 30*24*time.Hour),
			StatusCacheTTL: getEnvDuration("SUBSCRIPTION_STATUS_CACHE_TTL", 30*time.Second),
		},
	}, nil
}

func LoadReconciler(log logger.Logger) (ReconcilerConfig, error) {
	if err := loadDotEnv(log); err != nil {
		return ReconcilerConfig{}, fmt.Errorf("load .env: %w", err)
	}

	return ReconcilerConfig{
		APIURL:      getEnv("API_URL", "http://localhost:8080"),
		Token:       getEnv("API_TOKEN", ""),
		MinInterval: getEnvDuration("RECONCILER_MIN_INTERVAL", 10*time.Second),
		ForcedDelay: getEnvDuration("RECONCILER_FORCED_DELAY", 3*time.Second),
		MaxRetries:  getEnvInt("RECONCILER_MAX_RETRIES", 3),
		Backoff:     getEnvDuration("RECONCILER_BACKOFF", time.Second),
		PollEvery:   getEnvDuration("RECONCILER_POLL_INTERVAL", 30*time.Second),
	}, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	if len(result) == 0 {
		return fallback
	}
	return result
}

func (c DBConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.TimeZone
}

// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	AutoAction AutoActionConfig
	Forecast   ForecastConfig
	Export     ExportConfig
	Ops        OpsConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	LogLevel       string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
	// RunRateLimit is the number of auto-action runs per minute a single client may trigger.
	RunRateLimit int
	RunRateBurst int
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
	MaxTx    int64
}

// DSN returns the connection string, preferring an explicit URL.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type CacheConfig struct {
	Enabled        bool
	RedisURL       string
	RedisHost      string
	RedisPort      string
	RedisPassword  string
	RedisDB        int
	LockTTLSeconds int
	// ListTTLSeconds bounds how long a cached recommendation listing is served.
	ListTTLSeconds int
}

// AutoActionConfig holds the defaults of the replenishment run, shared by
// the scheduled job and the on-demand endpoint.
type AutoActionConfig struct {
	Enabled           bool
	CronSpec          string
	DefaultAccountID  string
	Country           string
	HorizonDays       int
	MinDaysCover      int
	ProductLimit      int
	MaxAccounts       int
	AutoExecute       bool
	AutoExecuteMaxQty int
}

type ForecastConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

type ExportConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
	Prefix    string
	// Format is csv or xlsx.
	Format string
}

type OpsConfig struct {
	Port string
}

// defaultCronSpec runs the replenishment job daily at 03:00.
const defaultCronSpec = "0 3 * * *"

var (
	once     sync.Once
	instance *Config
)

// Load reads the process configuration once.
func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()
		instance = load(viper.New())
	})

	return instance
}

func load(v *viper.Viper) *Config {
	setDefaults(v)
	v.AutomaticEnv()

	dbURL := v.GetString("ANALYTICS_DATABASE_URL")
	if dbURL == "" {
		dbURL = v.GetString("DATABASE_URL")
	}

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			LogLevel:       v.GetString("LOG_LEVEL"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: splitList(v.GetStringSlice("SERVER_ALLOWED_ORIGINS")),
			RunRateLimit:   v.GetInt("AUTO_ACTION_RATE_PER_MINUTE"),
			RunRateBurst:   v.GetInt("AUTO_ACTION_RATE_BURST"),
		},
		Database: DatabaseConfig{
			URL:      dbURL,
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			MaxOpen:  v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdle:  v.GetInt("DB_MAX_IDLE_CONNS"),
			MaxTx:    v.GetInt64("DB_MAX_CONCURRENT_TX"),
		},
		Cache: CacheConfig{
			Enabled:        v.GetBool("CACHE_ENABLED"),
			RedisURL:       v.GetString("REDIS_URL"),
			RedisHost:      v.GetString("REDIS_HOST"),
			RedisPort:      v.GetString("REDIS_PORT"),
			RedisPassword:  v.GetString("REDIS_PASSWORD"),
			RedisDB:        v.GetInt("REDIS_DB"),
			LockTTLSeconds: v.GetInt("AUTO_ACTION_LOCK_TTL_SECONDS"),
			ListTTLSeconds: v.GetInt("RECOMMENDATION_CACHE_TTL_SECONDS"),
		},
		AutoAction: AutoActionConfig{
			Enabled:           v.GetBool("AUTO_ACTION_ENABLED"),
			CronSpec:          cronSpec(v),
			DefaultAccountID:  v.GetString("AUTO_ACTION_DEFAULT_ACCOUNT_ID"),
			Country:           strings.TrimSpace(v.GetString("AUTO_ACTION_COUNTRY")),
			HorizonDays:       v.GetInt("AUTO_ACTION_HORIZON_DAYS"),
			MinDaysCover:      v.GetInt("AUTO_ACTION_MIN_DAYS_COVER"),
			ProductLimit:      v.GetInt("AUTO_ACTION_MAX_PRODUCTS"),
			MaxAccounts:       v.GetInt("AUTO_ACTION_MAX_ACCOUNTS"),
			AutoExecute:       v.GetBool("AUTO_EXECUTE_ENABLED"),
			AutoExecuteMaxQty: v.GetInt("AUTO_EXECUTE_MAX_QTY"),
		},
		Forecast: ForecastConfig{
			BaseURL:        v.GetString("FORECAST_SERVICE_URL"),
			TimeoutSeconds: v.GetInt("FORECAST_TIMEOUT_SECONDS"),
		},
		Export: ExportConfig{
			Enabled:   v.GetBool("EXPORT_ENABLED"),
			Endpoint:  v.GetString("EXPORT_ENDPOINT"),
			AccessKey: v.GetString("EXPORT_ACCESS_KEY"),
			SecretKey: v.GetString("EXPORT_SECRET_KEY"),
			Bucket:    v.GetString("EXPORT_BUCKET"),
			Region:    v.GetString("EXPORT_REGION"),
			UseSSL:    v.GetBool("EXPORT_USE_SSL"),
			Prefix:    v.GetString("EXPORT_PREFIX"),
			Format:    strings.ToLower(strings.TrimSpace(v.GetString("EXPORT_FORMAT"))),
		},
		Ops: OpsConfig{
			Port: v.GetString("OPS_PORT"),
		},
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "4200")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	// auto-action runs are synchronous and wait on the forecast service
	v.SetDefault("SERVER_WRITE_TIMEOUT", 300)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
	v.SetDefault("AUTO_ACTION_RATE_PER_MINUTE", 6)
	v.SetDefault("AUTO_ACTION_RATE_BURST", 2)

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ANALYTICS_DATABASE_URL", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "aimerchant")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MAX_CONCURRENT_TX", 10)

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AUTO_ACTION_LOCK_TTL_SECONDS", 600)
	v.SetDefault("RECOMMENDATION_CACHE_TTL_SECONDS", 60)

	v.SetDefault("AUTO_ACTION_ENABLED", true)
	v.SetDefault("AUTO_ACTION_CRON", "")
	v.SetDefault("CRON_SPEC", "")
	v.SetDefault("AUTO_ACTION_DEFAULT_ACCOUNT_ID", "")
	v.SetDefault("AUTO_ACTION_COUNTRY", "")
	v.SetDefault("AUTO_ACTION_HORIZON_DAYS", 14)
	v.SetDefault("AUTO_ACTION_MIN_DAYS_COVER", 7)
	v.SetDefault("AUTO_ACTION_MAX_PRODUCTS", 200)
	v.SetDefault("AUTO_ACTION_MAX_ACCOUNTS", 50)
	v.SetDefault("AUTO_EXECUTE_ENABLED", false)
	v.SetDefault("AUTO_EXECUTE_MAX_QTY", 50)

	v.SetDefault("FORECAST_SERVICE_URL", "http://localhost:8000")
	v.SetDefault("FORECAST_TIMEOUT_SECONDS", 60)

	v.SetDefault("EXPORT_ENABLED", false)
	v.SetDefault("EXPORT_ENDPOINT", "")
	v.SetDefault("EXPORT_ACCESS_KEY", "")
	v.SetDefault("EXPORT_SECRET_KEY", "")
	v.SetDefault("EXPORT_BUCKET", "")
	v.SetDefault("EXPORT_REGION", "us-east-1")
	v.SetDefault("EXPORT_USE_SSL", true)
	v.SetDefault("EXPORT_PREFIX", "exports/purchase-orders")
	v.SetDefault("EXPORT_FORMAT", "csv")

	v.SetDefault("OPS_PORT", "9090")
}

// cronSpec resolves the replenishment schedule. CRON_SPEC is the name used by
// older deployments.
func cronSpec(v *viper.Viper) string {
	for _, key := range []string{"AUTO_ACTION_CRON", "CRON_SPEC"} {
		if spec := strings.TrimSpace(v.GetString(key)); spec != "" {
			return spec
		}
	}
	return defaultCronSpec
}

// splitList flattens comma separated entries coming from the environment.
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				out = append(out, trimmed)
			}
		}
	}
	return out
}

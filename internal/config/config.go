package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	viper "github.com/spf13/viper"
)

/*
把init config跟read config分開
init : 需要設置viper watch 與 onConfigChange
read : 一般讀取  需要使用讀寫鎖
*/
var configSingleton *ConfigSingleTon
var muonce sync.Once

const ConfigPathEnv = "STOREFRONT_CONFIG"

type ConfigSingleTon struct {
	Config *Config
	mu     sync.RWMutex
}

type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	ClientURL   string `mapstructure:"CLIENT_URL"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	Environment string `mapstructure:"ENVIRONMENT"`

	DbName string `mapstructure:"POSTGRES_DB"`
	DbHost string `mapstructure:"POSTGRES_HOST"`
	DbPort string `mapstructure:"POSTGRES_PORT"`
	DbUser string `mapstructure:"POSTGRES_USER"`
	DbPas  string `mapstructure:"POSTGRES_PASSWORD"`

	OrderStore string `mapstructure:"ORDER_STORE"`
	MongoURI   string `mapstructure:"MONGO_URI"`
	MongoDB    string `mapstructure:"MONGO_DB"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	KafkaBrokers    string `mapstructure:"KAFKA_BROKERS"`
	KafkaOrderTopic string `mapstructure:"KAFKA_ORDER_TOPIC"`
	LogKafkaTopic   string `mapstructure:"LOG_KAFKA_TOPIC"`

	JwtSecret string        `mapstructure:"JWT_SECRET"`
	JwtTTL    time.Duration `mapstructure:"JWT_TTL"`

	StripeSecretKey string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeAPIURL    string `mapstructure:"STRIPE_API_URL"`
	PaymentCurrency string `mapstructure:"PAYMENT_CURRENCY"`

	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	FlatShippingFee       string `mapstructure:"FLAT_SHIPPING_FEE"`

	IdempotencyTTL time.Duration `mapstructure:"IDEMPOTENCY_TTL"`
	CartTTL        time.Duration `mapstructure:"CART_TTL"`

	RateLimitCapacity int     `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRate     float64 `mapstructure:"RATE_LIMIT_RATE"`
}

const (
	OrderStorePostgres = "postgres"
	OrderStoreMongo    = "mongo"
)

var defaults = map[string]any{
	"SERVER_PORT":             "5000",
	"CLIENT_URL":              "http://localhost:3000",
	"LOG_LEVEL":               "info",
	"ENVIRONMENT":             "development",
	"POSTGRES_DB":             "storefront",
	"POSTGRES_HOST":           "localhost",
	"POSTGRES_PORT":           "5432",
	"POSTGRES_USER":           "postgres",
	"POSTGRES_PASSWORD":       "",
	"ORDER_STORE":             OrderStorePostgres,
	"MONGO_URI":               "mongodb://localhost:27017",
	"MONGO_DB":                "storefront",
	"REDIS_ADDR":              "",
	"REDIS_PASSWORD":          "",
	"REDIS_DB":                0,
	"KAFKA_BROKERS":           "",
	"KAFKA_ORDER_TOPIC":       "storefront.orders",
	"LOG_KAFKA_TOPIC":         "",
	"JWT_SECRET":              "",
	"JWT_TTL":                 "168h",
	"STRIPE_SECRET_KEY":       "",
	"STRIPE_API_URL":          "",
	"PAYMENT_CURRENCY":        "inr",
	"FREE_SHIPPING_THRESHOLD": "999",
	"FLAT_SHIPPING_FEE":       "99",
	"IDEMPOTENCY_TTL":         "24h",
	"CART_TTL":                "720h",
	"RATE_LIMIT_CAPACITY":     10,
	"RATE_LIMIT_RATE":         0.5,
}

func GetConfig() *Config {
	initConfig()
	configSingleton.mu.RLock()
	defer configSingleton.mu.RUnlock()
	return configSingleton.Config
}

func initConfig() {
	muonce.Do(func() {
		configSingleton = &ConfigSingleTon{}
		v := viper.GetViper()
		cf, err := Load(v, ConfigPath())
		if err != nil {
			log.Fatalf("error read config: %v", err)
		}
		configSingleton.Config = cf
		if v.ConfigFileUsed() == "" {
			return
		}
		v.OnConfigChange(func(e fsnotify.Event) {
			cf, err := Load(v, ConfigPath())
			if err != nil {
				log.Printf("failed to reload config file %s: %v", e.Name, err)
				return
			}
			configSingleton.mu.Lock()
			configSingleton.Config = cf
			configSingleton.mu.Unlock()
		})
		v.WatchConfig()
	})
}

func ConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return ".env"
}

/*
單純回傳錯誤  由外部決定要不要Fatal
設定檔不存在時只讀環境變數
*/
func Load(v *viper.Viper, path string) (*Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		v.SetConfigFile("")
	}

	cf := &Config{}
	if err := v.Unmarshal(cf); err != nil {
		return nil, err
	}
	return cf, nil
}

func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Environment, "development")
}

func (c *Config) ShippingThreshold() decimal.Decimal {
	return parseDecimal(c.FreeShippingThreshold, decimal.NewFromInt(999))
}

func (c *Config) ShippingFee() decimal.Decimal {
	return parseDecimal(c.FlatShippingFee, decimal.NewFromInt(99))
}

func parseDecimal(s string, fallback decimal.Decimal) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() {
		return fallback
	}
	return d
}

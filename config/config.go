package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gopkg.in/yaml.v3"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

func (c PostgresConfig) ConnString() string {
	return "host=" + c.Host + " port=" + c.Port + " user=" + c.User +
		" password=" + c.Password + " dbname=" + c.Name + " sslmode=" + c.SSLMode
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

func (c RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type KafkaConfig struct {
	Broker  string `yaml:"broker"`
	Topic   string `yaml:"topic"`
	GroupID string `yaml:"group_id"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	TTL        time.Duration `yaml:"ttl"`
	Secure     bool          `yaml:"secure"`
}

type UploadsConfig struct {
	Dir       string `yaml:"dir"`
	URLPrefix string `yaml:"url_prefix"`
}

// MpesaConfig holds the Daraja credentials used for STK push payments.
// CallbackToken is the secret path segment the gateway must present on callbacks.
type MpesaConfig struct {
	BaseURL        string `yaml:"base_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	ShortCode      string `yaml:"short_code"`
	Passkey        string `yaml:"passkey"`
	CallbackURL    string `yaml:"callback_url"`
	CallbackToken  string `yaml:"callback_token"`
	PendingTTL     time.Duration `yaml:"pending_ttl"`
}

type AdminConfig struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ServicesConfig struct {
	MarketURL    string `yaml:"market_url"`
	AnalyticsURL string `yaml:"analytics_url"`
}

type Config struct {
	Environment string         `yaml:"environment"`
	HTTPAddr    string         `yaml:"http_addr"`
	PublicURL   string         `yaml:"public_url"`
	BcryptCost  int            `yaml:"bcrypt_cost"`
	CORSOrigins []string       `yaml:"cors_origins"`
	Postgres    PostgresConfig `yaml:"postgres"`
	Redis       RedisConfig    `yaml:"redis"`
	Kafka       KafkaConfig    `yaml:"kafka"`
	Session     SessionConfig  `yaml:"session"`
	Uploads     UploadsConfig  `yaml:"uploads"`
	Mpesa       MpesaConfig    `yaml:"mpesa"`
	Admin       AdminConfig    `yaml:"admin"`
	Log         LogConfig      `yaml:"log"`
	Services    ServicesConfig `yaml:"services"`
}

func Default() Config {
	return Config{
		Environment: "development",
		HTTPAddr:    ":8081",
		PublicURL:   "http://localhost:8080",
		BcryptCost:  12,
		CORSOrigins: []string{"http://localhost:3000"},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			Name:    "quickbite",
			User:    "postgres",
			SSLMode: "disable",
		},
		Redis: RedisConfig{Host: "localhost", Port: "6379"},
		Kafka: KafkaConfig{Broker: "localhost:9092", Topic: "marketplace-events", GroupID: "agg-svc"},
		Session: SessionConfig{
			CookieName: "qb_session",
			TTL:        7 * 24 * time.Hour,
		},
		Uploads: UploadsConfig{Dir: "./uploads", URLPrefix: "/uploads/"},
		Mpesa: MpesaConfig{
			BaseURL:    "https://sandbox.safaricom.co.ke",
			PendingTTL: 2 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		Services: ServicesConfig{
			MarketURL:    "http://localhost:8081",
			AnalyticsURL: "http://localhost:8083",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variables, in that order of precedence (env wins).
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("QUICKBITE_CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.PublicURL = getEnv("PUBLIC_URL", cfg.PublicURL)
	cfg.BcryptCost = getEnvInt("BCRYPT_COST", cfg.BcryptCost)
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORSOrigins = strings.Split(origins, ",")
	}

	cfg.Postgres.Host = getEnv("DB_HOST", cfg.Postgres.Host)
	cfg.Postgres.Port = getEnv("DB_PORT", cfg.Postgres.Port)
	cfg.Postgres.Name = getEnv("DB_NAME", cfg.Postgres.Name)
	cfg.Postgres.User = getEnv("DB_USER", cfg.Postgres.User)
	cfg.Postgres.Password = getEnv("DB_PASSWORD", cfg.Postgres.Password)
	cfg.Postgres.SSLMode = getEnv("DB_SSL_MODE", cfg.Postgres.SSLMode)

	cfg.Redis.Host = getEnv("REDIS_HOST", cfg.Redis.Host)
	cfg.Redis.Port = getEnv("REDIS_PORT", cfg.Redis.Port)

	cfg.Kafka.Broker = getEnv("KAFKA_BROKER", cfg.Kafka.Broker)
	cfg.Kafka.Topic = getEnv("KAFKA_TOPIC", cfg.Kafka.Topic)
	cfg.Kafka.GroupID = getEnv("KAFKA_GROUP_ID", cfg.Kafka.GroupID)

	cfg.Session.CookieName = getEnv("SESSION_COOKIE", cfg.Session.CookieName)
	cfg.Session.TTL = getEnvDuration("SESSION_TTL", cfg.Session.TTL)
	cfg.Session.Secure = getEnv("SESSION_SECURE", strconv.FormatBool(cfg.Session.Secure)) == "true"

	cfg.Uploads.Dir = getEnv("UPLOADS_DIR", cfg.Uploads.Dir)

	cfg.Mpesa.BaseURL = getEnv("MPESA_BASE_URL", cfg.Mpesa.BaseURL)
	cfg.Mpesa.ConsumerKey = getEnv("MPESA_CONSUMER_KEY", cfg.Mpesa.ConsumerKey)
	cfg.Mpesa.ConsumerSecret = getEnv("MPESA_CONSUMER_SECRET", cfg.Mpesa.ConsumerSecret)
	cfg.Mpesa.ShortCode = getEnv("MPESA_SHORTCODE", cfg.Mpesa.ShortCode)
	cfg.Mpesa.Passkey = getEnv("MPESA_PASSKEY", cfg.Mpesa.Passkey)
	cfg.Mpesa.CallbackURL = getEnv("MPESA_CALLBACK_URL", cfg.Mpesa.CallbackURL)
	cfg.Mpesa.CallbackToken = getEnv("MPESA_CALLBACK_TOKEN", cfg.Mpesa.CallbackToken)

	cfg.Admin.Name = getEnv("ADMIN_NAME", cfg.Admin.Name)
	cfg.Admin.Email = getEnv("ADMIN_EMAIL", cfg.Admin.Email)
	cfg.Admin.Password = getEnv("ADMIN_PASSWORD", cfg.Admin.Password)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Services.MarketURL = getEnv("MARKET_SVC_URL", cfg.Services.MarketURL)
	cfg.Services.AnalyticsURL = getEnv("ANALYTICS_SVC_URL", cfg.Services.AnalyticsURL)
}

func MustInitPostgres(cfg PostgresConfig) *sql.DB {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err = db.Ping(); err != nil {
		log.Fatal("Failed to ping database:", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	return db
}

func MustInitRedis(cfg RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr(),
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}

	return client
}

func NewKafkaReader(cfg KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: []string{cfg.Broker},
		Topic:   cfg.Topic,
		GroupID: cfg.GroupID,
	})
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:     kafka.TCP(cfg.Broker),
		Topic:    cfg.Topic,
		Balancer: &kafka.LeastBytes{},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

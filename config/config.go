package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Admin    AdminConfig    `mapstructure:"admin"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Flyer    FlyerConfig    `mapstructure:"flyer"`
	Storage  StorageConfig  `mapstructure:"storage"`
	OSS      OSSConfig      `mapstructure:"oss"`
	S3       S3Config       `mapstructure:"s3"`
	Queue    QueueConfig    `mapstructure:"queue"`
	CORS     CORSConfig     `mapstructure:"cors"`
}

type ServerConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Mode     string `mapstructure:"mode"`
	LogLevel string `mapstructure:"log_level"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	DSN          string `mapstructure:"dsn"` // 非空时优先使用
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
	// Ephemeral 为 true 表示 secret 是启动时随机生成的，重启后旧令牌失效
	Ephemeral bool `mapstructure:"-"`
}

type AdminConfig struct {
	Password         string `mapstructure:"password"`
	TokenExpireHours int    `mapstructure:"token_expire_hours"`
}

type LLMConfig struct {
	APIKey         string `mapstructure:"api_key"`
	BaseURL        string `mapstructure:"base_url"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type QuotaConfig struct {
	DefaultDailyLimit int    `mapstructure:"default_daily_limit"`
	Timezone          string `mapstructure:"timezone"`
}

type FlyerConfig struct {
	BackgroundPath   string `mapstructure:"background_path"`
	Width            int    `mapstructure:"width"`
	Height           int    `mapstructure:"height"`
	ShareExpireHours int    `mapstructure:"share_expire_hours"`
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"` // local, oss, s3
	LocalDir      string `mapstructure:"local_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
	CDNDomain       string `mapstructure:"cdn_domain"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"`
}

type QueueConfig struct {
	FlyerQueue string `mapstructure:"flyer_queue"`
	MaxWorkers int    `mapstructure:"max_workers"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

var defaults = map[string]interface{}{
	"server.host":               "0.0.0.0",
	"server.port":               8080,
	"server.mode":               "debug",
	"server.log_level":          "info",
	"database.driver":           "sqlite",
	"database.database":         "ramadan_bot.db",
	"database.max_idle_conns":   5,
	"database.max_open_conns":   20,
	"redis.host":                "127.0.0.1",
	"redis.port":                6379,
	"redis.pool_size":           10,
	"jwt.expire_hours":          24 * 7,
	"admin.token_expire_hours":  2,
	"llm.base_url":              "https://generativelanguage.googleapis.com/v1beta/openai/",
	"llm.model":                 "gemini-2.5-flash-lite",
	"llm.timeout_seconds":       30,
	"quota.default_daily_limit": 1,
	"quota.timezone":            "Local",
	"flyer.width":               1080,
	"flyer.height":              1080,
	"flyer.share_expire_hours":  72,
	"storage.backend":           "local",
	"storage.local_dir":         "./data/flyers",
	"storage.public_base_url":   "/flyers",
	"queue.flyer_queue":         "flyer_share_jobs",
	"queue.max_workers":         2,
	"cors.allowed_methods":      []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	"cors.allowed_headers":      []string{"Authorization", "Content-Type"},
	"jwt.secret":                "",
	"admin.password":            "",
	"llm.api_key":               "",
	"flyer.background_path":     "",
	"database.host":             "",
	"database.port":             0,
	"database.username":         "",
	"database.password":         "",
	"database.ssl_mode":         "",
	"database.dsn":              "",
	"redis.password":            "",
	"redis.db":                  0,
	"oss.endpoint":              "",
	"oss.access_key_id":         "",
	"oss.access_key_secret":     "",
	"oss.bucket_name":           "",
	"oss.cdn_domain":            "",
	"s3.endpoint":               "",
	"s3.region":                 "us-east-1",
	"s3.access_key":             "",
	"s3.secret_key":             "",
	"s3.bucket":                 "",
	"s3.public_url":             "",
	"cors.allowed_origins":      []string{},
}

func Load(configPath string) (*Config, error) {
	dir := filepath.Dir(configPath)

	// .env 只补充未设置的环境变量
	envPath := filepath.Join(dir, ".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envPath, err)
		}
	}

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	localConfigPath := filepath.Join(dir, "config.local.yaml")
	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "GEMINI_API_KEY", "API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 补齐缺省值并检查明显错误的配置
func (c *Config) Validate() error {
	if c.Quota.DefaultDailyLimit <= 0 {
		c.Quota.DefaultDailyLimit = 1
	}
	if c.Flyer.Width <= 0 {
		c.Flyer.Width = 1080
	}
	if c.Flyer.Height <= 0 {
		c.Flyer.Height = 1080
	}
	if c.Admin.TokenExpireHours <= 0 {
		c.Admin.TokenExpireHours = 2
	}
	if c.JWT.ExpireHours <= 0 {
		c.JWT.ExpireHours = 24
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gemini-2.5-flash-lite"
	}
	if c.Queue.MaxWorkers <= 0 {
		c.Queue.MaxWorkers = 1
	}

	if _, err := c.Quota.Location(); err != nil {
		return fmt.Errorf("invalid quota.timezone %q: %w", c.Quota.Timezone, err)
	}

	switch c.Database.Driver {
	case "", "sqlite", "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}

	switch c.Storage.Backend {
	case "", "local", "oss", "s3":
	default:
		return fmt.Errorf("unsupported storage.backend %q", c.Storage.Backend)
	}

	if c.JWT.Secret == "" {
		if c.Server.Mode == "release" {
			return errors.New("jwt.secret is required in release mode")
		}
		secret, err := randomSecret()
		if err != nil {
			return fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		c.JWT.Secret = secret
		c.JWT.Ephemeral = true
	}

	return nil
}

func randomSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Location 返回配额按天切分所使用的时区
func (q QuotaConfig) Location() (*time.Location, error) {
	if q.Timezone == "" || q.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(q.Timezone)
}

// LLMTimeout 返回 AI 调用的超时时间
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

type AppConfig struct {
	API        *APIConfig        `mapstructure:"api"`
	Gin        *GinConfig        `mapstructure:"gin"`
	Postgres   *PostgresConfig   `mapstructure:"postgres"`
	Campus     *CampusConfig     `mapstructure:"campus"`
	SMTP       *SMTPConfig       `mapstructure:"smtp"`
	RabbitMQ   *RabbitMQConfig   `mapstructure:"rabbitmq"`
	Redis      *RedisConfig      `mapstructure:"redis"`
	Notify     *NotifyConfig     `mapstructure:"notify"`
	Reconciler *ReconcilerConfig `mapstructure:"reconciler"`
	Admin      *AdminConfig      `mapstructure:"admin"`
}

type APIConfig struct {
	Environment        string        `mapstructure:"environment"`
	Port               string        `mapstructure:"port"`
	BaseURL            string        `mapstructure:"base_url"`
	PublicURL          string        `mapstructure:"public_url"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	UploadDir          string        `mapstructure:"upload_dir"`
	FeedbackSecret     string        `mapstructure:"feedback_secret"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode, c.TimeZone,
	)
}

type CampusConfig struct {
	EmailDomains []string `mapstructure:"email_domains"`
}

type SMTPConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type RabbitMQConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
	Queue    string `mapstructure:"queue"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type NotifyConfig struct {
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ReconcilerConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.jwt_ttl", 7*24*time.Hour)
	v.SetDefault("api.upload_dir", "./uploads")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("campus.email_domains", []string{"students.iiit.ac.in", "research.iiit.ac.in"})
	v.SetDefault("rabbitmq.exchange", "felicity.notifications")
	v.SetDefault("rabbitmq.queue", "felicity.notifications.jobs")
	v.SetDefault("redis.channel", "felicity.realtime")
	v.SetDefault("notify.workers", 4)
	v.SetDefault("notify.queue_size", 256)
	v.SetDefault("notify.timeout", 15*time.Second)
	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("reconciler.interval", time.Minute)
}

// Load reads the config file at path. Environment variables override file values,
// e.g. API_JWT_SIGNING_KEY overrides api.jwt_signing_key.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
	}

	conf := &AppConfig{}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.validate(); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		zap.L().Info("config file changed, restart to apply", zap.String("file", e.Name), zap.String("op", e.Op.String()))
	})
	v.WatchConfig()

	return conf, nil
}

func (c *AppConfig) validate() error {
	if c.API == nil || c.API.JWTSigningKey == "" {
		return fmt.Errorf("api.jwt_signing_key is required")
	}
	if c.API.FeedbackSecret == "" {
		c.API.FeedbackSecret = c.API.JWTSigningKey
	}
	if c.Gin == nil {
		c.Gin = &GinConfig{Mode: "debug"}
	}
	if c.Postgres == nil {
		c.Postgres = &PostgresConfig{}
	}
	if c.Campus == nil {
		c.Campus = &CampusConfig{}
	}
	if c.SMTP == nil {
		c.SMTP = &SMTPConfig{}
	}
	if c.RabbitMQ == nil {
		c.RabbitMQ = &RabbitMQConfig{}
	}
	if c.Redis == nil {
		c.Redis = &RedisConfig{}
	}
	if c.Notify == nil {
		c.Notify = &NotifyConfig{Workers: 4, QueueSize: 256}
	}
	if c.Reconciler == nil {
		c.Reconciler = &ReconcilerConfig{}
	}
	if c.Admin == nil {
		c.Admin = &AdminConfig{}
	}

	return nil
}

package config

import (
	"log"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

var Cfg Config

type Config struct {
	// 服务配置
	ServerPort  string `env:"SERVER_PORT" envDefault:"8888"`
	ServerHost  string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"` // development, staging, production
	ServiceName string `env:"SERVICE_NAME" envDefault:"carecompanion"`

	// PostgreSQL 配置
	PostgreSQLHost     string `env:"POSTGRESQL_HOST" envDefault:"localhost"`
	PostgreSQLPort     string `env:"POSTGRESQL_PORT" envDefault:"5432"`
	PostgreSQLUser     string `env:"POSTGRESQL_USER" envDefault:"postgres"`
	PostgreSQLPassword string `env:"POSTGRESQL_PASSWORD" envDefault:"postgres"`
	PostgreSQLDatabase string `env:"POSTGRESQL_DATABASE" envDefault:"carecompanion"`
	PostgreSQLSchema   string `env:"POSTGRESQL_SCHEMA" envDefault:"public"`
	PostgreSQLSSLMode  string `env:"POSTGRESQL_SSLMODE" envDefault:"disable"`
	PostgreSQLMaxIdle  int    `env:"POSTGRESQL_MAX_IDLE" envDefault:"30"`
	PostgreSQLMaxOpen  int    `env:"POSTGRESQL_MAX_OPEN" envDefault:"200"`
	// 只读副本，host:port 列表，为空则不启用读写分离
	PostgreSQLReplicas []string `env:"POSTGRESQL_REPLICAS" envSeparator:","`

	// Redis 配置
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"care"`

	// RabbitMQ 配置
	RabbitMQAddr     string `env:"RABBITMQ_ADDR" envDefault:"localhost"`
	RabbitMQPort     string `env:"RABBITMQ_PORT" envDefault:"5672"`
	RabbitMQUsername string `env:"RABBITMQ_USERNAME" envDefault:"guest"`
	RabbitMQPassword string `env:"RABBITMQ_PASSWORD" envDefault:"guest"`
	RabbitMQVhost    string `env:"RABBITMQ_VHOST" envDefault:"/"`

	// JWT 配置
	JWTSecret        string `env:"JWT_SECRET"` // 必填，用于签名 JWT
	JWTExpireMinutes int    `env:"JWT_EXPIRE_MINUTES" envDefault:"30"`
	JWTRefreshDays   int    `env:"JWT_REFRESH_DAYS" envDefault:"7"`

	// 阿里云短信，用于漏服药时通知照护者
	// AccessKey 通过阿里云 SDK 的环境变量自动获取
	AliCloudAccessKeyID     string `env:"ALIBABA_CLOUD_ACCESS_KEY_ID"`
	AliCloudAccessKeySecret string `env:"ALIBABA_CLOUD_ACCESS_KEY_SECRET"`
	SMSProvider             string `env:"SMS_PROVIDER" envDefault:"aliyun"` // aliyun, mock
	SMSSignName             string `env:"SMS_SIGN_NAME"`
	SMSTemplateCode         string `env:"SMS_TEMPLATE_CODE"`

	// 加密配置
	EncryptionKey string `env:"ENCRYPTION_KEY"` // 用于加密手机号等敏感数据，32字节 AES-256
	PhoneHashSalt string `env:"PHONEHASH_SALT"`

	// Snowflake ID 生成器配置
	SnowflakeMachineID  int64 `env:"SNOWFLAKE_MACHINE_ID" envDefault:"1"`
	SnowflakeDataCenter int64 `env:"SNOWFLAKE_DATACENTER_ID" envDefault:"1"`

	// 日志配置
	LoggerLevel      string `env:"LOGGER_LEVEL" envDefault:"INFO"`
	LoggerFormat     string `env:"LOGGER_FORMAT" envDefault:"text"` // json, text
	LoggerOutputPath string `env:"LOGGER_OUTPUT_PATH" envDefault:"stdout"`

	// 链路追踪与指标
	OtelEnabled  bool   `env:"OTEL_ENABLED" envDefault:"false"`
	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4317"`
	OtelInsecure bool   `env:"OTEL_EXPORTER_OTLP_INSECURE" envDefault:"true"`

	// 速率限制配置, 配置在中间件内
	RateLimitEnabled bool `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitRPS     int  `env:"RATE_LIMIT_RPS" envDefault:"100"` // 每秒请求数

	// 提醒时间窗口
	ReminderPreDoseWindow    time.Duration `env:"REMINDER_PRE_DOSE_WINDOW" envDefault:"10m"`
	ReminderGracePeriod      time.Duration `env:"REMINDER_GRACE_PERIOD" envDefault:"1m"`
	ReminderDefaultSnooze    time.Duration `env:"REMINDER_DEFAULT_SNOOZE" envDefault:"9m"`
	ReminderFinalWarning     time.Duration `env:"REMINDER_FINAL_WARNING" envDefault:"60s"`
	ReminderTickInterval     time.Duration `env:"REMINDER_TICK_INTERVAL" envDefault:"1s"`
	ReminderRefreshInterval  time.Duration `env:"REMINDER_REFRESH_INTERVAL" envDefault:"30s"`
	ReminderSessionIdle      time.Duration `env:"REMINDER_SESSION_IDLE_TIMEOUT" envDefault:"10m"`
	ReminderOverdueAfter     time.Duration `env:"REMINDER_OVERDUE_AFTER" envDefault:"15m"`
	ReminderGenerateHorizon  time.Duration `env:"REMINDER_GENERATE_HORIZON" envDefault:"24h"`
	ReminderOneOffLead       time.Duration `env:"REMINDER_ONE_OFF_LEAD" envDefault:"1m"`
	ReminderMaxSnoozeMinutes int           `env:"REMINDER_MAX_SNOOZE_MINUTES" envDefault:"30"`
	ReminderDefaultTimeZone  string        `env:"REMINDER_DEFAULT_TIMEZONE" envDefault:"Asia/Shanghai"`

	// 语音助手对话代理
	OpenAIAPIKey    string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL   string `env:"OPENAI_BASE_URL"`
	OpenAIModel     string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	OpenAIMaxTokens int    `env:"OPENAI_MAX_TOKENS" envDefault:"512"`
}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN: Cannot load .env file: %v, using environment variables", err)
	}

	Cfg = Config{}
	if err := env.Parse(&Cfg); err != nil {
		log.Fatalf("Failed to parse environment variables: %v", err)
	}
}

// MustValidate 校验启动必需的配置，由各个进程入口调用
func MustValidate() {
	if Cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	if Cfg.EncryptionKey == "" {
		log.Fatal("ENCRYPTION_KEY is required (32 bytes for AES-256)")
	}

	if len(Cfg.EncryptionKey) != 32 {
		log.Fatal("ENCRYPTION_KEY must be exactly 32 bytes for AES-256")
	}

	if Cfg.ReminderFinalWarning <= 0 || Cfg.ReminderPreDoseWindow <= 0 || Cfg.ReminderGracePeriod < 0 {
		log.Fatal("REMINDER_* windows must be positive")
	}

	if Cfg.SMSSignName == "" {
		log.Printf("WARN: SMS_SIGN_NAME is not set, caregiver SMS may not work properly")
	}
	if Cfg.SMSTemplateCode == "" {
		log.Printf("WARN: SMS_TEMPLATE_CODE is not set, caregiver SMS may not work properly")
	}

	if Cfg.OpenAIAPIKey == "" {
		log.Printf("WARN: OPENAI_API_KEY is not set, assistant chat will be unavailable")
	}
}

func (c *Config) GetDSN() string {
	return c.dsnFor(c.PostgreSQLHost, c.PostgreSQLPort)
}

// GetReplicaDSNs 返回只读副本的 DSN，副本沿用主库的账号与库名
func (c *Config) GetReplicaDSNs() []string {
	dsns := make([]string, 0, len(c.PostgreSQLReplicas))
	for _, r := range c.PostgreSQLReplicas {
		host, port := strings.TrimSpace(r), c.PostgreSQLPort
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host, port = host[:i], host[i+1:]
		}
		if host == "" {
			continue
		}
		dsns = append(dsns, c.dsnFor(host, port))
	}
	return dsns
}

func (c *Config) dsnFor(host, port string) string {
	return "host=" + host +
		" port=" + port +
		" user=" + c.PostgreSQLUser +
		" password=" + c.PostgreSQLPassword +
		" dbname=" + c.PostgreSQLDatabase +
		" sslmode=" + c.PostgreSQLSSLMode +
		" search_path=" + c.PostgreSQLSchema
}

func (c *Config) GetRabbitMQURL() string {
	return "amqp://" + c.RabbitMQUsername + ":" + c.RabbitMQPassword + "@" + c.RabbitMQAddr + ":" + c.RabbitMQPort + c.RabbitMQVhost
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Location 返回展示服药时间使用的时区，解析失败回退到 UTC
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.ReminderDefaultTimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

/*
 * @module service/config/config_service
 * @description 进程级配置，从环境变量读取监听端口、数据库、Redis、Kafka、MQTT 等设置
 * @architecture 分层架构 - 业务服务层
 * @documentReference ai_docs/data_cleansing_pipeline.md
 * @stateFlow 环境变量 -> 默认值 -> Settings
 * @rules 未设置的外部组件视为禁用，由调用方决定降级方式
 * @dependencies github.com/spf13/cast
 * @refs service/init.go, main.go
 */

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cast"
)

// Settings 进程配置
type Settings struct {
	ListenPort  string
	BaseContext string
	LogLevel    string

	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string
	DBSchema    string
	SQLitePath  string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string
	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string

	// 服务模式下 POST /cleaning/runs 未指定配置时使用
	DefaultConfigPath string
	RunRetentionDays  int
	RunRateLimit      int // 每分钟允许提交的运行数，0 表示不限流
	// 服务模式下请求路径必须位于该目录内
	DataRoot           string
	AllowInlineScripts bool
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// LoadSettings 从环境变量读取配置
func LoadSettings() *Settings {
	hostname, _ := os.Hostname()

	return &Settings{
		ListenPort:  getEnvWithDefault("LISTEN_PORT", "8080"),
		BaseContext: getEnvWithDefault("BASE_CONTEXT", ""),
		LogLevel:    getEnvWithDefault("LOG_LEVEL", "debug"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getEnvWithDefault("DB_PORT", "5432"),
		DBUser:      getEnvWithDefault("DB_USER", "postgres"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      getEnvWithDefault("DB_NAME", "postgres"),
		DBSSLMode:   getEnvWithDefault("DB_SSLMODE", "disable"),
		DBSchema:    getEnvWithDefault("DB_SCHEMA", "public"),
		SQLitePath:  getEnvWithDefault("CLEANSER_SQLITE_PATH", "data/cleanser.db"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvWithDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       cast.ToInt(getEnvWithDefault("REDIS_DB", "0")),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   getEnvWithDefault("KAFKA_TOPIC", "datahub.cleaning.runs"),
		MQTTBroker:   os.Getenv("MQTT_BROKER"),
		MQTTTopic:    getEnvWithDefault("MQTT_TOPIC", "datahub/cleaning/runs"),
		MQTTClientID: getEnvWithDefault("MQTT_CLIENT_ID", fmt.Sprintf("datahub-cleanser-%s-%d", hostname, os.Getpid())),

		DefaultConfigPath: os.Getenv("CLEANSER_CONFIG"),
		RunRetentionDays:  cast.ToInt(getEnvWithDefault("RUN_RETENTION_DAYS", "30")),
		RunRateLimit:      cast.ToInt(getEnvWithDefault("RUN_RATE_LIMIT", "0")),

		DataRoot:           getEnvWithDefault("CLEANSER_DATA_ROOT", "data"),
		AllowInlineScripts: cast.ToBool(getEnvWithDefault("CLEANSER_ALLOW_INLINE_SCRIPTS", "false")),
	}
}

// UsePostgres 是否配置了 PostgreSQL
func (s *Settings) UsePostgres() bool {
	return s.DatabaseURL != "" || s.DBHost != ""
}

// PostgresDSN 构造 PostgreSQL 连接串，DATABASE_URL 优先
func (s *Settings) PostgresDSN() string {
	if s.DatabaseURL != "" {
		return s.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=Asia/Shanghai",
		s.DBHost, s.DBPort, s.DBUser, s.DBPassword, s.DBName, s.DBSSLMode, s.DBSchema)
}

// UseRedis 是否配置了 Redis
func (s *Settings) UseRedis() bool {
	return s.RedisHost != ""
}

// RedisAddr Redis 地址
func (s *Settings) RedisAddr() string {
	return fmt.Sprintf("%s:%s", s.RedisHost, s.RedisPort)
}

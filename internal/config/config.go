package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 监控服务配置
type Config struct {
	Database struct {
		Host     string
		Port     int
		User     string
		Password string
		Database string
		SSLMode  string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	MQTT struct {
		Broker   string
		ClientID string
		Username string
		Password string
		// 遥测数据上报主题，按 IMEI 通配订阅
		Topic string
	}

	// 监控批处理流配置（五条流对应五组监控事件）
	Monitor struct {
		EnvironmentStream string // 事件1、2、3
		InfluenzaStream   string // 事件4
		AbsenceStream     string // 事件5
		DisconnectStream  string // 事件6
		IntruderStream    string // 事件7
		Group             string
		Consumer          string
		BatchCount        int           // 每次读取的消息数
		BlockTimeout      time.Duration // 读取阻塞时长
	}

	Notification struct {
		PushStream   string // 推送消息流，由推送网关消费
		SMTPHost     string
		SMTPPort     int
		SMTPUsername string
		SMTPPassword string
		EmailFrom    string
	}

	Ingest struct {
		FlushInterval time.Duration // 遥测缓冲落库间隔
		BufferSize    int           // 缓冲上限，达到后立即落库
	}

	Scheduler struct {
		OfflineScanInterval time.Duration // 离线扫描间隔
		OfflineThreshold    time.Duration // 超过该时长未上报视为离线
		AbsenceScanInterval time.Duration // 不在宅恢复扫描间隔
		PruneInterval       time.Duration // 统计数据清理间隔
		RetentionDays       int           // 统计数据保留天数
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置。优先读取 .env 文件，环境变量覆盖文件值。
func Load() (*Config, error) {
	// .env 不存在时忽略，生产环境直接用环境变量
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "gateway_monitor")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "gateway-monitor")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.Topic = getEnv("MQTT_TOPIC", "gateway/+/telemetry")

	cfg.Monitor.EnvironmentStream = getEnv("MONITOR_ENVIRONMENT_STREAM", "monitor:environment")
	cfg.Monitor.InfluenzaStream = getEnv("MONITOR_INFLUENZA_STREAM", "monitor:influenza")
	cfg.Monitor.AbsenceStream = getEnv("MONITOR_ABSENCE_STREAM", "monitor:absence")
	cfg.Monitor.DisconnectStream = getEnv("MONITOR_DISCONNECT_STREAM", "monitor:disconnect")
	cfg.Monitor.IntruderStream = getEnv("MONITOR_INTRUDER_STREAM", "monitor:intruder")
	cfg.Monitor.Group = getEnv("MONITOR_GROUP", "gateway-monitor")
	cfg.Monitor.Consumer = getEnv("MONITOR_CONSUMER", hostname())
	cfg.Monitor.BatchCount = getEnvInt("MONITOR_BATCH_COUNT", 10)
	cfg.Monitor.BlockTimeout = getEnvDuration("MONITOR_BLOCK_TIMEOUT", 5*time.Second)

	cfg.Notification.PushStream = getEnv("NOTIFICATION_PUSH_STREAM", "notification:push")
	cfg.Notification.SMTPHost = getEnv("SMTP_HOST", "localhost")
	cfg.Notification.SMTPPort = getEnvInt("SMTP_PORT", 587)
	cfg.Notification.SMTPUsername = getEnv("SMTP_USERNAME", "")
	cfg.Notification.SMTPPassword = getEnv("SMTP_PASSWORD", "")
	cfg.Notification.EmailFrom = getEnv("EMAIL_FROM", "no-reply@example.com")

	cfg.Ingest.FlushInterval = getEnvDuration("INGEST_FLUSH_INTERVAL", time.Minute)
	cfg.Ingest.BufferSize = getEnvInt("INGEST_BUFFER_SIZE", 500)

	cfg.Scheduler.OfflineScanInterval = getEnvDuration("OFFLINE_SCAN_INTERVAL", 10*time.Minute)
	cfg.Scheduler.OfflineThreshold = getEnvDuration("OFFLINE_THRESHOLD", 10*time.Minute)
	cfg.Scheduler.AbsenceScanInterval = getEnvDuration("ABSENCE_SCAN_INTERVAL", time.Hour)
	cfg.Scheduler.PruneInterval = getEnvDuration("PRUNE_INTERVAL", 24*time.Hour)
	cfg.Scheduler.RetentionDays = getEnvInt("STATISTIC_RETENTION_DAYS", 7)

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

// MonitorStreams 五条监控流，按固定顺序返回
func (c *Config) MonitorStreams() []string {
	return []string{
		c.Monitor.EnvironmentStream,
		c.Monitor.InfluenzaStream,
		c.Monitor.AbsenceStream,
		c.Monitor.DisconnectStream,
		c.Monitor.IntruderStream,
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

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	return "gateway-monitor-1"
}

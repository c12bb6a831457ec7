package config

import (
	"time"

	"github.com/spf13/viper"
	pkgconfig "github.com/weiawesome/wes-support-chat/pkg/config"
	"github.com/weiawesome/wes-support-chat/pkg/database"
	pkglog "github.com/weiawesome/wes-support-chat/pkg/log"
	"github.com/weiawesome/wes-support-chat/pkg/pubsub"
)

type Config struct {
	Server     ServerConfig
	GRPC       GRPCConfig
	WebSocket  WebSocketConfig
	Session    SessionConfig
	Room       RoomConfig
	Classifier ClassifierConfig
	Redis      RedisConfig
	Events     pubsub.Config
	Database   database.Config
	Admin      AdminConfig
	Log        pkglog.Config
}

type ServerConfig struct {
	Host string
	Port int
}

type GRPCConfig struct {
	Host             string
	Port             int
	AdvertiseAddress string `mapstructure:"advertise_address"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `mapstructure:"ping_interval"`
	PongWait       time.Duration `mapstructure:"pong_wait"`
	WriteWait      time.Duration `mapstructure:"write_wait"`
	MaxMessageSize int64         `mapstructure:"max_message_size"`
	SendBuffer     int           `mapstructure:"send_buffer"`
}

// SessionConfig controls idle eviction.
type SessionConfig struct {
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	ReapInterval time.Duration `mapstructure:"reap_interval"`
}

type RoomConfig struct {
	HistoryCapacity int    `mapstructure:"history_capacity"`
	CrisisRoom      string `mapstructure:"crisis_room"`
	FallbackRoom    string `mapstructure:"fallback_room"`
}

type ClassifierConfig struct {
	Timeout time.Duration
}

// RedisConfig configures the room directory. Disabled means single-instance mode.
type RedisConfig struct {
	Enabled           bool
	Address           string
	Password          string
	DB                int
	RegistryPrefix    string        `mapstructure:"registry_prefix"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	KeyTTL            time.Duration `mapstructure:"key_ttl"`
}

// AdminConfig secures the operator endpoints.
type AdminConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	setDefaults(v)
	bindEnv(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.WebSocket.PingInterval = parseDuration(v, "websocket.ping_interval", 20*time.Second)
	cfg.WebSocket.PongWait = parseDuration(v, "websocket.pong_wait", 30*time.Second)
	cfg.WebSocket.WriteWait = parseDuration(v, "websocket.write_wait", 10*time.Second)
	cfg.Session.IdleTimeout = parseDuration(v, "session.idle_timeout", 30*time.Minute)
	cfg.Session.ReapInterval = parseDuration(v, "session.reap_interval", 5*time.Minute)
	cfg.Classifier.Timeout = parsePositiveDuration(v, "classifier.timeout", 3*time.Second)
	cfg.Redis.HeartbeatInterval = parseDuration(v, "redis.heartbeat_interval", 10*time.Second)
	cfg.Redis.KeyTTL = parseDuration(v, "redis.key_ttl", 30*time.Second)
	cfg.Events.Redis.ReadTimeout = parseDuration(v, "events.redis.read_timeout", 3*time.Second)
	cfg.Events.Redis.WriteTimeout = parseDuration(v, "events.redis.write_timeout", 3*time.Second)
	cfg.Admin.TokenTTL = parseDuration(v, "admin.token_ttl", 12*time.Hour)

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50061)
	v.SetDefault("grpc.advertise_address", "localhost:50061")

	v.SetDefault("websocket.ping_interval", "20s")
	v.SetDefault("websocket.pong_wait", "30s")
	v.SetDefault("websocket.write_wait", "10s")
	v.SetDefault("websocket.max_message_size", 8192)
	v.SetDefault("websocket.send_buffer", 256)

	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.reap_interval", "5m")

	v.SetDefault("room.history_capacity", 100)
	v.SetDefault("room.crisis_room", "crisis-intervention")
	v.SetDefault("room.fallback_room", "general-support")

	v.SetDefault("classifier.timeout", "3s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.registry_prefix", "support:registry")
	v.SetDefault("redis.heartbeat_interval", "10s")
	v.SetDefault("redis.key_ttl", "30s")

	v.SetDefault("events.driver", "none")
	v.SetDefault("events.redis.address", "localhost:6379")
	v.SetDefault("events.redis.pool_size", 10)
	v.SetDefault("events.kafka.brokers", "localhost:9092")
	v.SetDefault("events.kafka.partitions", 4)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.file_path", "./data/escalations.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")

	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.issuer", "support-chat")
	v.SetDefault("admin.token_ttl", "12h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
	v.SetDefault("log.service_name", "support-chat")
}

func bindEnv(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("grpc.port", "GRPC_PORT")
	v.BindEnv("grpc.advertise_address", "GRPC_ADVERTISE_ADDRESS")
	v.BindEnv("session.idle_timeout", "SESSION_IDLE_TIMEOUT")
	v.BindEnv("classifier.timeout", "CLASSIFIER_TIMEOUT")
	v.BindEnv("redis.enabled", "REDIS_ENABLED")
	v.BindEnv("redis.address", "REDIS_ADDRESS")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("events.driver", "EVENTS_DRIVER")
	v.BindEnv("events.kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("database.driver", "DB_DRIVER")
	v.BindEnv("database.file_path", "DB_FILE_PATH")
	v.BindEnv("database.host", "DB_HOST")
	v.BindEnv("database.password", "DB_PASSWORD")
	v.BindEnv("admin.jwt_secret", "ADMIN_JWT_SECRET")
	v.BindEnv("log.level", "LOG_LEVEL")
}

func parseDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	str := v.GetString(key)
	d, err := time.ParseDuration(str)
	if err != nil {
		return defaultVal
	}
	return d
}

// parsePositiveDuration is parseDuration for settings where zero or a
// negative value would make the setting unusable.
func parsePositiveDuration(v *viper.Viper, key string, defaultVal time.Duration) time.Duration {
	if d := parseDuration(v, key, defaultVal); d > 0 {
		return d
	}
	return defaultVal
}

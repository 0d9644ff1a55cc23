package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-ini/ini"
	"github.com/joho/godotenv"
)

const defaultConfigFile = "conf.ini"

// Server modes. Cluster mode mirrors presence into redis so several
// instances and the REST layer share one online-user set.
const (
	ModeSingle  = "single"
	ModeCluster = "cluster"
)

// Storage backends for relayed file payloads.
const (
	StorageDisk = "disk"
	StorageGCS  = "gcs"
)

// ServerConfig is the [server] section.
type ServerConfig struct {
	Listen    string `ini:"listen"`
	Origin    string `ini:"origin"`
	JwtSecret string `ini:"jwt_secret"`
	Mode      string `ini:"mode"`
	Env       string `ini:"env"`
}

// MysqlConfig is the [mysql] section.
type MysqlConfig struct {
	IP       string `ini:"ip"`
	Port     int    `ini:"port"`
	User     string `ini:"user"`
	Password string `ini:"password"`
	DbName   string `ini:"db_name"`
}

// RedisConfig is the [redis] section.
type RedisConfig struct {
	Addr     string `ini:"addr"`
	Password string `ini:"password"`
	Db       int    `ini:"db"`
}

// StorageConfig is the [storage] section.
type StorageConfig struct {
	Backend     string `ini:"backend"`
	Dir         string `ini:"dir"`
	BaseURL     string `ini:"base_url"`
	Bucket      string `ini:"bucket"`
	Credentials string `ini:"credentials"`
}

// PeerConfig is the [peer] section. Values are in seconds and bytes; zero
// means the peer package default.
type PeerConfig struct {
	MaxMessageSize int `ini:"max_message_size"`
	WriteWait      int `ini:"write_wait"`
	PongWait       int `ini:"pong_wait"`
	PingPeriod     int `ini:"ping_period"`
	SendQueueLen   int `ini:"send_queue_len"`
}

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig
	Mysql   MysqlConfig
	Redis   RedisConfig
	Storage StorageConfig
	Peer    PeerConfig
}

// LoadConfig reads path (conf.ini when empty), then applies environment
// overrides. A missing file is not an error; env plus defaults is a valid
// development setup.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	if path == "" {
		path = defaultConfigFile
	}

	config := &Config{
		Server: ServerConfig{
			Listen: ":8080",
			Origin: "*",
			Mode:   ModeSingle,
			Env:    "development",
		},
		Mysql: MysqlConfig{
			IP:     "127.0.0.1",
			Port:   3306,
			User:   "root",
			DbName: "oneverse",
		},
		Redis: RedisConfig{Addr: "127.0.0.1:6379"},
		Storage: StorageConfig{
			Backend: StorageDisk,
			Dir:     "./data/uploads",
			BaseURL: "/files",
		},
	}

	cfg, err := ini.LooseLoad(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := cfg.Section("server").MapTo(&config.Server); err != nil {
		return nil, err
	}
	if err := cfg.Section("mysql").MapTo(&config.Mysql); err != nil {
		return nil, err
	}
	if err := cfg.Section("redis").MapTo(&config.Redis); err != nil {
		return nil, err
	}
	if err := cfg.Section("storage").MapTo(&config.Storage); err != nil {
		return nil, err
	}
	if err := cfg.Section("peer").MapTo(&config.Peer); err != nil {
		return nil, err
	}

	applyEnv(config)

	switch config.Server.Mode {
	case ModeSingle, ModeCluster:
	default:
		return nil, fmt.Errorf("unknown server mode %q", config.Server.Mode)
	}
	switch config.Storage.Backend {
	case StorageDisk, StorageGCS:
	default:
		return nil, fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}
	return config, nil
}

// applyEnv lets deployment secrets override file values.
func applyEnv(config *Config) {
	config.Server.Listen = getEnv("LISTEN_ADDR", config.Server.Listen)
	config.Server.JwtSecret = getEnv("JWT_SECRET", config.Server.JwtSecret)
	config.Server.Env = getEnv("ENV", config.Server.Env)
	config.Mysql.Password = getEnv("MYSQL_PASSWORD", config.Mysql.Password)
	config.Redis.Addr = getEnv("REDIS_ADDR", config.Redis.Addr)
	config.Redis.Password = getEnv("REDIS_PASSWORD", config.Redis.Password)
	config.Storage.Bucket = getEnv("GCS_BUCKET", config.Storage.Bucket)
	config.Storage.Credentials = getEnv("GOOGLE_APPLICATION_CREDENTIALS", config.Storage.Credentials)
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			config.Redis.Db = db
		}
	}
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

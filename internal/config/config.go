package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort     string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort   string    `yaml:"socket-port" env:"SOCKET_PORT" env-default:"8080"`
	RoomIDLength int       `yaml:"room-id-length" env:"ROOM_ID_LENGTH" env-default:"8"`
	CORS         CORS      `yaml:"cors"`
	Websocket    Websocket `yaml:"websocket"`
	Redis        Redis     `yaml:"redis"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed-origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

type Websocket struct {
	WriteTimeout time.Duration `yaml:"write-timeout" env:"WS_WRITE_TIMEOUT" env-default:"10s"`
	PingInterval time.Duration `yaml:"ping-interval" env:"WS_PING_INTERVAL" env-default:"20s"`
	SendBuffer   int           `yaml:"send-buffer" env:"WS_SEND_BUFFER" env-default:"64"`
}

type Redis struct {
	Enabled      bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host         string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port         string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	ResultsLimit int    `yaml:"results-limit" env:"REDIS_RESULTS_LIMIT" env-default:"100"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

// Load reads path and applies env overrides and defaults.
func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if config.RoomIDLength <= 0 {
		return nil, fmt.Errorf("room-id-length must be positive, got %d", config.RoomIDLength)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

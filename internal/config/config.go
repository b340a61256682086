package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel          string        `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort          string        `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis             Redis         `yaml:"redis"`
	SQLiteStoragePath string        `yaml:"sqlite-storage-path" env:"SQLITE_STORAGE_PATH" env-default:"xiangqi.db"`
	JWT               JWT           `yaml:"jwt"`
	LockTimeout       time.Duration `yaml:"lock-timeout" env:"LOCK_TIMEOUT" env-default:"5s"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type JWT struct {
	SecretKey string        `yaml:"secret-key" env:"JWT_SECRET_KEY" env-required:"true"`
	TTL       time.Duration `yaml:"ttl" env:"JWT_TTL" env-default:"24h"`
}

// MustLoad - load all configurations in config.yml file, environment variables take precedence.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if config.LockTimeout <= 0 {
		panic(fmt.Errorf("lock-timeout must be positive, got %s", config.LockTimeout))
	}

	if config.JWT.TTL <= 0 {
		panic(fmt.Errorf("jwt ttl must be positive, got %s", config.JWT.TTL))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

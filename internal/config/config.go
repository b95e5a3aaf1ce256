package config

import (
	"os"
	"time"

	"github.com/go-yaml/yaml"
	"github.com/pkg/errors"
)

// Duration parses "10s" / "720h" style YAML values.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw string
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	Server Server `yaml:"server"`
	Auth   Auth   `yaml:"auth"`
}

type Server struct {
	Listen        string `yaml:"listen"`
	PostgresDsn   string `yaml:"postgresDsn"`
	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	RedisDB       int    `yaml:"redisDB"`
	MemcachedAddr string `yaml:"memcachedAddr"`
	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

type Auth struct {
	Secret          string   `yaml:"secret"`
	SessionTTL      Duration `yaml:"sessionTTL"`
	FreshnessWindow Duration `yaml:"freshnessWindow"`
	TrustedProxies  []string `yaml:"trustedProxies"`
	EnableEmailHint bool     `yaml:"enableEmailHint"`
	SecureCookies   bool     `yaml:"secureCookies"`
}

func Load(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Auth.Secret == "" {
		return Config{}, errors.New("auth.secret is required")
	}

	if config.Server.Listen == "" {
		config.Server.Listen = ":8080"
	}
	if config.Auth.SessionTTL == 0 {
		config.Auth.SessionTTL = Duration(30 * 24 * time.Hour)
	}
	if config.Auth.FreshnessWindow == 0 {
		config.Auth.FreshnessWindow = Duration(10 * time.Second)
	}

	return config, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML configuration shared by the server and the cashier
// CLI. Every field has a working default so an empty file is valid.
type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	MySQLDSN  string `yaml:"mysql_dsn"`
	RedisAddr string `yaml:"redis_addr"`

	API APIConfig `yaml:"api"`
}

// APIConfig configures the client side: where the POS API lives and how
// long a single remote write may take.
type APIConfig struct {
	BaseURL      string   `yaml:"base_url"`
	Token        string   `yaml:"token"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// Duration wraps time.Duration so YAML can carry "3s" style strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func Default() Config {
	return Config{
		HTTPAddr:  ":8080",
		MySQLDSN:  "root:root@tcp(localhost:3306)/pospoint?parseTime=true",
		RedisAddr: "localhost:6379",
		API: APIConfig{
			BaseURL:      "http://localhost:8080",
			WriteTimeout: Duration(10 * time.Second),
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies env
// overrides. A missing file is fine; defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("POSPOINT_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("POSPOINT_MYSQL_DSN"); v != "" {
		cfg.MySQLDSN = v
	}
	if v := os.Getenv("POSPOINT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("POSPOINT_API_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("POSPOINT_API_TOKEN"); v != "" {
		cfg.API.Token = v
	}
}

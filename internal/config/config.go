package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug   bool    `yaml:"debug" env:"DEBUG"`
	Limiter Limiter `yaml:"limiter"`
	Server  Server  `yaml:"server"`
	API     API     `yaml:"api"`
	Session Session `yaml:"session"`
	Editor  Editor  `yaml:"editor"`
	Tasks   Tasks   `yaml:"tasks"`
}

type Limiter struct {
	Enabled bool    `yaml:"enabled"`
	Rps     float64 `yaml:"rps" env-default:"20"`
	Burst   int     `yaml:"burst" env-default:"5"`
}

type Server struct {
	Port string `yaml:"port" env:"PORT" env-default:"8000"`
	Host string `yaml:"host" env-default:"localhost"`

	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

// API describes the remote movies service.
type API struct {
	BaseURL      string        `yaml:"base_url" env:"MOVIES_API_URL" env-required:"true"`
	UploadsURL   string        `yaml:"uploads_url" env:"MOVIES_UPLOADS_URL"`
	Timeout      time.Duration `yaml:"timeout" env-default:"15s"`
	RetriesCount int           `yaml:"retries_count" env-default:"2"`
	ListCacheTTL time.Duration `yaml:"list_cache_ttl" env-default:"30s"`
}

// UploadsBase falls back to <base_url>/uploads.
func (a API) UploadsBase() string {
	if a.UploadsURL != "" {
		return a.UploadsURL
	}
	return a.BaseURL + "/uploads"
}

type Session struct {
	Store    string `yaml:"store" env:"SESSION_STORE" env-default:"file"`
	FilePath string `yaml:"file_path" env-default:".moviecatalog/credentials.yml"`
	Redis    Redis  `yaml:"redis"`
}

type Redis struct {
	Addr      string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password  string `yaml:"password" env:"REDIS_PASSWORD"`
	DB        int    `yaml:"db" env-default:"0"`
	KeyPrefix string `yaml:"key_prefix" env-default:"moviecatalog:"`
}

type Editor struct {
	PreviewDir      string        `yaml:"preview_dir"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes" env-default:"10485760"`
	NavigationDelay time.Duration `yaml:"navigation_delay" env-default:"2s"`
	IdleTTL         time.Duration `yaml:"idle_ttl" env-default:"30m"`
}

type Tasks struct {
	Workers   int `yaml:"workers" env-default:"2"`
	QueueSize int `yaml:"queue_size" env-default:"16"`
}

func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads an optional .env file into the environment, then the YAML config.
// Environment variables override values from the file.
func Load(configPath string) (*Config, error) {
	var cfg Config
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

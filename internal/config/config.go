package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env         string `yaml:"env" env:"ENV" env-default:"local"`
	AppURL      string `yaml:"app_url" env:"APP_URL" env-default:"http://localhost:8080"`
	FrontendDir string `yaml:"frontend_dir" env:"FRONTEND_DIR" env-default:"./frontend/dist"`
	HTTPServer  `yaml:"http_server"`
	Session     `yaml:"session"`
	Postgres    `yaml:"postgres"`
	RabbitMQ    `yaml:"rabbitmq"`
	Redis       `yaml:"redis"`
	AI          `yaml:"ai"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Session struct {
	Secret string        `yaml:"secret" env:"JWT_SECRET" env-required:"true"`
	TTL    time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"168h"`
}

type Postgres struct {
	URL      string `yaml:"url" env:"DATABASE_URL" env-required:"true"`
	MaxConns int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS" env-default:"10"`
	MinConns int32  `yaml:"min_conns" env:"DATABASE_MIN_CONNS" env-default:"2"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"emails"`
}

// Redis is optional; rate limit counters stay in memory when Addr is empty.
type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type AI struct {
	BaseURL string        `yaml:"base_url" env:"AI_BASE_URL" env-default:"http://localhost:8000"`
	Timeout time.Duration `yaml:"timeout" env:"AI_TIMEOUT" env-default:"60s"`
}

// MailerConfig configures the mail_sender worker.
type MailerConfig struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	SMTP     `yaml:"smtp"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST" env-required:"true"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME" env-required:"true"`
	Password string `yaml:"password" env:"SMTP_PASSWORD" env-required:"true"`
	From     string `yaml:"from" env:"SMTP_FROM"`
}

func MustLoad() *Config {
	var cfg Config

	mustRead(fetchConfigPath(), &cfg)

	return &cfg
}

func MustLoadMailer() *MailerConfig {
	var cfg MailerConfig

	mustRead(fetchConfigPath(), &cfg)

	return &cfg
}

// Load reads the file at path, or only the environment when path is empty.
func Load(path string, cfg any) error {
	if path == "" {
		return cleanenv.ReadEnv(cfg)
	}

	return cleanenv.ReadConfig(path, cfg)
}

func mustRead(configPath string, cfg any) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			panic("Config file does not exist: " + configPath)
		}
	}

	if err := Load(configPath, cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}
}

// fetchConfigPath prefers the -config flag over CONFIG_PATH.
func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	return res
}

package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	configFileEnv     = "CONFIG_FILE"
	defaultConfigFile = "data/config.yaml"

	databaseURLEnv = "DATABASE_URL"
	jwtSecretEnv   = "JWT_SECRET"
	httpAddrEnv    = "HTTP_ADDR"
)

type config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Cache    CacheConfig    `yaml:"cache"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Jaeger   JaegerConfig   `yaml:"jaeger"`
}

type Service struct {
	config config
}

// New reads the YAML config file and applies environment overrides.
// A missing file is not an error: defaults plus environment are enough to
// run against SQLite.
func New() (*Service, error) {
	// .env is optional
	_ = godotenv.Load()

	s := &Service{config: defaults()}

	path := os.Getenv(configFileEnv)
	if path == "" {
		path = defaultConfigFile
	}

	rawYAML, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(rawYAML, &s.config); err != nil {
			return nil, errors.Wrap(err, "parsing yaml")
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrap(err, "reading config file")
	}

	s.applyEnv()
	if err = s.validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return s, nil
}

// Parse builds a Service from raw YAML without touching the environment.
func Parse(rawYAML []byte) (*Service, error) {
	s := &Service{config: defaults()}
	if err := yaml.Unmarshal(rawYAML, &s.config); err != nil {
		return nil, errors.Wrap(err, "parsing yaml")
	}
	if err := s.validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return s, nil
}

func defaults() config {
	return config{
		App: AppConfig{
			DefaultPage: 10,
			TimeZone:    "UTC",
		},
		HTTP: HTTPConfig{
			ListenAddr:        ":8080",
			MetricsListenAddr: ":9090",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
		},
		Database: DatabaseConfig{
			DriverName: DriverSQLite,
			URL:        "data/billtracker.db",
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Cache: CacheConfig{
			Kind:       CacheNone,
			Expiration: 10 * time.Minute,
		},
	}
}

func (s *Service) applyEnv() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		s.config.Database.URL = v
	}
	if v := os.Getenv(jwtSecretEnv); v != "" {
		s.config.Auth.Secret = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		s.config.HTTP.ListenAddr = v
	}
}

func (s *Service) validate() error {
	if err := s.config.Database.validate(); err != nil {
		return err
	}
	if err := s.config.Cache.validate(); err != nil {
		return err
	}
	if s.config.Auth.Secret == "" {
		return errors.New("auth secret is not set")
	}
	return nil
}

func (s *Service) App() *AppConfig {
	return &s.config.App
}

func (s *Service) HTTP() *HTTPConfig {
	return &s.config.HTTP
}

func (s *Service) Database() *DatabaseConfig {
	return &s.config.Database
}

func (s *Service) Auth() *AuthConfig {
	return &s.config.Auth
}

func (s *Service) Cache() *CacheConfig {
	return &s.config.Cache
}

func (s *Service) Kafka() *KafkaConfig {
	return &s.config.Kafka
}

func (s *Service) Jaeger() *JaegerConfig {
	return &s.config.Jaeger
}

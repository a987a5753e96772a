package config

import "fmt"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	DriverName string `yaml:"driver"`
	URL        string `yaml:"url"`
}

func (s *DatabaseConfig) Driver() string {
	return s.DriverName
}

func (s *DatabaseConfig) DSN() string {
	return s.URL
}

func (s *DatabaseConfig) validate() error {
	switch s.DriverName {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown database driver %q", s.DriverName)
	}
	if s.URL == "" {
		return fmt.Errorf("database url is not set")
	}
	return nil
}

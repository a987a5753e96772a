package config

import "time"

type HTTPConfig struct {
	ListenAddr        string        `yaml:"listen"`
	MetricsListenAddr string        `yaml:"metrics-listen"`
	ReadTimeout       time.Duration `yaml:"read-timeout"`
	WriteTimeout      time.Duration `yaml:"write-timeout"`
}

func (s *HTTPConfig) Addr() string {
	return s.ListenAddr
}

func (s *HTTPConfig) MetricsAddr() string {
	return s.MetricsListenAddr
}

func (s *HTTPConfig) Timeouts() (read, write time.Duration) {
	return s.ReadTimeout, s.WriteTimeout
}

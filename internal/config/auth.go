package config

import "time"

type AuthConfig struct {
	Secret   string        `yaml:"jwt-secret"`
	TokenTTL time.Duration `yaml:"token-ttl"`
}

func (s *AuthConfig) SecretKey() string {
	return s.Secret
}

func (s *AuthConfig) TokenDuration() time.Duration {
	return s.TokenTTL
}

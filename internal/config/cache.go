package config

import (
	"fmt"
	"time"
)

const (
	CacheNone      = "none"
	CacheMemcached = "memcached"
	CacheRedis     = "redis"
)

type CacheConfig struct {
	Kind       string        `yaml:"kind"`
	NodeHosts  []string      `yaml:"hosts"`
	Expiration time.Duration `yaml:"expiration"`
}

func (s *CacheConfig) Backend() string {
	return s.Kind
}

func (s *CacheConfig) Hosts() []string {
	return s.NodeHosts
}

func (s *CacheConfig) TTL() time.Duration {
	return s.Expiration
}

func (s *CacheConfig) validate() error {
	switch s.Kind {
	case "", CacheNone:
		return nil
	case CacheMemcached, CacheRedis:
		if len(s.NodeHosts) == 0 {
			return fmt.Errorf("cache %s requires at least one host", s.Kind)
		}
		return nil
	}
	return fmt.Errorf("unknown cache kind %q", s.Kind)
}

package config

type JaegerConfig struct {
	Service   string `yaml:"service-name"`
	AgentHost string `yaml:"agent-host-port"`
}

func (s *JaegerConfig) ServiceName() string {
	if s.Service == "" {
		return "billtracker"
	}
	return s.Service
}

func (s *JaegerConfig) AgentHostPort() string {
	return s.AgentHost
}

func (s *JaegerConfig) Enabled() bool {
	return s.AgentHost != ""
}

package config

type AppConfig struct {
	DefaultPage int    `yaml:"default-page-size"`
	TimeZone    string `yaml:"time-zone"`
}

func (s *AppConfig) DefaultPageSize() int {
	return s.DefaultPage
}

// Location is used to resolve period filters such as "month".
func (s *AppConfig) Location() string {
	return s.TimeZone
}

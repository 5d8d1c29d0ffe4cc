// internal/workers/decision/generate-loan-guidance/config.go
package generateloanguidance

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

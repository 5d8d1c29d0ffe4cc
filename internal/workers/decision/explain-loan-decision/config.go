// internal/workers/decision/explain-loan-decision/config.go
package explainloandecision

import "time"

type Config struct {
	Timeout      time.Duration
	CacheTTL     time.Duration // 0 disables the decision cache
	ModelVersion string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		CacheTTL:     15 * time.Minute,
		ModelVersion: "v1",
	}
}

package config

import (
	"fmt"
	"net/url"
	"time"

	"speed-monitor/internal/ping"
)

// Config holds all configuration for the speed monitor
type Config struct {
	Interval        time.Duration `mapstructure:"interval"`
	LatencyTarget   string        `mapstructure:"latency-target"`
	LatencyTimeout  time.Duration `mapstructure:"latency-timeout"`
	PingMethod      string        `mapstructure:"ping-method"`
	Privileged      bool          `mapstructure:"privileged"`
	DownloadURL     string        `mapstructure:"download-url"`
	DownloadTimeout time.Duration `mapstructure:"download-timeout"`
	OutputPath      string        `mapstructure:"output"`
	DatabasePath    string        `mapstructure:"db"`
	InfluxURL       string        `mapstructure:"influx-url"`
	InfluxToken     string        `mapstructure:"influx-token"`
	InfluxOrg       string        `mapstructure:"influx-org"`
	InfluxBucket    string        `mapstructure:"influx-bucket"`
	LogLevel        string        `mapstructure:"log-level"`
	LogFile         string        `mapstructure:"log-file"`
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	if c.LatencyTarget == "" {
		return fmt.Errorf("latency target cannot be empty")
	}
	if c.LatencyTimeout <= 0 {
		return fmt.Errorf("latency timeout must be positive")
	}
	if c.PingMethod != ping.MethodICMP && c.PingMethod != ping.MethodExec {
		return fmt.Errorf("ping method must be %q or %q", ping.MethodICMP, ping.MethodExec)
	}
	if c.DownloadTimeout <= 0 {
		return fmt.Errorf("download timeout must be positive")
	}
	u, err := url.Parse(c.DownloadURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("download url must be an absolute http(s) URL")
	}
	if c.InfluxURL != "" && (c.InfluxOrg == "" || c.InfluxBucket == "") {
		return fmt.Errorf("influx org and bucket are required when influx url is set")
	}
	return nil
}

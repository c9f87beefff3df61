package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"speed-monitor/internal/ping"
)

// Defaults used when neither a flag, env var nor config file sets a value
const (
	DefaultInterval        = 15 * time.Minute
	DefaultLatencyTarget   = "1.1.1.1"
	DefaultLatencyTimeout  = 5 * time.Second
	DefaultDownloadURL     = "https://speed.hetzner.de/1MB.bin"
	DefaultDownloadTimeout = 30 * time.Second
)

// EnvPrefix prefixes environment overrides, e.g. SPEEDMON_INTERVAL=5m
const EnvPrefix = "SPEEDMON"

// BindFlags registers the monitor flags on fs
func BindFlags(fs *pflag.FlagSet) {
	fs.Duration("interval", DefaultInterval, "Time between measurement cycles")
	fs.String("latency-target", DefaultLatencyTarget, "Host that receives the echo request")
	fs.Duration("latency-timeout", DefaultLatencyTimeout, "Echo reply wait")
	fs.String("ping-method", ping.MethodICMP, "Latency probe method: icmp or exec")
	fs.Bool("privileged", false, "Use raw ICMP sockets (requires root or CAP_NET_RAW)")
	fs.String("download-url", DefaultDownloadURL, "Object downloaded to measure throughput")
	fs.Duration("download-timeout", DefaultDownloadTimeout, "HTTP client timeout for the download")
	fs.StringP("output", "o", "", "Result log path (default: speed_results.csv next to the binary)")
	fs.String("db", "", "Also mirror results into this SQLite database")
	fs.String("influx-url", "", "Also mirror results into InfluxDB v2 at this URL")
	fs.String("influx-token", "", "InfluxDB API token")
	fs.String("influx-org", "", "InfluxDB organization")
	fs.String("influx-bucket", "", "InfluxDB bucket")
}

// BindLogFlags registers the logging flags on fs
func BindLogFlags(fs *pflag.FlagSet) {
	fs.String("log-level", "info", "Log level: debug, info, warn, error")
	fs.String("log-file", "", "Write logs to this rotated file instead of stderr")
}

// Defaults registers default values on v so env vars resolve without flags
func Defaults(v *viper.Viper) {
	v.SetDefault("interval", DefaultInterval)
	v.SetDefault("latency-target", DefaultLatencyTarget)
	v.SetDefault("latency-timeout", DefaultLatencyTimeout)
	v.SetDefault("ping-method", ping.MethodICMP)
	v.SetDefault("privileged", false)
	v.SetDefault("download-url", DefaultDownloadURL)
	v.SetDefault("download-timeout", DefaultDownloadTimeout)
	v.SetDefault("output", "")
	v.SetDefault("db", "")
	v.SetDefault("influx-url", "")
	v.SetDefault("influx-token", "")
	v.SetDefault("influx-org", "")
	v.SetDefault("influx-bucket", "")
	v.SetDefault("log-level", "info")
	v.SetDefault("log-file", "")
}

// Load merges config file, environment and flags into a Config.
// Flags win over env vars, which win over the config file.
func Load(v *viper.Viper, configFile string) (Config, error) {
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

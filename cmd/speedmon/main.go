package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"speed-monitor/internal/config"
	"speed-monitor/internal/database"
	"speed-monitor/internal/download"
	"speed-monitor/internal/influx"
	"speed-monitor/internal/models"
	"speed-monitor/internal/monitor"
	"speed-monitor/internal/ping"
	"speed-monitor/internal/probe"
	"speed-monitor/internal/report"
	"speed-monitor/internal/resultlog"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:           "speedmon",
		Short:         "Periodically measure download speed and latency into a CSV log",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, v)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (yaml, toml or json)")
	config.BindLogFlags(rootCmd.PersistentFlags())
	config.BindFlags(rootCmd.Flags())

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Measure now and then on every interval until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(cmd, v)
		},
	}
	config.BindFlags(runCmd.Flags())

	var showPrevious bool
	onceCmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single measurement cycle and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, v, showPrevious)
		},
	}
	config.BindFlags(onceCmd.Flags())
	onceCmd.Flags().BoolVar(&showPrevious, "show-previous", false, "Print the last logged record before measuring")

	rootCmd.AddCommand(runCmd, onceCmd)
	return rootCmd
}

func loadConfig(cmd *cobra.Command, v *viper.Viper) (config.Config, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config.Config{}, err
	}
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return config.Config{}, err
	}

	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return cfg, err
	}
	config.SetupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	// resolved once for the lifetime of the process
	if cfg.OutputPath == "" {
		cfg.OutputPath, err = resultlog.DefaultPath()
		if err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// components holds everything a cycle needs plus cleanup for optional sinks
type components struct {
	monitor *monitor.Monitor
	log     *resultlog.Writer
	closers []func()
}

func (c *components) Close() {
	for _, closeFn := range c.closers {
		closeFn()
	}
}

func build(cfg config.Config) (*components, error) {
	engine := probe.New(
		ping.New(cfg.LatencyTarget, cfg.LatencyTimeout, cfg.PingMethod, cfg.Privileged),
		download.New(cfg.DownloadURL, cfg.DownloadTimeout),
	)

	c := &components{log: resultlog.New(cfg.OutputPath)}
	var mirrors []models.Sink

	if cfg.DatabasePath != "" {
		db, err := database.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := db.InitSchema(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to initialize database schema: %w", err)
		}
		c.closers = append(c.closers, func() { db.Close() })
		mirrors = append(mirrors, db)
		log.Infof("Mirroring results to SQLite database %s", cfg.DatabasePath)
	}

	if cfg.InfluxURL != "" {
		sink, err := influx.New(influx.Options{
			URL:    cfg.InfluxURL,
			Token:  cfg.InfluxToken,
			Org:    cfg.InfluxOrg,
			Bucket: cfg.InfluxBucket,
		})
		if err != nil {
			c.Close()
			return nil, err
		}
		c.closers = append(c.closers, sink.Close)
		mirrors = append(mirrors, sink)
		log.Infof("Mirroring results to InfluxDB %s (bucket %s)", cfg.InfluxURL, cfg.InfluxBucket)
	}

	c.monitor = monitor.New(engine, monitor.Tee(c.log, mirrors...), report.NewConsole(os.Stdout), cfg.Interval)
	return c, nil
}

func runMonitor(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(cmd, v)
	if err != nil {
		return err
	}

	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Network monitor starting. Press Ctrl+C to exit.")
	log.Infof("Writing results to %s", c.log.Path())

	if err := c.monitor.Run(ctx); err != nil {
		return err
	}
	fmt.Println("Shutdown requested. Exiting.")
	return nil
}

func runOnce(cmd *cobra.Command, v *viper.Viper, showPrevious bool) error {
	cfg, err := loadConfig(cmd, v)
	if err != nil {
		return err
	}

	c, err := build(cfg)
	if err != nil {
		return err
	}
	defer c.Close()

	if showPrevious {
		prev, err := c.log.Last()
		switch {
		case errors.Is(err, resultlog.ErrEmpty):
			fmt.Println("No previous results.")
		case err != nil:
			log.Warnf("Cannot read previous result: %v", err)
		default:
			fmt.Printf("Previous: %s\n", report.Summary(prev))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := c.monitor.RunOnce(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Shutdown requested. Exiting.")
			return nil
		}
		return fmt.Errorf("failed to save result: %w", err)
	}
	return nil
}

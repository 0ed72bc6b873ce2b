package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"chorecal/internal/api"
	"chorecal/internal/config"
	"chorecal/internal/engine"
	"chorecal/internal/ics"
	appLog "chorecal/internal/log"
	"chorecal/internal/model"
	"chorecal/internal/status"
)

type flagConfig struct {
	configPath string
	exportPath string
	logLevel   string
	once       bool
	dump       bool
}

func main() {
	appLog.Info("chorecal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI flags override the config file when provided.
	if flags.exportPath != "" {
		conf.Export.ICSPath = flags.exportPath
	}
	if flags.logLevel != "" {
		conf.LogLevel = flags.logLevel
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))

	loc, err := conf.Location()
	if err != nil {
		appLog.Error("failed to load timezone", err, "timezone", conf.Timezone)
		os.Exit(1)
	}
	// Due dates are calendar days in the household's zone; set it before
	// anything parses one.
	time.Local = loc

	appLog.Info("effective config",
		"api", conf.API.BaseURL,
		"timezone", loc.String(),
		"refresh", conf.RefreshCron,
		"horizon_days", conf.HorizonDays,
		"backfill_days", conf.BackfillDays,
		"cache_ttl", conf.CacheTTL(),
		"ics_path", conf.Export.ICSPath,
		"once", flags.once,
		"dump", flags.dump,
	)

	client, err := api.NewClient(api.Config{
		BaseURL: conf.API.BaseURL,
		Token:   conf.API.Token,
		Timeout: conf.Timeout(),
		Retries: conf.API.Retries,
	})
	if err != nil {
		appLog.Error("failed to build API client", err)
		os.Exit(1)
	}
	eng := engine.New(client, engine.Options{CacheTTL: conf.CacheTTL()})

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if flags.once {
		if err := runOnce(ctx, eng, conf, flags.dump); err != nil {
			appLog.Error("refresh failed", err)
			os.Exit(1)
		}
		return
	}

	if err := runOnce(ctx, eng, conf, flags.dump); err != nil {
		// Keep running; the next scheduled refresh may succeed.
		appLog.Error("initial refresh failed", err)
	}

	sched := cron.New(cron.WithLocation(loc))
	if _, err := sched.AddFunc(conf.RefreshCron, func() {
		if err := runOnce(ctx, eng, conf, false); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		appLog.Error("invalid refresh schedule", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	sched.Start()
	appLog.Info("scheduler started", "refresh", conf.RefreshCron)

	<-ctx.Done()

	// Wait for a running refresh to finish.
	<-sched.Stop().Done()
	appLog.Info("chorecal exiting")
}

// runOnce loads events for the configured window, logs a summary, writes
// the ICS export and optionally dumps events as JSON to stdout. Events come
// through the engine cache; a run inside the cache TTL reuses the last fetch.
func runOnce(ctx context.Context, eng *engine.Engine, conf *config.Config, dump bool) error {
	now := time.Now()
	events, err := eng.Events(ctx, conf.Window(now))
	if err != nil {
		return err
	}

	counts := status.Counts(events)
	due := eng.Due(now)
	appLog.Info("refresh complete",
		"events", len(events),
		"active", counts[model.StatusActive],
		"pending", counts[model.StatusPending],
		"overdue", counts[model.StatusOverdue],
		"completed", counts[model.StatusCompleted],
		"skipped", counts[model.StatusSkipped],
		"due_now", len(due),
	)

	if conf.Export.ICSPath != "" {
		if err := ics.WriteFile(conf.Export.ICSPath, events, now); err != nil {
			appLog.Error("ics export failed", err, "path", conf.Export.ICSPath)
		}
	}

	if dump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/chorecal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.exportPath, "export", "", "ICS export path (overrides config if set)")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one refresh+export cycle and exit")
	flag.BoolVar(&cfg.dump, "dump", false, "Print projected events as JSON to stdout")

	flag.Parse()

	return cfg
}

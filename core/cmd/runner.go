// Package cmd provides the reusable process runner: config load, logger
// init, scheduler startup, bot runtime and signal handling.
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	coreconfig "github.com/mevellea/telegram-menu/core/config"
	"github.com/mevellea/telegram-menu/core/logger"
	"github.com/mevellea/telegram-menu/core/navigation"
	"github.com/mevellea/telegram-menu/core/scheduler"
	coretelegram "github.com/mevellea/telegram-menu/core/telegram"
)

// Options describe how to load configuration and compose the bot.
type Options struct {
	ConfigEnvVar      string
	DefaultConfigPath string

	// RootFactory builds each session's root menu. Required.
	RootFactory navigation.RootFactory

	// Customize lets the caller adjust run options (extra routes,
	// middlewares, lifecycle hooks) before the bot starts.
	Customize func(opts *coretelegram.RunOptions)

	LoadConfig     func(path string) (*coreconfig.Config, error)
	ShutdownLogger func() error
	RunTelegram    func(ctx context.Context, opts coretelegram.RunOptions) error
}

// Run loads configuration, initializes the ambient infrastructure and starts
// the bot runtime until interrupted.
func Run(opts Options) error {
	if opts.RootFactory == nil {
		return fmt.Errorf("cmd: RootFactory is required")
	}

	env := opts.ConfigEnvVar
	if env == "" {
		env = "CONFIG_PATH"
	}
	cfgPath := os.Getenv(env)
	if cfgPath == "" {
		cfgPath = opts.DefaultConfigPath
	}
	if cfgPath == "" {
		return fmt.Errorf("cmd: config path not provided via %s or DefaultConfigPath", env)
	}

	loadConfig := opts.LoadConfig
	if loadConfig == nil {
		loadConfig = coreconfig.Load
	}

	log.Printf("loading config: %s", cfgPath)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("cmd: failed to load config: %w", err)
	}

	if err := logger.InitLogger(cfg); err != nil {
		return fmt.Errorf("cmd: logger init failed: %w", err)
	}
	shutdownLogger := opts.ShutdownLogger
	if shutdownLogger == nil {
		shutdownLogger = logger.Shutdown
	}
	defer func() {
		if err := shutdownLogger(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	sched := scheduler.New()
	defer sched.Stop()

	runOpts := coretelegram.RunOptions{
		Config:      cfg,
		RootFactory: opts.RootFactory,
		Scheduler:   sched,
	}
	if opts.Customize != nil {
		opts.Customize(&runOpts)
	}

	startedAt := time.Now()
	prevStart := runOpts.OnStart
	runOpts.OnStart = func(ctx context.Context, rt coretelegram.Runtime) error {
		if prevStart != nil {
			if err := prevStart(ctx, rt); err != nil {
				return err
			}
		}
		logger.L.With("component", "app").Info("app ready",
			slog.String("event", "ready"),
			slog.Duration("startup_duration", logger.RoundMS(time.Since(startedAt))),
		)
		return nil
	}

	prevStop := runOpts.OnStop
	runOpts.OnStop = func(ctx context.Context, rt coretelegram.Runtime) error {
		logger.L.With("component", "app").Info("shutting down...",
			slog.String("event", "shutdown"),
		)
		if prevStop != nil {
			return prevStop(ctx, rt)
		}
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run := opts.RunTelegram
	if run == nil {
		run = coretelegram.RunTelegram
	}

	return run(ctx, runOpts)
}

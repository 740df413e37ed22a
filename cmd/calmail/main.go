package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"calmail/internal/config"
	"calmail/internal/digest"
	appLog "calmail/internal/log"
	"calmail/internal/mailer"
)

type flagConfig struct {
	configPath string
	template   string
	once       bool
	dryRun     bool
	verbose    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()
	if flags.verbose {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("calmail starting", "version", "0.1.0")

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		return 1
	}
	if flags.template != "" {
		conf.Template = flags.template
	}

	if !flags.dryRun {
		if err := conf.Validate(); err != nil {
			appLog.Error("config not runnable", err)
			return 1
		}
	}

	appLog.Info("effective config",
		"timezone", conf.Timezone,
		"days_ahead", conf.DaysAhead,
		"template", conf.Template,
		"recipients", len(conf.Recipients),
		"schedule", conf.Schedule,
		"once", flags.once,
		"dry_run", flags.dryRun,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	if conf.Schedule == "" || flags.once {
		if err := runOnce(ctx, conf, flags.dryRun); err != nil {
			return 1
		}
		return 0
	}

	// Scheduled mode: run the pipeline on the configured cron expression
	// until a signal arrives. A failed run logs and waits for the next tick.
	c := cron.New()
	if _, err := c.AddFunc(conf.Schedule, func() {
		_ = runOnce(ctx, conf, flags.dryRun)
	}); err != nil {
		appLog.Error("invalid schedule", err, "schedule", conf.Schedule)
		return 1
	}
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	appLog.Info("calmail exiting")
	return 0
}

func runOnce(ctx context.Context, conf *config.Config, dryRun bool) error {
	builder := digest.NewBuilder()

	html, count, err := builder.Build(ctx, conf, time.Now())
	if err != nil {
		appLog.Error("digest build failed", err)
		return err
	}
	if count == 0 {
		return nil
	}

	if dryRun {
		fmt.Println(html)
		appLog.Info("dry run, skipping send", "events", count)
		return nil
	}

	sender := &mailer.SMTPSender{
		Host:     conf.SMTP.Host,
		Port:     conf.SMTP.Port,
		Username: conf.SMTP.Username,
		Password: conf.SMTP.Password,
		UseTLS:   conf.SMTP.UseTLS,
	}

	msg := mailer.Message{
		To:          conf.Recipients,
		Subject:     conf.Subject,
		HTML:        html,
		FromAddress: conf.FromAddress,
		FromName:    conf.FromName,
	}

	if err := sender.Send(ctx, msg); err != nil {
		appLog.Error("send failed", err)
		return err
	}
	return nil
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", defaultConfigPath(), "Path to config file")
	flag.StringVar(&cfg.template, "template", "", "Template name (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Run one build+send cycle and exit, ignoring any schedule")
	flag.BoolVar(&cfg.dryRun, "dry-run", false, "Build the digest and print it to stdout; do not send")
	flag.BoolVar(&cfg.verbose, "verbose", false, "Enable debug logging")

	flag.Parse()
	return cfg
}

func defaultConfigPath() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home + "/.config/calmail/config.yaml"
	}
	return "config.yaml"
}

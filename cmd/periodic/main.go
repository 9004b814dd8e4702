package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/romshark/periodic/config"
	"github.com/romshark/periodic/internal/logx"
	"github.com/romshark/periodic/loop"

	sd "github.com/coreos/go-systemd/v22/daemon"
	"github.com/rs/zerolog"
)

func main() {
	var cfgPath, period string
	flag.StringVar(&cfgPath, "config", "./periodic.yaml", "path to config yaml")
	flag.StringVar(&period, "period", "", "overrides the configured period")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := load(cfgPath, period)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	log := logx.New(cfg.Log.Level, cfg.Log.Console, os.Stderr)

	if err := run(ctx, cfgPath, period, cfg, log); err != nil {
		log.Error().Err(err).Msg("fatal")
		os.Exit(1)
	}
}

func load(path, period string) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if period != "" {
		cfg.Period = period
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

func run(
	ctx context.Context,
	cfgPath, period string,
	cfg config.Config,
	log zerolog.Logger,
) error {
	l := loop.NewWith(0, nil, &log)
	d, err := newDaemon(ctx, l, log, cfg)
	if err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGUSR1, syscall.SIGHUP)
	defer signal.Stop(sigs)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case s := <-sigs:
				switch s {
				case syscall.SIGUSR1:
					log.Info().Msg("fast-forwarding")
					d.FastForward()
				case syscall.SIGHUP:
					reload(d, cfgPath, period, log)
				}
			}
		}
	}()

	go func() {
		err := config.Watch(ctx, cfgPath, log, func(config.Config) {
			reload(d, cfgPath, period, log)
		})
		if err != nil {
			log.Warn().Err(err).Msg("config hot reload disabled")
		}
	}()

	notify(log, sd.SdNotifyReady)
	log.Info().Str("config", cfgPath).Msg("started")

	err = l.Run(ctx)
	notify(log, sd.SdNotifyStopping)
	d.Close()

	if errors.Is(err, context.Canceled) {
		log.Info().Msg("stopped")
		return nil
	}
	return err
}

// reload keeps the -period override across reloads.
func reload(d *daemon, path, period string, log zerolog.Logger) {
	notify(log, sd.SdNotifyReloading)
	defer notify(log, sd.SdNotifyReady)

	cfg, err := load(path, period)
	if err != nil {
		log.Warn().Err(err).Msg("reload failed, keeping previous config")
		return
	}
	d.Apply(cfg)
}

func notify(log zerolog.Logger, state string) {
	if _, err := sd.SdNotify(false, state); err != nil {
		log.Debug().Err(err).Str("state", state).Msg("systemd notification failed")
	}
}

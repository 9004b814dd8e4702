package main

import (
	"context"
	"os/exec"
	"time"

	"github.com/romshark/periodic"
	"github.com/romshark/periodic/config"
	"github.com/romshark/periodic/loop"

	"github.com/rs/zerolog"
)

// daemon runs a command periodically.
// All fields except loop and log are owned by the loop's goroutine.
type daemon struct {
	ctx   context.Context
	log   zerolog.Logger
	loop  *loop.Loop
	timer *periodic.Timer

	command []string
	timeout time.Duration
	ticks   uint64
}

func newDaemon(
	ctx context.Context,
	l *loop.Loop,
	log zerolog.Logger,
	cfg config.Config,
) (*daemon, error) {
	p, err := cfg.PeriodDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		return nil, err
	}
	d := &daemon{
		ctx:     ctx,
		log:     log,
		loop:    l,
		command: cfg.Command,
		timeout: timeout,
	}
	d.timer = periodic.New(l,
		periodic.WithPeriod(p),
		periodic.WithHandler(d.tick),
		periodic.WithLogger(log.With().Str("component", "timer").Logger()),
	)
	ff := cfg.FastForwardOnStart
	l.Post(func() {
		if ff {
			d.timer.FastForward()
			return
		}
		d.timer.Start()
	})
	return d, nil
}

// Apply makes the daemon use cfg from now on and restarts
// the countdown with the new period. Safe for concurrent use.
func (d *daemon) Apply(cfg config.Config) {
	p, err := cfg.PeriodDuration()
	if err != nil {
		d.log.Warn().Err(err).Msg("ignoring config")
		return
	}
	timeout, err := cfg.Timeout()
	if err != nil {
		d.log.Warn().Err(err).Msg("ignoring config")
		return
	}
	d.loop.Post(func() {
		d.command, d.timeout = cfg.Command, timeout
		d.timer.SetPeriod(p)
		d.timer.Start()
		d.log.Info().Dur("period", p).Msg("config applied")
	})
}

// FastForward triggers the next tick as soon as possible.
// Safe for concurrent use.
func (d *daemon) FastForward() {
	d.loop.Post(d.timer.FastForward)
}

// Close stops the timer, it must be called from the loop's goroutine
// or after the loop stopped running.
func (d *daemon) Close() {
	d.timer.Close()
}

func (d *daemon) tick() {
	d.ticks++
	log := d.log.With().Uint64("tick", d.ticks).Logger()
	log.Info().Dur("period", d.timer.Period()).Msg("tick")

	if len(d.command) == 0 {
		return
	}

	ctx := d.ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := exec.CommandContext(ctx, d.command[0], d.command[1:]...).
		CombinedOutput()
	e := log.Info()
	if err != nil {
		e = log.Error().Err(err)
	}
	e.Dur("took", time.Since(start)).
		Bytes("output", out).
		Msg("command finished")
}

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/romshark/periodic/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	for _, tt := range []struct {
		Raw    string
		Expect time.Duration
	}{
		{"30s", 30 * time.Second},
		{" 1h30m ", 90 * time.Minute},
		{"250ms", 250 * time.Millisecond},
		{"@every 1m", time.Minute},
		{"@every 90s", 90 * time.Second},
		{"@every 1500ms", 1500 * time.Millisecond},
		{"@every 100ms", 100 * time.Millisecond},
		{"@hourly", time.Hour},
		{"@daily", 24 * time.Hour},
		{"@midnight", 24 * time.Hour},
		{"@weekly", 7 * 24 * time.Hour},
	} {
		t.Run(tt.Raw, func(t *testing.T) {
			d, err := config.ParsePeriod("period", tt.Raw)
			require.NoError(t, err)
			require.Equal(t, tt.Expect, d)
		})
	}
}

func TestParsePeriodErr(t *testing.T) {
	for _, tt := range []struct {
		Raw    string
		Expect string
	}{
		{"", `period: invalid duration ""`},
		{"soon", `period: invalid duration "soon"`},
		{"0s", "period: duration must be > 0"},
		{"-1m", "period: duration must be > 0"},
		{"@every 0s", "period: duration must be > 0"},
		{"@every -5s", "period: duration must be > 0"},
		{"@every soon", `period: invalid duration "@every soon"`},
		{"@fortnightly", `period: invalid descriptor "@fortnightly"`},
		{"@monthly", `period: descriptor "@monthly" has no fixed period`},
		{"@yearly", `period: descriptor "@yearly" has no fixed period`},
	} {
		t.Run(tt.Raw, func(t *testing.T) {
			_, err := config.ParsePeriod("period", tt.Raw)
			require.ErrorContains(t, err, tt.Expect)
		})
	}
}

func TestParse(t *testing.T) {
	c, err := config.Parse([]byte(`
period: "@every 5m"
fast_forward_on_start: true
command: ["sh", "-c", "date"]
command_timeout: 10s
log:
  level: debug
  console: true
`))
	require.NoError(t, err)
	require.Equal(t, config.Config{
		Period:             "@every 5m",
		FastForwardOnStart: true,
		Command:            []string{"sh", "-c", "date"},
		CommandTimeout:     "10s",
		Log: config.LogConfig{
			Level:   "debug",
			Console: true,
		},
	}, c)

	p, err := c.PeriodDuration()
	require.NoError(t, err)
	require.Equal(t, 5*time.Minute, p)

	to, err := c.Timeout()
	require.NoError(t, err)
	require.Equal(t, 10*time.Second, to)
}

func TestParseErr(t *testing.T) {
	_, err := config.Parse([]byte("fast_forward_on_start: true\n"))
	require.ErrorIs(t, err, config.ErrNoPeriod)

	_, err = config.Parse([]byte("period: 1s\nunknown: 1\n"))
	require.ErrorContains(t, err, "field unknown not found")

	_, err = config.Parse([]byte("period: 1s\ncommand_timeout: later\n"))
	require.ErrorContains(t, err, `command_timeout: invalid duration "later"`)
}

func TestLoad(t *testing.T) {
	p := filepath.Join(t.TempDir(), "periodic.yaml")
	require.NoError(t, os.WriteFile(p, []byte("period: 2s\n"), 0o644))

	c, err := config.Load(p)
	require.NoError(t, err)
	require.Equal(t, "2s", c.Period)

	_, err = config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatch(t *testing.T) {
	defaultDelay := config.DebounceDelay
	t.Cleanup(func() { config.DebounceDelay = defaultDelay })
	config.DebounceDelay = 10 * time.Millisecond

	p := filepath.Join(t.TempDir(), "periodic.yaml")
	require.NoError(t, os.WriteFile(p, []byte("period: 2s\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan config.Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- config.Watch(ctx, p, zerolog.Nop(), func(c config.Config) {
			changes <- c
		})
	}()

	// Invalid configs are skipped, rewrite until the watcher
	// picks up the valid one.
	require.Eventually(t, func() bool {
		_ = os.WriteFile(p, []byte("period: 0s\n"), 0o644)
		_ = os.WriteFile(p, []byte("period: 3s\n"), 0o644)
		select {
		case c := <-changes:
			return c.Period == "3s"
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

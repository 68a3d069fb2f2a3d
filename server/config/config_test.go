package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ADDR", "PORT", "LOG_LEVEL", "TICK_RATE", "COUNTDOWN", "BASE_DEATH_TIME", "WS_INSECURE_ORIGIN", "SERVICE_NAME"} {
		t.Setenv(key, "")
	}
	c := Load()
	if c.ListenAddr() != "localhost:8080" {
		t.Errorf("ListenAddr = %q", c.ListenAddr())
	}
	if c.TickInterval() != time.Second/60 || c.Countdown != 3*time.Second || c.BaseDeathTime != 5*time.Second {
		t.Errorf("timing defaults = %v %v %v", c.TickInterval(), c.Countdown, c.BaseDeathTime)
	}
	if c.LogLevel != slog.LevelInfo || !c.InsecureOrigin || c.ServiceName != "bossraid" {
		t.Errorf("defaults = %+v", c)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("COUNTDOWN", "500ms")
	t.Setenv("WS_INSECURE_ORIGIN", "false")

	c := Load()
	if c.Port != "9999" || c.LogLevel != slog.LevelDebug {
		t.Errorf("port = %s level = %v", c.Port, c.LogLevel)
	}
	if c.TickInterval() != time.Second/30 || c.Countdown != 500*time.Millisecond {
		t.Errorf("tick = %v countdown = %v", c.TickInterval(), c.Countdown)
	}
	if c.InsecureOrigin {
		t.Error("InsecureOrigin should be false")
	}
}

func TestConfig_TickInterval(t *testing.T) {
	tests := []struct {
		name string
		rate int
		want time.Duration
	}{
		{"default on zero", 0, time.Second / 60},
		{"default on negative", -5, time.Second / 60},
		{"thirty", 30, time.Second / 30},
		{"clamped", 2_000_000_000, time.Second / MaxTickRate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Config{TickRate: tt.rate}.TickInterval()
			if got != tt.want {
				t.Errorf("TickInterval(%d) = %v, want %v", tt.rate, got, tt.want)
			}
			if got <= 0 {
				t.Errorf("TickInterval(%d) must be positive", tt.rate)
			}
		})
	}
}

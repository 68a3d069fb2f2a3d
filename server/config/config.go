package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"bossraid/utils"
)

// Config はサーバープロセスの設定です。全て環境変数から読み込みます。
type Config struct {
	Addr     string
	Port     string
	LogLevel slog.Level

	TickRate      int
	Countdown     time.Duration
	BaseDeathTime time.Duration

	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
	InsecureOrigin    bool

	OTLPEndpoint string
	ServiceName  string
}

func Load() Config {
	return Config{
		Addr:              utils.GetEnvDefault("ADDR", "localhost"),
		Port:              utils.GetEnvDefault("PORT", "8080"),
		LogLevel:          parseLevel(utils.GetEnvDefault("LOG_LEVEL", "info")),
		TickRate:          utils.GetEnvInt("TICK_RATE", 60),
		Countdown:         utils.GetEnvDuration("COUNTDOWN", 3*time.Second),
		BaseDeathTime:     utils.GetEnvDuration("BASE_DEATH_TIME", 5*time.Second),
		HeartbeatInterval: utils.GetEnvDuration("HEARTBEAT_INTERVAL", 10*time.Second),
		HeartbeatTimeout:  utils.GetEnvDuration("HEARTBEAT_TIMEOUT", 30*time.Second),
		InsecureOrigin:    utils.GetEnvBool("WS_INSECURE_ORIGIN", true),
		OTLPEndpoint:      utils.GetEnvDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:       utils.GetEnvDefault("SERVICE_NAME", "bossraid"),
	}
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%s", c.Addr, c.Port)
}

// MaxTickRate を超えるTICK_RATEはこの値に丸めます。
const MaxTickRate = 1000

// TickInterval はTICK_RATEから1tickの長さを求めます。0以下は60Hz扱いです。
func (c Config) TickInterval() time.Duration {
	if c.TickRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(min(c.TickRate, MaxTickRate))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo
	}
	return level
}

package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bossraid/server"
	"bossraid/server/application"
	"bossraid/server/config"
	"bossraid/server/domain"
	"bossraid/server/telemetry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName: cfg.ServiceName,
		Endpoint:    cfg.OTLPEndpoint,
		Level:       cfg.LogLevel,
		Output:      os.Stdout,
	})
	if err != nil {
		log.Fatalf("telemetry setup: %v", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Error("telemetry shutdown failed", "err", err)
		}
	}()

	// PubSub初期化
	pubsub := domain.NewSimplePubSub(0)

	// 1プロセス1ルーム
	defaultRoomID := domain.RoomID("raid")
	roomManager := domain.NewSimpleRoomManager(defaultRoomID)

	scheduler := domain.NewTickScheduler(cfg.TickInterval())

	rules := application.DefaultRules()
	// 死亡タイマーはスケジューラの実際の間隔で減算します
	rules.TickInterval = scheduler.Interval()
	rules.Countdown = cfg.Countdown
	rules.BaseDeathTime = cfg.BaseDeathTime

	room := domain.NewRoom(defaultRoomID, pubsub, scheduler)
	room.SetApplication(application.NewRaidApplication(room, scheduler, rules, application.SystemClock()))
	go func() {
		if err := room.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "room error", "err", err)
			stop()
		}
	}()

	endpointConfig := domain.DefaultEndpointConfig()
	endpointConfig.HeartbeatInterval = cfg.HeartbeatInterval
	endpointConfig.HeartbeatTimeout = cfg.HeartbeatTimeout

	handler := server.Route(pubsub, roomManager, endpointConfig, cfg.InsecureOrigin)
	s := server.NewServer(cfg.ListenAddr(), handler)
	// WebSocketはhijackされShutdownの対象外になるため、シグナルでリクエストのctxごと止めます。
	s.HTTP.BaseContext = func(net.Listener) context.Context { return ctx }

	go func() {
		if err := s.Serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()
	slog.InfoContext(ctx, "server listening", "addr", s.Addr(), "tickRate", cfg.TickRate)

	<-ctx.Done()
	slog.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		if err := s.Close(); err != nil {
			slog.Error("forced close failed", "error", err)
		}
	}
	slog.Info("server shutdown complete")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/errgroup"

	"bossraid/server/application"
	"bossraid/server/domain"
	"bossraid/utils"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := utils.GetEnvDefault("ADDR", "localhost")
	port := utils.GetEnvDefault("PORT", "8080")
	botCount := utils.GetEnvInt("BOT_COUNT", 3)
	if botCount <= 0 {
		slog.Error("invalid BOT_COUNT", "value", botCount)
		os.Exit(1)
	}

	serverURL := fmt.Sprintf("ws://%s:%s/ws", addr, port)
	slog.Info("starting bots", "count", botCount, "server", serverURL)

	jobs := application.DefaultCatalog().Keys()
	g, ctx := errgroup.WithContext(ctx)
	for i := range botCount {
		g.Go(func() error {
			runBot(ctx, serverURL, i, jobs[i%len(jobs)])
			return nil
		})
	}

	_ = g.Wait()
	slog.Info("all bots stopped")
}

func runBot(ctx context.Context, serverURL string, id int, job application.JobKey) {
	logger := slog.With("botID", id, "job", job)

	for {
		if ctx.Err() != nil {
			return
		}
		err := botSession(ctx, serverURL, job, logger)
		if err != nil && ctx.Err() == nil {
			logger.Warn("bot session ended, reconnecting", "err", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

// botState は受信ループと判断ループで共有するクライアント側の状態です。
type botState struct {
	mu       sync.Mutex
	playerID domain.SessionID
	game     *application.GameStateMessage
	starting bool
}

func botSession(ctx context.Context, serverURL string, job application.JobKey, logger *slog.Logger) error {
	conn, _, err := websocket.Dial(ctx, serverURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.CloseNow()

	logger.Info("connected")
	state := &botState{}
	controller := application.NewRuleBotController()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return receiveLoop(ctx, conn, job, state, logger) })
	g.Go(func() error { return decideLoop(ctx, conn, controller, state) })

	err = g.Wait()
	if ctx.Err() != nil {
		conn.Close(websocket.StatusNormalClosure, "shutdown")
	}
	return err
}

func receiveLoop(ctx context.Context, conn *websocket.Conn, job application.JobKey, state *botState, logger *slog.Logger) error {
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var env struct {
			Type application.MessageType `json:"type"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}

		switch env.Type {
		case application.TypeInitialState:
			var msg application.InitialStateMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			state.mu.Lock()
			state.playerID = msg.PlayerID
			state.mu.Unlock()
			logger.Info("session assigned", "sessionID", msg.PlayerID, "isHost", msg.IsHost)
			if err := wsjson.Write(ctx, conn, map[string]any{"type": application.TypeSelectJob, "jobKey": job}); err != nil {
				return fmt.Errorf("select job: %w", err)
			}

		case application.TypeLobbyState:
			var msg application.LobbyStateMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			if shouldStart(state, &msg) {
				logger.Info("everyone ready, starting game", "players", len(msg.Players))
				if err := wsjson.Write(ctx, conn, map[string]any{"type": application.TypeStartGame}); err != nil {
					return fmt.Errorf("start game: %w", err)
				}
			}

		case application.TypeGameState:
			var msg application.GameStateMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			state.mu.Lock()
			state.game = &msg
			state.mu.Unlock()

		case application.TypeGameEnd:
			var msg application.GameEndMessage
			if err := json.Unmarshal(raw, &msg); err != nil {
				continue
			}
			state.mu.Lock()
			state.game = nil
			state.starting = false
			state.mu.Unlock()
			logger.Info("game ended", "result", msg.Result)
		}
	}
}

// shouldStart はホストで全員がジョブを選択済みのとき一度だけtrueを返します。
func shouldStart(state *botState, msg *application.LobbyStateMessage) bool {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.starting || msg.IsGameRunning || msg.HostID == nil || *msg.HostID != state.playerID {
		return false
	}
	for _, p := range msg.Players {
		if p.Job == nil {
			return false
		}
	}
	state.starting = true
	return true
}

// 判断・送信ループ (60FPS相当)
func decideLoop(ctx context.Context, conn *websocket.Conn, controller application.BotController, state *botState) error {
	ticker := time.NewTicker(time.Second / 60)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		state.mu.Lock()
		game := state.game
		self := findSelf(game, state.playerID)
		var action application.BotAction
		if self != nil && game.Phase == application.PhaseRunning.String() {
			action = controller.Decide(self, game)
		}
		state.mu.Unlock()

		if !action.MoveDirection.IsZero() {
			move := map[string]any{"type": application.TypeMove, "dx": action.MoveDirection.X, "dy": action.MoveDirection.Y}
			if err := wsjson.Write(ctx, conn, move); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
		if action.Skill != "" {
			if err := wsjson.Write(ctx, conn, map[string]any{"type": application.TypeUseSkill, "skillKey": action.Skill}); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		}
	}
}

func findSelf(game *application.GameStateMessage, id domain.SessionID) *application.GamePlayerView {
	if game == nil {
		return nil
	}
	for i := range game.Players {
		if game.Players[i].ID == id {
			return &game.Players[i]
		}
	}
	return nil
}

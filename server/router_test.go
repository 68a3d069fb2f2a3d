package server_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"bossraid/server"
	"bossraid/server/application"
	"bossraid/server/domain"
)

func startRaidServer(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())

	pubsub := domain.NewSimplePubSub(0)
	roomManager := domain.NewSimpleRoomManager("raid")
	rules := application.DefaultRules()
	rules.Countdown = 50 * time.Millisecond
	scheduler := domain.NewTickScheduler(rules.TickInterval)
	room := domain.NewRoom("raid", pubsub, scheduler)
	room.SetApplication(application.NewRaidApplication(room, scheduler, rules, application.SystemClock()))
	roomDone := make(chan struct{})
	go func() {
		defer close(roomDone)
		_ = room.Run(ctx)
	}()

	endpointConfig := domain.DefaultEndpointConfig()
	endpointConfig.HeartbeatInterval = 0
	srv := httptest.NewUnstartedServer(server.Route(pubsub, roomManager, endpointConfig, true))
	srv.Config.BaseContext = func(_ net.Listener) context.Context { return ctx }
	srv.Start()

	t.Cleanup(func() {
		cancel()
		srv.Close()
		<-roomDone
	})
	return srv.URL
}

func dial(t *testing.T, ctx context.Context, baseURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(baseURL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

// readUntil はtypが一致するメッセージが届くまで読み捨てます。
func readUntil(t *testing.T, ctx context.Context, conn *websocket.Conn, typ application.MessageType, v any, match func() bool) {
	t.Helper()
	for {
		var raw json.RawMessage
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		var env struct {
			Type application.MessageType `json:"type"`
		}
		if err := json.Unmarshal(raw, &env); err != nil || env.Type != typ {
			continue
		}
		if err := json.Unmarshal(raw, v); err != nil {
			t.Fatalf("decode %s: %v", typ, err)
		}
		if match == nil || match() {
			return
		}
	}
}

func TestHealthz(t *testing.T) {
	url := startRaidServer(t)
	res, err := http.Get(url + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", res.StatusCode)
	}
}

func TestRaid_DisconnectMidCombatTearsDownRoom(t *testing.T) {
	url := startRaidServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	first := dial(t, ctx, url)
	var initial application.InitialStateMessage
	readUntil(t, ctx, first, application.TypeInitialState, &initial, nil)
	if !initial.IsHost {
		t.Fatal("first connection should be host")
	}

	for _, msg := range []map[string]any{
		{"type": application.TypeSelectJob, "jobKey": application.JobMelee},
		{"type": application.TypeSetBossDamage, "multiplier": 2},
		{"type": application.TypeStartGame},
	} {
		if err := wsjson.Write(ctx, first, msg); err != nil {
			t.Fatalf("write %v: %v", msg["type"], err)
		}
	}

	var snapshot application.GameStateMessage
	readUntil(t, ctx, first, application.TypeGameState, &snapshot, func() bool { return snapshot.Phase == "RUNNING" })
	if snapshot.BossSettings.DamageMultiplier != 2 || snapshot.Boss == nil {
		t.Fatalf("running snapshot = %+v", snapshot)
	}

	first.Close(websocket.StatusNormalClosure, "bye")

	// 切断がRoomに届くまでは既存のルームに参加してしまうため、新しいホストになるまで接続し直す
	deadline := time.Now().Add(5 * time.Second)
	for {
		next := dial(t, ctx, url)
		var fresh application.InitialStateMessage
		readUntil(t, ctx, next, application.TypeInitialState, &fresh, nil)
		if fresh.IsHost {
			if fresh.BossSettings.DamageMultiplier != 1 || fresh.BossSettings.MaxHPMultiplier != 10 {
				t.Errorf("fresh INITIAL_STATE settings = %+v, want defaults", fresh.BossSettings)
			}
			var lobby application.LobbyStateMessage
			readUntil(t, ctx, next, application.TypeLobbyState, &lobby, nil)
			if lobby.IsGameRunning || len(lobby.Players) != 1 || lobby.Players[0].ID != fresh.PlayerID {
				t.Errorf("fresh lobby = %+v", lobby)
			}
			next.Close(websocket.StatusNormalClosure, "")
			return
		}
		next.Close(websocket.StatusNormalClosure, "")
		if time.Now().After(deadline) {
			t.Fatal("room was never torn down after the last disconnect")
		}
		time.Sleep(20 * time.Millisecond)
	}
}

package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bossraid/server/domain"
)

const tracerName = "bossraid/server/application"

// Clock はテストで時刻を差し替えるためのインターフェースです。
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func SystemClock() Clock { return systemClock{} }

// RaidApplication はボスレイド1ルーム分のdomain.Applicationです。
// RoomStateは最初の参加で作られ、最後の退出で破棄されます。
type RaidApplication struct {
	sender   domain.Sender
	clock    Clock
	catalog  *Catalog
	protocol *Protocol
	machine  *PhaseMachine
	sim      *Simulator
	tracer   trace.Tracer

	state *RoomState
}

var _ domain.Application = (*RaidApplication)(nil)

func NewRaidApplication(sender domain.Sender, scheduler domain.Scheduler, rules Rules, clock Clock) *RaidApplication {
	if clock == nil {
		clock = SystemClock()
	}
	catalog := DefaultCatalog()
	return &RaidApplication{
		sender:   sender,
		clock:    clock,
		catalog:  catalog,
		protocol: NewProtocol(catalog),
		machine:  NewPhaseMachine(scheduler, rules),
		sim:      NewSimulator(catalog, rules),
		tracer:   otel.Tracer(tracerName),
	}
}

// State は現在のRoomStateを返します。誰も参加していなければnilです。
func (app *RaidApplication) State() *RoomState {
	return app.state
}

func (app *RaidApplication) Join(ctx context.Context, sessionID domain.SessionID) {
	if app.state == nil {
		app.state = NewRoomState()
		slog.InfoContext(ctx, "raid room created")
	}
	app.state.AddPlayer(sessionID)
	slog.InfoContext(ctx, "player joined", "sessionID", sessionID, "players", app.state.Roster.Len(), "phase", app.state.Phase)

	app.send(ctx, sessionID, app.protocol.InitialState(app.state, sessionID))
	if app.state.Phase == PhaseLobby {
		app.broadcast(ctx, app.protocol.LobbyState(app.state))
	}
}

func (app *RaidApplication) Leave(ctx context.Context, sessionID domain.SessionID) {
	if app.state == nil {
		return
	}
	app.state.RemovePlayer(sessionID)
	slog.InfoContext(ctx, "player left", "sessionID", sessionID, "players", app.state.Roster.Len())

	if app.state.IsEmpty() {
		app.machine.Teardown(app.state)
		app.state = nil
		slog.InfoContext(ctx, "raid room torn down")
		return
	}
	if app.state.Phase == PhaseLobby {
		app.broadcast(ctx, app.protocol.LobbyState(app.state))
	}
}

func (app *RaidApplication) HandleMessage(ctx context.Context, sessionID domain.SessionID, data []byte) error {
	if app.state == nil {
		return fmt.Errorf("session %s: %w", sessionID, ErrUnknownPlayer)
	}
	player, ok := app.state.Player(sessionID)
	if !ok {
		return fmt.Errorf("session %s: %w", sessionID, ErrUnknownPlayer)
	}
	cmd, err := ParseCommand(data)
	if err != nil {
		return err
	}

	ctx, span := app.tracer.Start(ctx, "raid."+string(cmd.Type()), trace.WithAttributes(
		attribute.String("session.id", sessionID.String()),
		attribute.String("raid.phase", app.state.Phase.String()),
	))
	defer span.End()

	if err := app.dispatch(ctx, player, cmd); err != nil {
		if errors.Is(err, ErrInvalidPayload) {
			span.SetStatus(codes.Error, err.Error())
		}
		span.RecordError(err)
		return err
	}
	return nil
}

func (app *RaidApplication) dispatch(ctx context.Context, player *Player, cmd Command) error {
	s := app.state
	now := app.clock.Now()

	switch c := cmd.(type) {
	case MoveCommand:
		if err := MovePlayer(s, app.catalog, player, c.Dir); err != nil {
			return err
		}
		if s.Phase == PhaseLobby {
			app.broadcast(ctx, app.protocol.LobbyState(s))
		}
	case SelectJobCommand:
		if err := SelectJob(s, app.catalog, player, c.Job); err != nil {
			return err
		}
		app.broadcast(ctx, app.protocol.LobbyState(s))
	case StartGameCommand:
		if err := app.machine.StartGame(s, player.ID, now); err != nil {
			return err
		}
		slog.InfoContext(ctx, "game started", "players", s.Roster.Len(), "bossMaxHp", s.Boss.MaxHP, "gameStartTime", s.GameStartTime)
		app.broadcast(ctx, app.protocol.GameState(s, now))
	case UseSkillCommand:
		return UseSkill(s, app.catalog, player, c.Slot, now)
	case SetBossHPCommand:
		if err := ConfigureBoss(s, player.ID, func(b *BossSettings) { b.HPMultiplier = c.Multiplier }); err != nil {
			return err
		}
		app.broadcast(ctx, app.protocol.LobbyState(s))
	case SetBossDamageCommand:
		if err := ConfigureBoss(s, player.ID, func(b *BossSettings) { b.DamageMultiplier = c.Multiplier }); err != nil {
			return err
		}
		app.broadcast(ctx, app.protocol.LobbyState(s))
	default:
		return fmt.Errorf("command %T: %w", cmd, ErrInvalidPayload)
	}
	return nil
}

// Tick はスケジューラ駆動の1フレームです。COUNTDOWN中は状態の配信だけを行います。
func (app *RaidApplication) Tick(ctx context.Context) {
	s := app.state
	if s == nil || !s.Phase.InGame() {
		return
	}
	now := app.clock.Now()

	app.machine.Advance(s, now)
	if outcome := app.sim.Step(s, now); outcome != OutcomeNone {
		app.endGame(ctx, outcome)
		return
	}
	app.broadcast(ctx, app.protocol.GameState(s, now))
}

func (app *RaidApplication) endGame(ctx context.Context, outcome Outcome) {
	ctx, span := app.tracer.Start(ctx, "raid.GAME_END", trace.WithAttributes(
		attribute.String("raid.result", outcome.String()),
		attribute.Int("raid.players", app.state.Roster.Len()),
	))
	defer span.End()

	s := app.state
	app.machine.End(s)
	slog.InfoContext(ctx, "game ended", "result", outcome, "players", s.Roster.Len())
	app.broadcast(ctx, app.protocol.GameEnd(s, outcome))

	app.machine.Reset(s)
	app.broadcast(ctx, app.protocol.LobbyState(s))
}

func (app *RaidApplication) send(ctx context.Context, sessionID domain.SessionID, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "encode message failed", "err", err)
		return
	}
	app.sender.SendTo(ctx, sessionID, data)
}

func (app *RaidApplication) broadcast(ctx context.Context, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		slog.ErrorContext(ctx, "encode message failed", "err", err)
		return
	}
	app.sender.Broadcast(ctx, data)
}

package application

import (
	"fmt"
	"time"

	"bossraid/server/domain"
)

// PhaseMachine はフェーズ遷移とtickスケジューラの起動停止を担当します。
// スケジューラはCOUNTDOWN開始で起動し、終了・解散で停止します。
type PhaseMachine struct {
	scheduler domain.Scheduler
	rules     Rules
}

func NewPhaseMachine(scheduler domain.Scheduler, rules Rules) *PhaseMachine {
	return &PhaseMachine{scheduler: scheduler, rules: rules}
}

// StartGame はホストからの開始要求でLOBBYからCOUNTDOWNへ遷移させます。
// ボスはこの時点の設定で生成され、以降の設定変更の影響を受けません。
func (m *PhaseMachine) StartGame(s *RoomState, sender domain.SessionID, now time.Time) error {
	if !s.Phase.Allows(ActionStartGame) {
		return fmt.Errorf("start game in %s: %w", s.Phase, ErrPhase)
	}
	if !s.Roster.IsHost(sender) {
		return fmt.Errorf("start game: %w", ErrNotHost)
	}
	if !s.AllReady() {
		return fmt.Errorf("start game: %w", ErrNotReady)
	}

	s.Phase = PhaseCountdown
	s.GameStartTime = now.Add(m.rules.Countdown)
	s.Boss = NewBoss(s.Settings, s.GameStartTime)
	s.Attacks = nil
	for _, p := range s.OrderedPlayers() {
		p.Respawn(s.SpawnPoint(p.ID))
	}
	m.scheduler.Start()
	return nil
}

// Advance はカウントダウン終了時刻を過ぎていればRUNNINGへ進めます。
func (m *PhaseMachine) Advance(s *RoomState, now time.Time) {
	if s.Phase == PhaseCountdown && !now.Before(s.GameStartTime) {
		s.Phase = PhaseRunning
	}
}

// End はENDEDへ遷移させます。結果の送信後にResetを呼びます。
func (m *PhaseMachine) End(s *RoomState) {
	s.Phase = PhaseEnded
	m.scheduler.Stop()
}

func (m *PhaseMachine) Reset(s *RoomState) {
	s.ResetToLobby()
}

// Teardown は最後の接続が切れたときに呼ばれます。状態自体は呼び出し側で破棄します。
func (m *PhaseMachine) Teardown(s *RoomState) {
	m.scheduler.Stop()
	if s != nil {
		s.Phase = PhaseEnded
	}
}

func SelectJob(s *RoomState, catalog *Catalog, p *Player, key JobKey) error {
	if !s.Phase.Allows(ActionSelectJob) {
		return fmt.Errorf("select job in %s: %w", s.Phase, ErrPhase)
	}
	if _, ok := catalog.Job(key); !ok {
		return fmt.Errorf("select job %q: %w", key, ErrUnknownJob)
	}
	p.Job = key
	return nil
}

// ConfigureBoss はホストがロビー中にだけボス設定を変更できます。
func ConfigureBoss(s *RoomState, sender domain.SessionID, update func(*BossSettings)) error {
	if !s.Phase.Allows(ActionConfigureBoss) {
		return fmt.Errorf("configure boss in %s: %w", s.Phase, ErrPhase)
	}
	if !s.Roster.IsHost(sender) {
		return fmt.Errorf("configure boss: %w", ErrNotHost)
	}
	update(&s.Settings)
	return nil
}

package application

import (
	"math"
	"time"

	"bossraid/server/domain"
)

// Phase はルームのゲーム進行段階です。
type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhaseRunning
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "LOBBY"
	case PhaseCountdown:
		return "COUNTDOWN"
	case PhaseRunning:
		return "RUNNING"
	case PhaseEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// InGame はクライアントに isGameRunning として見せる状態です。
func (p Phase) InGame() bool {
	return p == PhaseCountdown || p == PhaseRunning
}

type Action uint8

const (
	ActionMove Action = iota
	ActionSelectJob
	ActionStartGame
	ActionUseSkill
	ActionConfigureBoss
)

// Allows はフェーズ単位の可否です。ホスト権限と生存判定は呼び出し側で行います。
func (p Phase) Allows(a Action) bool {
	switch a {
	case ActionMove:
		return p != PhaseEnded
	case ActionSelectJob, ActionStartGame, ActionConfigureBoss:
		return p == PhaseLobby
	case ActionUseSkill:
		return p == PhaseRunning
	default:
		return false
	}
}

// BossSettings はホストがロビーで変更できるボスの倍率です。
type BossSettings struct {
	HPMultiplier     float64
	DamageMultiplier float64
}

func DefaultBossSettings() BossSettings {
	return BossSettings{HPMultiplier: 10, DamageMultiplier: 1.0}
}

func validMultiplier(m float64) bool {
	return !math.IsNaN(m) && !math.IsInf(m, 0) && m > 0
}

// RoomState はルーム内の全ゲーム状態を保持します。
// Roomの単一goroutineからのみ操作されるためロックを持ちません。
type RoomState struct {
	Phase         Phase
	Roster        *Roster
	Players       map[domain.SessionID]*Player
	Boss          *Boss
	Attacks       []*ActiveAttack
	Settings      BossSettings
	GameStartTime time.Time
}

func NewRoomState() *RoomState {
	return &RoomState{
		Phase:    PhaseLobby,
		Roster:   NewRoster(),
		Players:  make(map[domain.SessionID]*Player),
		Settings: DefaultBossSettings(),
	}
}

// AddPlayer はジョブ未選択のプレイヤーを参加順の末尾に追加します。
func (s *RoomState) AddPlayer(id domain.SessionID) *Player {
	if p, ok := s.Players[id]; ok {
		return p
	}
	p := NewPlayer(id)
	s.Players[id] = p
	s.Roster.Add(id)
	return p
}

func (s *RoomState) RemovePlayer(id domain.SessionID) {
	delete(s.Players, id)
	s.Roster.Remove(id)
}

func (s *RoomState) Player(id domain.SessionID) (*Player, bool) {
	p, ok := s.Players[id]
	return p, ok
}

func (s *RoomState) IsEmpty() bool { return s.Roster.Len() == 0 }

// OrderedPlayers は参加順のプレイヤー一覧を返します。
func (s *RoomState) OrderedPlayers() []*Player {
	out := make([]*Player, 0, s.Roster.Len())
	for _, id := range s.Roster.IDs() {
		if p, ok := s.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// JobHolders はジョブを選択済みのプレイヤーを参加順で返します。
func (s *RoomState) JobHolders() []*Player {
	out := make([]*Player, 0, len(s.Players))
	for _, p := range s.OrderedPlayers() {
		if p.HasJob() {
			out = append(out, p)
		}
	}
	return out
}

// AllReady は1人以上いて全員がジョブを選択済みかを返します。
func (s *RoomState) AllReady() bool {
	if s.IsEmpty() {
		return false
	}
	for _, p := range s.Players {
		if !p.HasJob() {
			return false
		}
	}
	return true
}

// Arena は現在のフェーズで移動に使う範囲です。
func (s *RoomState) Arena() Arena {
	if s.Phase.InGame() {
		return CombatArena
	}
	return LobbyArena
}

// SpawnPoint はジョブ保持者を参加順にボスを囲む円周上へ等間隔に配置します。
func (s *RoomState) SpawnPoint(id domain.SessionID) Vec2 {
	holders := s.JobHolders()
	center := CombatArena.Center()
	for i, p := range holders {
		if p.ID != id {
			continue
		}
		angle := float64(i) / float64(len(holders)) * 2 * math.Pi
		return Vec2{
			X: center.X + math.Cos(angle)*SpawnDistance,
			Y: center.Y + math.Sin(angle)*SpawnDistance,
		}
	}
	return center.Add(Vec2{Y: 100})
}

// ResetToLobby は戦闘終了後の状態に戻します。ジョブと設定は維持します。
func (s *RoomState) ResetToLobby() {
	s.Phase = PhaseLobby
	s.Boss = nil
	s.Attacks = nil
	s.GameStartTime = time.Time{}
	for _, p := range s.Players {
		p.resetForLobby()
	}
}

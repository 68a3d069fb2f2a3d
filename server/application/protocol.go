package application

import (
	"encoding/json"
	"fmt"
	"time"

	"bossraid/server/domain"
	"bossraid/utils"
)

// MessageType はJSONメッセージの type フィールドです。
type MessageType string

const (
	// client -> server
	TypeMoveLobby     MessageType = "MOVE_LOBBY"
	TypeMove          MessageType = "MOVE"
	TypeSelectJob     MessageType = "SELECT_JOB"
	TypeStartGame     MessageType = "START_GAME"
	TypeUseSkill      MessageType = "USE_SKILL"
	TypeSetBossHP     MessageType = "SET_BOSS_HP"
	TypeSetBossDamage MessageType = "SET_BOSS_DAMAGE"

	// server -> client
	TypeInitialState MessageType = "INITIAL_STATE"
	TypeLobbyState   MessageType = "LOBBY_STATE"
	TypeGameState    MessageType = "GAME_STATE"
	TypeGameEnd      MessageType = "GAME_END"
)

// Command はパース済みの受信メッセージです。
type Command interface {
	Type() MessageType
}

type MoveCommand struct {
	Lobby bool
	Dir   Vec2
}

type SelectJobCommand struct {
	Job JobKey
}

type StartGameCommand struct{}

type UseSkillCommand struct {
	Slot SkillSlot
}

type SetBossHPCommand struct {
	Multiplier float64
}

type SetBossDamageCommand struct {
	Multiplier float64
}

func (c MoveCommand) Type() MessageType {
	if c.Lobby {
		return TypeMoveLobby
	}
	return TypeMove
}
func (SelectJobCommand) Type() MessageType     { return TypeSelectJob }
func (StartGameCommand) Type() MessageType     { return TypeStartGame }
func (UseSkillCommand) Type() MessageType      { return TypeUseSkill }
func (SetBossHPCommand) Type() MessageType     { return TypeSetBossHP }
func (SetBossDamageCommand) Type() MessageType { return TypeSetBossDamage }

type inboundMessage struct {
	Type       MessageType `json:"type"`
	DX         float64     `json:"dx"`
	DY         float64     `json:"dy"`
	JobKey     JobKey      `json:"jobKey"`
	SkillKey   string      `json:"skillKey"`
	Multiplier *float64    `json:"multiplier"`
}

// ParseCommand はJSONを検証してCommandへ変換します。
// 不正な値はErrInvalidPayloadを返し、呼び出し側で黙って捨てられます。
func ParseCommand(data []byte) (Command, error) {
	var in inboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("decode: %w: %w", ErrInvalidPayload, err)
	}

	switch in.Type {
	case TypeMove, TypeMoveLobby:
		if !utils.Finite(in.DX, in.DY) {
			return nil, fmt.Errorf("move direction: %w", ErrInvalidPayload)
		}
		dir := Vec2{X: in.DX, Y: in.DY}
		if dir.IsZero() {
			return nil, fmt.Errorf("empty move: %w", ErrInvalidPayload)
		}
		return MoveCommand{Lobby: in.Type == TypeMoveLobby, Dir: dir}, nil
	case TypeSelectJob:
		if in.JobKey.IsEmpty() {
			return nil, fmt.Errorf("jobKey: %w", ErrInvalidPayload)
		}
		return SelectJobCommand{Job: in.JobKey}, nil
	case TypeStartGame:
		return StartGameCommand{}, nil
	case TypeUseSkill:
		slot, ok := ParseSkillSlot(in.SkillKey)
		if !ok {
			return nil, fmt.Errorf("skillKey %q: %w", in.SkillKey, ErrUnknownSkill)
		}
		return UseSkillCommand{Slot: slot}, nil
	case TypeSetBossHP, TypeSetBossDamage:
		if in.Multiplier == nil || !validMultiplier(*in.Multiplier) {
			return nil, fmt.Errorf("multiplier: %w", ErrInvalidPayload)
		}
		if in.Type == TypeSetBossHP {
			return SetBossHPCommand{Multiplier: *in.Multiplier}, nil
		}
		return SetBossDamageCommand{Multiplier: *in.Multiplier}, nil
	default:
		return nil, fmt.Errorf("type %q: %w", in.Type, ErrInvalidPayload)
	}
}

// --- server -> client ---

type SkillView struct {
	Name     string  `json:"name"`
	Cooldown int64   `json:"cd"`
	Effect   string  `json:"effect"`
	Amount   float64 `json:"amount,omitempty"`
	Range    float64 `json:"range,omitempty"`
	Duration int64   `json:"duration,omitempty"`
}

type JobView struct {
	Name             string    `json:"name"`
	Color            string    `json:"color"`
	Speed            float64   `json:"speed"`
	Range            float64   `json:"range"`
	AutoAttackDamage float64   `json:"autoAttackDamage"`
	Skill1           SkillView `json:"skill1"`
	Skill2           SkillView `json:"skill2"`
	Super            SkillView `json:"super"`
}

type BossSettingsView struct {
	MaxHPMultiplier  float64 `json:"maxHpMultiplier"`
	DamageMultiplier float64 `json:"damageMultiplier"`
}

type InitialStateMessage struct {
	Type         MessageType        `json:"type"`
	PlayerID     domain.SessionID   `json:"playerId"`
	JobData      map[JobKey]JobView `json:"jobData"`
	IsHost       bool               `json:"isHost"`
	BossSettings BossSettingsView   `json:"bossSettings"`
}

type LobbyPlayerView struct {
	ID    domain.SessionID `json:"id"`
	Name  string           `json:"name"`
	Job   *JobKey          `json:"job"`
	Color string           `json:"color"`
	X     float64          `json:"x"`
	Y     float64          `json:"y"`
}

type LobbyStateMessage struct {
	Type          MessageType       `json:"type"`
	Players       []LobbyPlayerView `json:"players"`
	IsGameRunning bool              `json:"isGameRunning"`
	BossSettings  BossSettingsView  `json:"bossSettings"`
	HostID        *domain.SessionID `json:"hostId"`
}

type BossView struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Radius       float64 `json:"radius"`
	CurrentHP    float64 `json:"currentHp"`
	MaxHP        float64 `json:"maxHp"`
	Phase        int     `json:"phase"`
	StunnedUntil int64   `json:"stunnedUntil"`
}

type AttackView struct {
	ID         string     `json:"id"`
	Type       AttackKind `json:"type"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	Radius     float64    `json:"radius"`
	Damage     float64    `json:"damage"`
	DamageTime int64      `json:"damageTime"`
	Duration   int64      `json:"duration"`
}

type CooldownView struct {
	NextCastTime int64 `json:"nextCastTime"`
}

type StatsView struct {
	ID          domain.SessionID `json:"id"`
	Job         *JobKey          `json:"job"`
	Deaths      int              `json:"deaths"`
	DamageDealt float64          `json:"damageDealt"`
	HealingDone float64          `json:"healingDone"`
}

type GamePlayerView struct {
	ID         domain.SessionID `json:"id"`
	Name       string           `json:"name"`
	Job        *JobKey          `json:"job"`
	Color      string           `json:"color"`
	X          float64          `json:"x"`
	Y          float64          `json:"y"`
	CurrentHP  float64          `json:"currentHp"`
	MaxHP      float64          `json:"maxHp"`
	IsAlive    bool             `json:"isAlive"`
	DeathTimer int64            `json:"deathTimer"`
	Range      float64          `json:"range"`
	AutoAttack CooldownView     `json:"autoAttack"`
	Skill1     CooldownView     `json:"skill1"`
	Skill2     CooldownView     `json:"skill2"`
	Super      CooldownView     `json:"super"`
	Stats      StatsView        `json:"stats"`
}

type GameStateMessage struct {
	Type          MessageType        `json:"type"`
	IsGameRunning bool               `json:"isGameRunning"`
	Phase         string             `json:"phase"`
	GameStartTime int64              `json:"gameStartTime"`
	ServerTime    int64              `json:"serverTime"`
	JobData       map[JobKey]JobView `json:"jobData"`
	Boss          *BossView          `json:"boss"`
	ActiveAttacks []AttackView       `json:"activeAttacks"`
	Players       []GamePlayerView   `json:"players"`
	BossSettings  BossSettingsView   `json:"bossSettings"`
}

type GameEndMessage struct {
	Type    MessageType                    `json:"type"`
	Result  string                         `json:"result"`
	Stats   map[domain.SessionID]StatsView `json:"stats"`
	JobData map[JobKey]JobView             `json:"jobData"`
}

// Protocol はRoomStateからクライアント向けのスナップショットを組み立てます。
type Protocol struct {
	catalog *Catalog
	jobData map[JobKey]JobView
}

func NewProtocol(catalog *Catalog) *Protocol {
	jobData := make(map[JobKey]JobView)
	for _, key := range catalog.Keys() {
		job, _ := catalog.Job(key)
		jobData[key] = JobView{
			Name:             job.Name,
			Color:            job.Color,
			Speed:            job.Speed,
			Range:            job.Range,
			AutoAttackDamage: job.AutoAttackDamage,
			Skill1:           skillView(job.Skill1),
			Skill2:           skillView(job.Skill2),
			Super:            skillView(job.Super),
		}
	}
	return &Protocol{catalog: catalog, jobData: jobData}
}

func skillView(def SkillDefinition) SkillView {
	v := SkillView{Name: def.Name, Cooldown: def.Cooldown.Milliseconds()}
	switch e := def.Effect.(type) {
	case DamageEffect:
		v.Effect, v.Amount, v.Range = "damage", e.Amount, e.Range
	case HealEffect:
		v.Effect, v.Amount, v.Range = "heal", e.Amount, e.Range
	case BuffEffect:
		v.Effect, v.Range, v.Duration = "buff", e.Range, e.Duration.Milliseconds()
	case DebuffEffect:
		v.Effect, v.Duration = "debuff", e.Duration.Milliseconds()
	case CrowdControlEffect:
		v.Effect, v.Duration = "stun", e.Duration.Milliseconds()
	}
	return v
}

func (pr *Protocol) InitialState(s *RoomState, id domain.SessionID) InitialStateMessage {
	return InitialStateMessage{
		Type:         TypeInitialState,
		PlayerID:     id,
		JobData:      pr.jobData,
		IsHost:       s.Roster.IsHost(id),
		BossSettings: settingsView(s.Settings),
	}
}

func (pr *Protocol) LobbyState(s *RoomState) LobbyStateMessage {
	players := make([]LobbyPlayerView, 0, len(s.Players))
	for _, p := range s.OrderedPlayers() {
		players = append(players, LobbyPlayerView{
			ID:    p.ID,
			Name:  p.Name,
			Job:   jobOrNil(p.Job),
			Color: pr.catalog.Color(p.Job),
			X:     p.Position.X,
			Y:     p.Position.Y,
		})
	}
	var hostID *domain.SessionID
	if host := s.Roster.Host(); !host.IsEmpty() {
		hostID = &host
	}
	return LobbyStateMessage{
		Type:          TypeLobbyState,
		Players:       players,
		IsGameRunning: s.Phase.InGame(),
		BossSettings:  settingsView(s.Settings),
		HostID:        hostID,
	}
}

func (pr *Protocol) GameState(s *RoomState, now time.Time) GameStateMessage {
	msg := GameStateMessage{
		Type:          TypeGameState,
		IsGameRunning: s.Phase.InGame(),
		Phase:         s.Phase.String(),
		GameStartTime: unixMilli(s.GameStartTime),
		ServerTime:    unixMilli(now),
		JobData:       pr.jobData,
		ActiveAttacks: make([]AttackView, 0, len(s.Attacks)),
		Players:       make([]GamePlayerView, 0, len(s.Players)),
		BossSettings:  settingsView(s.Settings),
	}
	if b := s.Boss; b != nil {
		msg.Boss = &BossView{
			X:            b.Position.X,
			Y:            b.Position.Y,
			Radius:       b.Radius,
			CurrentHP:    b.HP,
			MaxHP:        b.MaxHP,
			Phase:        b.Phase,
			StunnedUntil: unixMilli(b.StunnedUntil),
		}
	}
	for _, a := range s.Attacks {
		msg.ActiveAttacks = append(msg.ActiveAttacks, AttackView{
			ID:         a.ID,
			Type:       a.Kind,
			X:          a.Position.X,
			Y:          a.Position.Y,
			Radius:     a.Radius,
			Damage:     a.Damage,
			DamageTime: unixMilli(a.DamageTime),
			Duration:   a.Duration.Milliseconds(),
		})
	}
	for _, p := range s.OrderedPlayers() {
		attackRange := 1.0
		if job, ok := pr.catalog.Job(p.Job); ok {
			attackRange = job.Range
		}
		msg.Players = append(msg.Players, GamePlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Job:        jobOrNil(p.Job),
			Color:      pr.catalog.Color(p.Job),
			X:          p.Position.X,
			Y:          p.Position.Y,
			CurrentHP:  p.HP,
			MaxHP:      p.MaxHP,
			IsAlive:    p.Alive,
			DeathTimer: p.DeathTimer.Milliseconds(),
			Range:      attackRange,
			AutoAttack: CooldownView{NextCastTime: unixMilli(p.Cooldowns.AutoAttack)},
			Skill1:     CooldownView{NextCastTime: unixMilli(p.Cooldowns.Skill1)},
			Skill2:     CooldownView{NextCastTime: unixMilli(p.Cooldowns.Skill2)},
			Super:      CooldownView{NextCastTime: unixMilli(p.Cooldowns.Super)},
			Stats:      statsView(p),
		})
	}
	return msg
}

// GameEnd はリセット前の統計を含む終了通知を組み立てます。
func (pr *Protocol) GameEnd(s *RoomState, outcome Outcome) GameEndMessage {
	stats := make(map[domain.SessionID]StatsView, len(s.Players))
	for id, p := range s.Players {
		stats[id] = statsView(p)
	}
	return GameEndMessage{
		Type:    TypeGameEnd,
		Result:  outcome.String(),
		Stats:   stats,
		JobData: pr.jobData,
	}
}

func statsView(p *Player) StatsView {
	return StatsView{
		ID:          p.ID,
		Job:         jobOrNil(p.Job),
		Deaths:      p.Stats.Deaths,
		DamageDealt: p.Stats.DamageDealt,
		HealingDone: p.Stats.HealingDone,
	}
}

func settingsView(s BossSettings) BossSettingsView {
	return BossSettingsView{MaxHPMultiplier: s.HPMultiplier, DamageMultiplier: s.DamageMultiplier}
}

func jobOrNil(k JobKey) *JobKey {
	if k.IsEmpty() {
		return nil
	}
	return &k
}

func unixMilli(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

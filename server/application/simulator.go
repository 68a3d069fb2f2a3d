package application

import (
	"time"

	"github.com/google/uuid"
)

// Rules はゲーム進行の時間パラメータです。
type Rules struct {
	TickInterval       time.Duration
	Countdown          time.Duration
	BaseDeathTime      time.Duration
	AutoAttackInterval time.Duration
}

func DefaultRules() Rules {
	return Rules{
		TickInterval:       time.Second / 60,
		Countdown:          3 * time.Second,
		BaseDeathTime:      5 * time.Second,
		AutoAttackInterval: 500 * time.Millisecond,
	}
}

type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLose
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "WIN"
	case OutcomeLose:
		return "LOSE"
	default:
		return "NONE"
	}
}

// Simulator はRUNNING中の1tick分の状態遷移を計算します。
type Simulator struct {
	catalog *Catalog
	rules   Rules
	newID   func() string
}

func NewSimulator(catalog *Catalog, rules Rules) *Simulator {
	return &Simulator{
		catalog: catalog,
		rules:   rules,
		newID:   uuid.NewString,
	}
}

// Step は 蘇生 → 自動攻撃 → ボス行動 → 範囲攻撃解決 → 期限切れ補正の削除 の順に進め、勝敗を返します。
func (sim *Simulator) Step(s *RoomState, now time.Time) Outcome {
	if s.Phase != PhaseRunning || s.Boss == nil {
		return OutcomeNone
	}

	for _, p := range s.OrderedPlayers() {
		if !p.Alive {
			p.DeathTimer -= sim.rules.TickInterval
			if p.DeathTimer <= 0 {
				p.Respawn(s.SpawnPoint(p.ID))
			}
			continue
		}
		AutoAttack(s, sim.catalog, p, now, sim.rules.AutoAttackInterval)
	}

	s.Boss.UpdatePhase()
	if attack := s.Boss.NextAttack(now, s.Settings.DamageMultiplier, sim.newID); attack != nil {
		s.Attacks = append(s.Attacks, attack)
	}

	ResolveDueAttacks(s, now, sim.rules.BaseDeathTime)

	for _, p := range s.Players {
		p.Modifiers = pruneModifiers(p.Modifiers, now)
	}
	s.Boss.Weakens = pruneModifiers(s.Boss.Weakens, now)

	return Evaluate(s)
}

// Evaluate は勝敗を判定します。ボス撃破を全滅より先に判定します。
// ジョブ保持者が1人もいない場合は全滅扱いです。
func Evaluate(s *RoomState) Outcome {
	if s.Boss != nil && s.Boss.IsDefeated() {
		return OutcomeWin
	}
	for _, p := range s.JobHolders() {
		if p.Alive {
			return OutcomeNone
		}
	}
	return OutcomeLose
}

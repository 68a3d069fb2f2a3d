package application

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownPlayer  = errors.New("unknown player")
	ErrNotAlive       = errors.New("player is not alive")
	ErrNoJob          = errors.New("player has no job")
	ErrCooldown       = errors.New("action is on cooldown")
	ErrUnknownSkill   = errors.New("unknown skill")
	ErrUnknownJob     = errors.New("unknown job")
	ErrPhase          = errors.New("action not allowed in current phase")
	ErrNotHost        = errors.New("sender is not the host")
	ErrNotReady       = errors.New("some players have not selected a job")
	ErrInvalidPayload = errors.New("invalid payload")
)

// MovePlayer は方向dirへジョブの速度で移動させます。長さ1を超える方向は正規化します。
func MovePlayer(s *RoomState, catalog *Catalog, p *Player, dir Vec2) error {
	if !s.Phase.Allows(ActionMove) {
		return fmt.Errorf("move in %s: %w", s.Phase, ErrPhase)
	}
	if s.Phase.InGame() && !p.Alive {
		return fmt.Errorf("move: %w", ErrNotAlive)
	}
	if dir.Len() > 1 {
		dir = dir.Normalize()
	}
	speed := 1.0
	if job, ok := catalog.Job(p.Job); ok {
		speed = job.Speed
	}
	p.Move(dir, speed, s.Arena())
	return nil
}

// AutoAttack は射程内なら自動攻撃を1回解決します。攻撃した場合trueを返します。
func AutoAttack(s *RoomState, catalog *Catalog, p *Player, now time.Time, interval time.Duration) bool {
	if s.Boss == nil || !p.Alive {
		return false
	}
	job, ok := catalog.Job(p.Job)
	if !ok {
		return false
	}
	if now.Before(p.Cooldowns.AutoAttack) {
		return false
	}
	if p.Position.Dist(s.Boss.Position) >= job.Range+s.Boss.Radius {
		return false
	}

	dealt := job.AutoAttackDamage * p.Rate(StatDamageDealt, now)
	s.Boss.Damage(dealt)
	p.Stats.DamageDealt += dealt
	p.Cooldowns.AutoAttack = now.Add(interval)
	return true
}

// UseSkill はスキルを検証して発動します。
// 検証に通ればクールダウンは効果の対象有無に関係なく消費されます。
func UseSkill(s *RoomState, catalog *Catalog, p *Player, slot SkillSlot, now time.Time) error {
	if !s.Phase.Allows(ActionUseSkill) {
		return fmt.Errorf("use %s in %s: %w", slot, s.Phase, ErrPhase)
	}
	if !p.Alive {
		return fmt.Errorf("use %s: %w", slot, ErrNotAlive)
	}
	job, ok := catalog.Job(p.Job)
	if !ok {
		return fmt.Errorf("use %s: %w", slot, ErrNoJob)
	}
	skill, ok := job.Skill(slot)
	next := p.Cooldowns.slot(slot)
	if !ok || next == nil {
		return fmt.Errorf("use %q: %w", slot, ErrUnknownSkill)
	}
	if now.Before(*next) {
		return fmt.Errorf("use %s: %w", slot, ErrCooldown)
	}

	*next = now.Add(skill.Cooldown)
	return applyEffect(s, p, skill.Effect, now)
}

// ResolveDueAttacks は解決時刻に達した範囲攻撃を一度だけ適用して取り除きます。
func ResolveDueAttacks(s *RoomState, now time.Time, baseDeathTime time.Duration) {
	pending := s.Attacks[:0]
	for _, a := range s.Attacks {
		if now.Before(a.DamageTime) {
			pending = append(pending, a)
			continue
		}
		for _, p := range s.OrderedPlayers() {
			if !p.Alive || !a.Hits(p.Position) {
				continue
			}
			if p.Damage(a.Damage * p.Rate(StatDamageTaken, now)) {
				p.Kill(baseDeathTime)
			}
		}
	}
	clear(s.Attacks[len(pending):])
	s.Attacks = pending
}

package application

import (
	"fmt"
	"time"
)

func applyEffect(s *RoomState, caster *Player, effect Effect, now time.Time) error {
	switch e := effect.(type) {
	case DamageEffect:
		applyDamage(s, caster, e, now)
	case HealEffect:
		applyHeal(s, caster, e)
	case BuffEffect:
		applyBuff(s, caster, e, now)
	case DebuffEffect:
		if s.Boss != nil {
			s.Boss.Weakens = append(s.Boss.Weakens, Modifier{Stat: StatDamageDealt, Rate: e.Rate, ExpiresAt: now.Add(e.Duration)})
		}
	case CrowdControlEffect:
		if s.Boss != nil {
			s.Boss.Stun(now, e.Duration)
		}
	default:
		return fmt.Errorf("effect %T: %w", effect, ErrUnknownSkill)
	}
	return nil
}

func applyDamage(s *RoomState, caster *Player, e DamageEffect, now time.Time) {
	boss := s.Boss
	if boss == nil {
		return
	}
	if e.Dash != 0 {
		offset := boss.Position.Sub(caster.Position)
		dash := e.Dash
		if dash > 0 {
			// ボスの円に食い込む手前で止める
			dash = min(dash, max(0, offset.Len()-boss.Radius-PlayerRadius))
		}
		caster.Position = CombatArena.Clamp(caster.Position.Add(offset.Normalize().Scale(dash)), PlayerRadius)
	}
	if caster.Position.Dist(boss.Position) >= e.Range+boss.Radius {
		return
	}
	dealt := e.Amount * caster.Rate(StatDamageDealt, now)
	boss.Damage(dealt)
	caster.Stats.DamageDealt += dealt
}

func applyHeal(s *RoomState, caster *Player, e HealEffect) {
	for _, target := range s.OrderedPlayers() {
		if !target.Alive || target.HP >= target.MaxHP {
			continue
		}
		if e.Range > 0 && caster.Position.Dist(target.Position) >= e.Range+PlayerRadius {
			continue
		}
		caster.Stats.HealingDone += target.Heal(e.Amount)
	}
}

func applyBuff(s *RoomState, caster *Player, e BuffEffect, now time.Time) {
	mod := Modifier{Stat: e.Stat, Rate: e.Rate, ExpiresAt: now.Add(e.Duration)}
	if e.Target == BuffSelf {
		caster.AddModifier(mod)
		return
	}
	for _, target := range s.OrderedPlayers() {
		if !target.Alive {
			continue
		}
		if e.Range > 0 && caster.Position.Dist(target.Position) >= e.Range+PlayerRadius {
			continue
		}
		target.AddModifier(mod)
	}
}

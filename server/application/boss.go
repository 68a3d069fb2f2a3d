package application

import "time"

const (
	bossInitialAttackCooldown = 3000 * time.Millisecond
	bossPhase2Threshold       = 0.6
	bossPhase3Threshold       = 0.3
)

// UpdatePhase はHP割合からフェーズを進めます。フェーズは下がりません。
func (b *Boss) UpdatePhase() {
	ratio := b.HPRatio()
	switch {
	case ratio <= bossPhase3Threshold && b.Phase < 3:
		b.Phase = 3
		b.AttackCooldown = 1500 * time.Millisecond
	case ratio <= bossPhase2Threshold && b.Phase < 2:
		b.Phase = 2
		b.AttackCooldown = 2000 * time.Millisecond
	}
}

// NextAttack は攻撃間隔が経過していれば予告付きの範囲攻撃を生成します。
func (b *Boss) NextAttack(now time.Time, damageMultiplier float64, newID func() string) *ActiveAttack {
	if b.IsStunned(now) || now.Sub(b.LastAttack) < b.AttackCooldown {
		return nil
	}
	b.LastAttack = now

	duration := 2000 * time.Millisecond
	if b.Phase == 3 {
		duration = 1500 * time.Millisecond
	}
	radius := 400.0
	if b.Phase == 1 {
		radius = 300
	}
	return &ActiveAttack{
		ID:         newID(),
		Kind:       AttackCircle,
		Position:   b.Position,
		Radius:     radius,
		Damage:     100 * damageMultiplier * float64(b.Phase) * b.OutgoingRate(now),
		DamageTime: now.Add(duration),
		Duration:   duration,
	}
}

package application

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

func fixedID() string { return "attack" }

func TestBoss_PhaseThresholds(t *testing.T) {
	tests := []struct {
		name      string
		hp        float64
		wantPhase int
		wantCD    time.Duration
	}{
		{"full", 10000, 1, 3000 * time.Millisecond},
		{"just above 60%", 6001, 1, 3000 * time.Millisecond},
		{"exactly 60%", 6000, 2, 2000 * time.Millisecond},
		{"just above 30%", 3001, 2, 2000 * time.Millisecond},
		{"exactly 30%", 3000, 3, 1500 * time.Millisecond},
		{"dead", 0, 3, 1500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBoss(DefaultBossSettings(), epoch)
			b.HP = tt.hp
			b.UpdatePhase()
			if b.Phase != tt.wantPhase || b.AttackCooldown != tt.wantCD {
				t.Errorf("phase = %d cd = %v, want %d %v", b.Phase, b.AttackCooldown, tt.wantPhase, tt.wantCD)
			}
		})
	}
}

func TestBoss_PhaseNeverDecreases(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := NewBoss(DefaultBossSettings(), epoch)
		hps := rapid.SliceOfN(rapid.Float64Range(0, b.MaxHP), 1, 30).Draw(t, "hp")
		prev := b.Phase
		for _, hp := range hps {
			b.HP = hp
			b.UpdatePhase()
			if b.Phase < prev {
				t.Fatalf("phase went from %d to %d at hp %v", prev, b.Phase, hp)
			}
			ratio := hp / b.MaxHP
			if ratio <= bossPhase3Threshold && b.Phase != 3 {
				t.Fatalf("hp ratio %v should be phase 3, got %d", ratio, b.Phase)
			}
			if ratio <= bossPhase2Threshold && b.Phase < 2 {
				t.Fatalf("hp ratio %v should be at least phase 2, got %d", ratio, b.Phase)
			}
			prev = b.Phase
		}
	})
}

func TestBoss_NextAttack(t *testing.T) {
	b := NewBoss(BossSettings{HPMultiplier: 10, DamageMultiplier: 1.5}, epoch)

	if a := b.NextAttack(epoch.Add(2999*time.Millisecond), 1.5, fixedID); a != nil {
		t.Fatal("attack before initial cooldown elapsed")
	}

	now := epoch.Add(3 * time.Second)
	a := b.NextAttack(now, 1.5, fixedID)
	if a == nil {
		t.Fatal("expected an attack once cooldown elapsed")
	}
	if a.Kind != AttackCircle || a.Radius != 300 || a.Damage != 150 || a.Duration != 2*time.Second {
		t.Errorf("phase 1 attack = %+v", a)
	}
	if !a.DamageTime.Equal(now.Add(2 * time.Second)) {
		t.Errorf("DamageTime = %v, want now+2s", a.DamageTime)
	}
	if again := b.NextAttack(now, 1.5, fixedID); again != nil {
		t.Error("attack clock should reset after emitting")
	}

	b.HP = 1000
	b.UpdatePhase()
	now = now.Add(1500 * time.Millisecond)
	a = b.NextAttack(now, 1.5, fixedID)
	if a == nil || a.Radius != 400 || a.Damage != 450 || a.Duration != 1500*time.Millisecond {
		t.Errorf("phase 3 attack = %+v", a)
	}
}

func TestBoss_StunDelaysAttackClock(t *testing.T) {
	b := NewBoss(DefaultBossSettings(), epoch)
	b.Stun(epoch, 8*time.Second)

	if a := b.NextAttack(epoch.Add(8*time.Second), 1, fixedID); a != nil {
		t.Fatal("boss attacked the instant the stun ended")
	}
	if a := b.NextAttack(epoch.Add(11*time.Second), 1, fixedID); a == nil {
		t.Fatal("boss should attack one cooldown after the stun ends")
	}
}

func TestBoss_WeakenScalesDamage(t *testing.T) {
	b := NewBoss(DefaultBossSettings(), epoch)
	b.Weakens = append(b.Weakens, Modifier{Stat: StatDamageDealt, Rate: 0.7, ExpiresAt: epoch.Add(time.Hour)})

	a := b.NextAttack(epoch.Add(3*time.Second), 1, fixedID)
	if a == nil || a.Damage != 70 {
		t.Fatalf("weakened attack = %+v, want damage 70", a)
	}
}

func TestBoss_FirstAttackOneCooldownAfterCombatStarts(t *testing.T) {
	s := NewRoomState()
	p := s.AddPlayer("host")
	p.Job = JobMelee
	rules := DefaultRules()
	m := NewPhaseMachine(&fakeScheduler{}, rules)
	if err := m.StartGame(s, "host", epoch); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	if !s.Boss.LastAttack.Equal(s.GameStartTime) {
		t.Fatalf("LastAttack = %v, want GameStartTime %v", s.Boss.LastAttack, s.GameStartTime)
	}

	combat := s.GameStartTime
	if a := s.Boss.NextAttack(combat, 1, fixedID); a != nil {
		t.Error("boss attacked as soon as combat started")
	}
	if a := s.Boss.NextAttack(combat.Add(bossInitialAttackCooldown-time.Millisecond), 1, fixedID); a != nil {
		t.Error("boss attacked before one cooldown of combat")
	}
	if a := s.Boss.NextAttack(combat.Add(bossInitialAttackCooldown), 1, fixedID); a == nil {
		t.Error("boss should attack one cooldown after combat starts")
	}
}

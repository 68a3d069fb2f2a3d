package application

import (
	"testing"
	"time"

	"bossraid/server/domain"

	"pgregory.net/rapid"
)

func TestPlayer_HPStaysWithinBounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p := NewPlayer(domain.NewSessionID())
		ops := rapid.SliceOfN(rapid.Float64Range(-3000, 3000), 1, 50).Draw(t, "ops")
		for _, amount := range ops {
			if amount < 0 {
				p.Heal(-amount)
			} else if p.Damage(amount) {
				p.Kill(5 * time.Second)
				p.Respawn(CombatArena.Center())
			}
			if p.HP < 0 || p.HP > p.MaxHP {
				t.Fatalf("hp = %v, want within [0, %v]", p.HP, p.MaxHP)
			}
		}
	})
}

func TestPlayer_PositionStaysWithinArena(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		arena := LobbyArena
		if rapid.Bool().Draw(t, "combat") {
			arena = CombatArena
		}
		p := NewPlayer(domain.NewSessionID())
		p.Position = arena.Center()
		speed := rapid.Float64Range(0, 100).Draw(t, "speed")
		n := rapid.IntRange(1, 100).Draw(t, "moves")
		for i := 0; i < n; i++ {
			dir := Vec2{
				X: rapid.Float64Range(-1, 1).Draw(t, "dx"),
				Y: rapid.Float64Range(-1, 1).Draw(t, "dy"),
			}
			p.Move(dir, speed, arena)
			if !arena.Contains(p.Position, PlayerRadius) {
				t.Fatalf("position %+v escaped arena of size %v", p.Position, arena.Size)
			}
		}
	})
}

func TestPlayer_NthDeathWaitsNTimesBase(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Duration(rapid.IntRange(1, 10_000).Draw(t, "baseMs")) * time.Millisecond
		deaths := rapid.IntRange(1, 20).Draw(t, "deaths")
		p := NewPlayer(domain.NewSessionID())
		for n := 1; n <= deaths; n++ {
			p.Kill(base)
			if want := time.Duration(n) * base; p.DeathTimer != want {
				t.Fatalf("death %d: timer = %v, want %v", n, p.DeathTimer, want)
			}
			p.Respawn(CombatArena.Center())
		}
		if p.Stats.Deaths != deaths {
			t.Fatalf("deaths = %d, want %d", p.Stats.Deaths, deaths)
		}
	})
}

func TestPlayer_HealReturnsRestoredAmount(t *testing.T) {
	p := NewPlayer(domain.NewSessionID())
	p.HP = 900

	if got := p.Heal(200); got != 100 {
		t.Errorf("Heal = %v, want 100", got)
	}
	if p.HP != p.MaxHP {
		t.Errorf("HP = %v, want %v", p.HP, p.MaxHP)
	}

	p.Alive = false
	p.HP = 0
	if got := p.Heal(200); got != 0 {
		t.Errorf("dead player healed by %v", got)
	}
}

func TestNewPlayer(t *testing.T) {
	id := domain.SessionID("abcdef-123")
	p := NewPlayer(id)
	if p.Name != "Player abcd" {
		t.Errorf("Name = %q, want %q", p.Name, "Player abcd")
	}
	if p.HasJob() {
		t.Error("new player should have no job")
	}
	if p.Position != LobbyArena.Center() {
		t.Errorf("Position = %+v, want lobby center", p.Position)
	}
}

func TestNewBoss_HPFromMultiplier(t *testing.T) {
	tests := []struct {
		multiplier float64
		want       float64
	}{
		{10, 10000},
		{1, 1000},
		{2.5, 2500},
		{0.0001, 1},
	}
	for _, tt := range tests {
		b := NewBoss(BossSettings{HPMultiplier: tt.multiplier, DamageMultiplier: 1}, epoch)
		if b.MaxHP != tt.want || b.HP != tt.want {
			t.Errorf("multiplier %v: hp = %v/%v, want %v", tt.multiplier, b.HP, b.MaxHP, tt.want)
		}
	}
}

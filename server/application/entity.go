package application

import (
	"math"
	"time"

	"bossraid/server/domain"
)

const (
	ArenaSize      float64 = 800
	LobbyArenaSize float64 = 600
	BossRadius     float64 = 50
	PlayerRadius   float64 = 20
	SpawnDistance  float64 = 300
	PlayerMaxHP    float64 = 1000
	BossBaseHP     float64 = 10000
)

type Vec2 struct {
	X, Y float64
}

func (v Vec2) Add(o Vec2) Vec2      { return Vec2{X: v.X + o.X, Y: v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{X: v.X - o.X, Y: v.Y - o.Y} }
func (v Vec2) Scale(k float64) Vec2 { return Vec2{X: v.X * k, Y: v.Y * k} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func (v Vec2) IsZero() bool         { return v.X == 0 && v.Y == 0 }

// Normalize は長さ1の方向を返します。ゼロベクトルはそのまま返します。
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Arena は原点を左上とする正方形の移動可能範囲です。
type Arena struct {
	Size float64
}

var (
	CombatArena = Arena{Size: ArenaSize}
	LobbyArena  = Arena{Size: LobbyArenaSize}
)

func (a Arena) Center() Vec2 { return Vec2{X: a.Size / 2, Y: a.Size / 2} }

// Clamp は半径radiusの円が範囲内に収まるよう位置を丸めます。
func (a Arena) Clamp(p Vec2, radius float64) Vec2 {
	return Vec2{
		X: clamp(p.X, radius, a.Size-radius),
		Y: clamp(p.Y, radius, a.Size-radius),
	}
}

func (a Arena) Contains(p Vec2, radius float64) bool {
	return p.X >= radius && p.X <= a.Size-radius && p.Y >= radius && p.Y <= a.Size-radius
}

// Cooldowns は各行動が次に使用可能になる時刻です。
type Cooldowns struct {
	AutoAttack time.Time
	Skill1     time.Time
	Skill2     time.Time
	Super      time.Time
}

func (c *Cooldowns) slot(slot SkillSlot) *time.Time {
	switch slot {
	case SkillSlot1:
		return &c.Skill1
	case SkillSlot2:
		return &c.Skill2
	case SkillSuper:
		return &c.Super
	default:
		return nil
	}
}

type Stats struct {
	Deaths      int
	DamageDealt float64
	HealingDone float64
}

// Modifier は期限付きの倍率補正です。
type Modifier struct {
	Stat      BuffStat
	Rate      float64
	ExpiresAt time.Time
}

func rateOf(mods []Modifier, stat BuffStat, now time.Time) float64 {
	rate := 1.0
	for _, m := range mods {
		if m.Stat == stat && now.Before(m.ExpiresAt) {
			rate *= m.Rate
		}
	}
	return rate
}

func pruneModifiers(mods []Modifier, now time.Time) []Modifier {
	kept := mods[:0]
	for _, m := range mods {
		if now.Before(m.ExpiresAt) {
			kept = append(kept, m)
		}
	}
	return kept
}

// Player はルーム内の1参加者です。
type Player struct {
	ID         domain.SessionID
	Name       string
	Job        JobKey
	Position   Vec2
	HP         float64
	MaxHP      float64
	Alive      bool
	DeathTimer time.Duration
	Cooldowns  Cooldowns
	Stats      Stats
	Modifiers  []Modifier
}

func NewPlayer(id domain.SessionID) *Player {
	return &Player{
		ID:       id,
		Name:     "Player " + id.Short(),
		Position: LobbyArena.Center(),
		HP:       PlayerMaxHP,
		MaxHP:    PlayerMaxHP,
		Alive:    true,
	}
}

func (p *Player) HasJob() bool { return !p.Job.IsEmpty() }

// Move はdir方向にspeed分だけ移動し、アリーナ内にクランプします。
func (p *Player) Move(dir Vec2, speed float64, arena Arena) {
	p.Position = arena.Clamp(p.Position.Add(dir.Scale(speed)), PlayerRadius)
}

// Damage はHPを減らします。このダメージでHPが0になった場合trueを返します。
func (p *Player) Damage(amount float64) bool {
	if !p.Alive || amount <= 0 {
		return false
	}
	p.HP = max(0, p.HP-amount)
	return p.HP == 0
}

// Heal は最大HPを上限に回復し、実際に回復した量を返します。
func (p *Player) Heal(amount float64) float64 {
	if !p.Alive || amount <= 0 {
		return 0
	}
	before := p.HP
	p.HP = min(p.MaxHP, p.HP+amount)
	return p.HP - before
}

// Kill は死亡状態にします。N回目の死亡の待ち時間は N × base です。
func (p *Player) Kill(base time.Duration) {
	p.Alive = false
	p.HP = 0
	p.Stats.Deaths++
	p.DeathTimer = time.Duration(p.Stats.Deaths) * base
	p.Modifiers = nil
}

func (p *Player) Respawn(at Vec2) {
	p.Alive = true
	p.HP = p.MaxHP
	p.DeathTimer = 0
	p.Position = at
}

func (p *Player) Rate(stat BuffStat, now time.Time) float64 {
	return rateOf(p.Modifiers, stat, now)
}

func (p *Player) AddModifier(m Modifier) {
	p.Modifiers = append(p.Modifiers, m)
}

// resetForLobby はジョブ以外の戦闘状態を初期化します。
func (p *Player) resetForLobby() {
	p.Position = LobbyArena.Center()
	p.HP = p.MaxHP
	p.Alive = true
	p.DeathTimer = 0
	p.Cooldowns = Cooldowns{}
	p.Stats = Stats{}
	p.Modifiers = nil
}

type Boss struct {
	Position       Vec2
	Radius         float64
	HP             float64
	MaxHP          float64
	Phase          int
	AttackCooldown time.Duration
	LastAttack     time.Time
	StunnedUntil   time.Time
	Weakens        []Modifier
}

// NewBoss は開始時点の設定でボスを生成します。生成後に設定が変わっても影響しません。
// 攻撃間隔はstartから数えます。StartGameは戦闘開始時刻を渡すため、
// カウントダウン中は計測されず、最初の攻撃は戦闘開始から1クールダウン後です。
func NewBoss(settings BossSettings, start time.Time) *Boss {
	maxHP := max(1, math.Round(BossBaseHP*settings.HPMultiplier/10))
	return &Boss{
		Position:       CombatArena.Center(),
		Radius:         BossRadius,
		HP:             maxHP,
		MaxHP:          maxHP,
		Phase:          1,
		AttackCooldown: bossInitialAttackCooldown,
		LastAttack:     start,
	}
}

func (b *Boss) Damage(amount float64) {
	if amount <= 0 {
		return
	}
	b.HP = max(0, b.HP-amount)
}

func (b *Boss) IsDefeated() bool { return b.HP <= 0 }

func (b *Boss) HPRatio() float64 { return b.HP / b.MaxHP }

func (b *Boss) IsStunned(now time.Time) bool { return now.Before(b.StunnedUntil) }

// Stun はnowからdの間行動不能にし、攻撃間隔の計測を解除時刻から再開させます。
func (b *Boss) Stun(now time.Time, d time.Duration) {
	until := now.Add(d)
	if until.After(b.StunnedUntil) {
		b.StunnedUntil = until
	}
	b.LastAttack = b.StunnedUntil
}

func (b *Boss) OutgoingRate(now time.Time) float64 {
	return rateOf(b.Weakens, StatDamageDealt, now)
}

type AttackKind string

const AttackCircle AttackKind = "CIRCLE"

// ActiveAttack は予告表示中の範囲攻撃です。DamageTimeに一度だけ解決されます。
type ActiveAttack struct {
	ID         string
	Kind       AttackKind
	Position   Vec2
	Radius     float64
	Damage     float64
	DamageTime time.Time
	Duration   time.Duration
}

func (a *ActiveAttack) Hits(p Vec2) bool {
	return a.Position.Dist(p) < a.Radius+PlayerRadius
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

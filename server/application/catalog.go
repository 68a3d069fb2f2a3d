package application

import "time"

// JobKey はプレイヤーが選択する職業の識別子です。空文字は未選択を表します。
type JobKey string

const (
	JobMelee     JobKey = "MELEE"
	JobRanged    JobKey = "RANGED"
	JobHealer    JobKey = "HEALER"
	JobSupporter JobKey = "SUPPORTER"
)

func (k JobKey) IsEmpty() bool { return k == "" }

// SkillSlot は職業ごとに3つあるスキル枠です。
type SkillSlot string

const (
	SkillSlot1 SkillSlot = "skill1"
	SkillSlot2 SkillSlot = "skill2"
	SkillSuper SkillSlot = "super"
)

func ParseSkillSlot(s string) (SkillSlot, bool) {
	switch slot := SkillSlot(s); slot {
	case SkillSlot1, SkillSlot2, SkillSuper:
		return slot, true
	default:
		return "", false
	}
}

// Effect はスキルの効果です。実装はこのファイルの5種類に閉じています。
type Effect interface {
	isEffect()
}

// DamageEffect はボスへの直接ダメージです。
// Dashが正ならボスへ向かって、負ならボスから離れる方向へ移動してから判定します。
type DamageEffect struct {
	Amount float64
	Range  float64
	Dash   float64
}

// HealEffect は範囲内の生存プレイヤーを回復します。Range 0 はアリーナ全体です。
type HealEffect struct {
	Amount float64
	Range  float64
}

type BuffTarget uint8

const (
	BuffSelf BuffTarget = iota
	BuffParty
)

// BuffStat は補正が掛かる値の種類です。
type BuffStat uint8

const (
	StatDamageDealt BuffStat = iota
	StatDamageTaken
)

// BuffEffect はプレイヤーに倍率補正を付与します。Party対象でRange 0 は全員です。
type BuffEffect struct {
	Target   BuffTarget
	Stat     BuffStat
	Rate     float64
	Duration time.Duration
	Range    float64
}

// DebuffEffect はボスの与ダメージに倍率を掛けます。
type DebuffEffect struct {
	Rate     float64
	Duration time.Duration
}

// CrowdControlEffect はボスを行動不能にします。
type CrowdControlEffect struct {
	Duration time.Duration
}

func (DamageEffect) isEffect()       {}
func (HealEffect) isEffect()         {}
func (BuffEffect) isEffect()         {}
func (DebuffEffect) isEffect()       {}
func (CrowdControlEffect) isEffect() {}

type SkillDefinition struct {
	Name     string
	Cooldown time.Duration
	Effect   Effect
}

type JobDefinition struct {
	Key              JobKey
	Name             string
	Color            string
	Speed            float64
	Range            float64
	AutoAttackDamage float64
	Skill1           SkillDefinition
	Skill2           SkillDefinition
	Super            SkillDefinition
}

// Skill はスロットに対応するスキル定義を返します。
func (j *JobDefinition) Skill(slot SkillSlot) (SkillDefinition, bool) {
	switch slot {
	case SkillSlot1:
		return j.Skill1, true
	case SkillSlot2:
		return j.Skill2, true
	case SkillSuper:
		return j.Super, true
	default:
		return SkillDefinition{}, false
	}
}

const noJobColor = "#555"

// Catalog は職業定義の読み取り専用テーブルです。起動後に変更されません。
type Catalog struct {
	jobs  map[JobKey]*JobDefinition
	order []JobKey
}

func NewCatalog(jobs ...*JobDefinition) *Catalog {
	c := &Catalog{jobs: make(map[JobKey]*JobDefinition, len(jobs))}
	for _, j := range jobs {
		c.jobs[j.Key] = j
		c.order = append(c.order, j.Key)
	}
	return c
}

func (c *Catalog) Job(key JobKey) (*JobDefinition, bool) {
	j, ok := c.jobs[key]
	return j, ok
}

// Keys は登録順の職業キーを返します。
func (c *Catalog) Keys() []JobKey {
	out := make([]JobKey, len(c.order))
	copy(out, c.order)
	return out
}

func (c *Catalog) Color(key JobKey) string {
	if j, ok := c.jobs[key]; ok {
		return j.Color
	}
	return noJobColor
}

func DefaultCatalog() *Catalog {
	return NewCatalog(
		&JobDefinition{
			Key:              JobMelee,
			Name:             "近接アタッカー",
			Color:            "#F44336",
			Speed:            24,
			Range:            100,
			AutoAttackDamage: 50,
			Skill1:           SkillDefinition{Name: "突進", Cooldown: 8 * time.Second, Effect: DamageEffect{Amount: 150, Range: 100, Dash: 100}},
			Skill2:           SkillDefinition{Name: "防御", Cooldown: 15 * time.Second, Effect: BuffEffect{Target: BuffSelf, Stat: StatDamageTaken, Rate: 0.5, Duration: 3 * time.Second}},
			Super:            SkillDefinition{Name: "大回転斬り", Cooldown: 40 * time.Second, Effect: DamageEffect{Amount: 600, Range: 150}},
		},
		&JobDefinition{
			Key:              JobRanged,
			Name:             "遠距離アタッカー",
			Color:            "#2196F3",
			Speed:            30,
			Range:            500,
			AutoAttackDamage: 30,
			Skill1:           SkillDefinition{Name: "後退射撃", Cooldown: 5 * time.Second, Effect: DamageEffect{Amount: 120, Range: 500, Dash: -100}},
			Skill2:           SkillDefinition{Name: "広範囲爆撃", Cooldown: 10 * time.Second, Effect: DamageEffect{Amount: 250, Range: 300}},
			Super:            SkillDefinition{Name: "バースト射撃", Cooldown: 45 * time.Second, Effect: BuffEffect{Target: BuffSelf, Stat: StatDamageDealt, Rate: 2, Duration: 5 * time.Second}},
		},
		&JobDefinition{
			Key:              JobHealer,
			Name:             "ヒーラー",
			Color:            "#4CAF50",
			Speed:            30,
			Range:            300,
			AutoAttackDamage: 10,
			Skill1:           SkillDefinition{Name: "緊急回復", Cooldown: 8 * time.Second, Effect: HealEffect{Amount: 200, Range: 300}},
			Skill2:           SkillDefinition{Name: "バフ", Cooldown: 15 * time.Second, Effect: BuffEffect{Target: BuffParty, Stat: StatDamageDealt, Rate: 1.5, Duration: 5 * time.Second}},
			Super:            SkillDefinition{Name: "範囲回復", Cooldown: 40 * time.Second, Effect: HealEffect{Amount: 500}},
		},
		&JobDefinition{
			Key:              JobSupporter,
			Name:             "サポーター",
			Color:            "#FFEB3B",
			Speed:            32,
			Range:            350,
			AutoAttackDamage: 15,
			Skill1:           SkillDefinition{Name: "デバフ付与", Cooldown: 10 * time.Second, Effect: DebuffEffect{Rate: 0.7, Duration: 8 * time.Second}},
			Skill2:           SkillDefinition{Name: "シールド付与", Cooldown: 12 * time.Second, Effect: BuffEffect{Target: BuffParty, Stat: StatDamageTaken, Rate: 0.5, Duration: 6 * time.Second}},
			Super:            SkillDefinition{Name: "戦場支配", Cooldown: 50 * time.Second, Effect: CrowdControlEffect{Duration: 8 * time.Second}},
		},
	)
}

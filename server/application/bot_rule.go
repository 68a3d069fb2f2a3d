package application

import (
	"math"
	"math/rand/v2"
)

const (
	botNoiseAngle float64 = 0.52 // ±30度 (π/6 ≈ 0.52 rad)
	botDangerLead int64   = 800  // 着弾までこのms以内なら回避を優先
	rushChance    float64 = 0.02 // 毎tick 2% の確率で突撃
)

// RuleBotController はルールベースのボットAIです。
// ボットごとに異なる個性パラメータを持ちます。
type RuleBotController struct {
	RangeRatio float64 // 射程に対してどこまで近づくか
	StrafeSign float64 // +1: 反時計回り, -1: 時計回り
}

// NewRuleBotController はランダムな個性を持つボットAIを生成します。
func NewRuleBotController() *RuleBotController {
	strafeSign := 1.0
	if rand.Float64() < 0.5 {
		strafeSign = -1.0
	}
	return &RuleBotController{
		RangeRatio: 0.5 + rand.Float64()*0.3, // 0.5〜0.8
		StrafeSign: strafeSign,
	}
}

func (r *RuleBotController) Decide(self *GamePlayerView, state *GameStateMessage) BotAction {
	if self == nil || !self.IsAlive || state.Boss == nil {
		return BotAction{}
	}
	action := BotAction{Skill: readySkill(self, state.ServerTime)}

	boss := Vec2{X: state.Boss.X, Y: state.Boss.Y}
	pos := Vec2{X: self.X, Y: self.Y}
	toBoss := boss.Sub(pos)
	dist := toBoss.Len()
	if dist < 0.001 {
		action.MoveDirection = addNoise(Vec2{X: 1})
		return action
	}
	n := toBoss.Scale(1 / dist)

	// 被弾回避を優先
	if dir, ok := evadeAttack(pos, state); ok {
		action.MoveDirection = addNoise(dir)
		return action
	}

	// ランダム突撃: 一定確率で距離に関係なく接近
	if rand.Float64() < rushChance {
		action.MoveDirection = addNoise(n)
		return action
	}

	want := self.Range*r.RangeRatio + state.Boss.Radius
	switch {
	case dist > want:
		action.MoveDirection = addNoise(n)
	default:
		// 射程内: 横移動（ストレイフ方向はボットごとに異なる）
		action.MoveDirection = addNoise(Vec2{X: -n.Y * r.StrafeSign, Y: n.X * r.StrafeSign})
	}
	return action
}

// readySkill はクールダウンが明けている最初のスキルを返します。
func readySkill(self *GamePlayerView, serverTime int64) SkillSlot {
	switch {
	case self.Super.NextCastTime <= serverTime:
		return SkillSuper
	case self.Skill1.NextCastTime <= serverTime:
		return SkillSlot1
	case self.Skill2.NextCastTime <= serverTime:
		return SkillSlot2
	default:
		return ""
	}
}

// evadeAttack は間もなく着弾する範囲攻撃の外側へ向かう方向を返します。
func evadeAttack(pos Vec2, state *GameStateMessage) (Vec2, bool) {
	for _, a := range state.ActiveAttacks {
		if a.DamageTime-state.ServerTime > botDangerLead {
			continue
		}
		center := Vec2{X: a.X, Y: a.Y}
		away := pos.Sub(center)
		if away.Len() >= a.Radius+PlayerRadius {
			continue
		}
		if away.IsZero() {
			return Vec2{X: 1}, true
		}
		return away.Normalize(), true
	}
	return Vec2{}, false
}

// addNoise は移動方向に ±30度 のランダムノイズを加えます。
func addNoise(dir Vec2) Vec2 {
	noise := (rand.Float64()*2 - 1) * botNoiseAngle
	cos := math.Cos(noise)
	sin := math.Sin(noise)
	return Vec2{
		X: dir.X*cos - dir.Y*sin,
		Y: dir.X*sin + dir.Y*cos,
	}
}

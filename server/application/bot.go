package application

// BotAction はボットの1tick分の行動を表します。
type BotAction struct {
	MoveDirection Vec2
	Skill         SkillSlot
}

// BotController はボットの意思決定インターフェースです。
// 入力はクライアントが受け取るスナップショットだけで、サーバー内部状態には触れません。
type BotController interface {
	Decide(self *GamePlayerView, state *GameStateMessage) BotAction
}

package domain

import "context"

// Application はRoomに注入されるゲームロジックです。
// 全メソッドはRoomの単一goroutineから呼ばれ、ブロックしてはいけません。
type Application interface {
	Join(ctx context.Context, sessionID SessionID)
	Leave(ctx context.Context, sessionID SessionID)
	HandleMessage(ctx context.Context, sessionID SessionID, data []byte) error
	Tick(ctx context.Context)
}

// Sender はアプリケーションからクライアントへの送信口です。送信は投げっぱなしです。
type Sender interface {
	Broadcast(ctx context.Context, data []byte)
	SendTo(ctx context.Context, sessionID SessionID, data []byte)
}

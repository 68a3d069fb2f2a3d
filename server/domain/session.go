package domain

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// SessionID は1接続に割り当てられるプレイヤー識別子です。
type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

func (id SessionID) String() string { return string(id) }

func (id SessionID) IsEmpty() bool { return id == "" }

// Short は表示名に使う先頭4文字を返します。
func (id SessionID) Short() string {
	if len(id) < 4 {
		return string(id)
	}
	return string(id[:4])
}

// Session は1接続の論理的な接続状態を表す構造体です。
type Session struct {
	id SessionID

	// activity
	lastRead atomic.Int64
	lastPong atomic.Int64

	// lifecycle
	closed atomic.Bool
}

func NewSession() *Session {
	s := &Session{
		id: NewSessionID(),
	}
	now := time.Now().UnixNano()
	s.lastRead.Store(now)
	s.lastPong.Store(now)
	return s
}

func (s *Session) ID() SessionID { return s.id }

func (s *Session) TouchRead() {
	s.lastRead.Store(time.Now().UnixNano())
}

func (s *Session) TouchPong() {
	s.lastPong.Store(time.Now().UnixNano())
}

// Close はセッションを閉じます。既に閉じていた場合はfalseを返します。
func (s *Session) Close() bool {
	return s.closed.CompareAndSwap(false, true)
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// IsPongIdle は最後のpong(またはpongの代わりになる受信)からtimeout以上経過したかを返します。
func (s *Session) IsPongIdle(timeout time.Duration) bool {
	if timeout <= 0 {
		return false
	}
	last := max(s.lastPong.Load(), s.lastRead.Load())
	return time.Since(time.Unix(0, last)) > timeout
}

package domain

import "time"

// Scheduler はRoomのtickを駆動する停止可能なタイマーです。
// Roomのgoroutineからのみ操作される前提でロックを持ちません。
type Scheduler interface {
	Start()
	Stop()
	// C は停止中nilを返すため、selectでは永久にブロックします。
	C() <-chan time.Time
	Running() bool
	Interval() time.Duration
}

type TickScheduler struct {
	interval time.Duration
	ticker   *time.Ticker
}

var _ Scheduler = (*TickScheduler)(nil)

func NewTickScheduler(interval time.Duration) *TickScheduler {
	if interval <= 0 {
		interval = time.Second / 60
	}
	return &TickScheduler{interval: interval}
}

func (s *TickScheduler) Start() {
	if s.ticker != nil {
		return
	}
	s.ticker = time.NewTicker(s.interval)
}

func (s *TickScheduler) Stop() {
	if s.ticker == nil {
		return
	}
	s.ticker.Stop()
	s.ticker = nil
}

func (s *TickScheduler) C() <-chan time.Time {
	if s.ticker == nil {
		return nil
	}
	return s.ticker.C
}

func (s *TickScheduler) Running() bool { return s.ticker != nil }

func (s *TickScheduler) Interval() time.Duration { return s.interval }

package application

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"bossraid/server/domain"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// fakeScheduler は手動でTickを呼ぶテスト用のスケジューラです。
type fakeScheduler struct {
	running bool
	starts  int
	stops   int
}

func (s *fakeScheduler) Start() {
	if !s.running {
		s.starts++
	}
	s.running = true
}

func (s *fakeScheduler) Stop() {
	if s.running {
		s.stops++
	}
	s.running = false
}

func (s *fakeScheduler) C() <-chan time.Time     { return nil }
func (s *fakeScheduler) Running() bool           { return s.running }
func (s *fakeScheduler) Interval() time.Duration { return time.Second / 60 }

type sentMessage struct {
	to   domain.SessionID // 空ならブロードキャスト
	data []byte
}

type recordingSender struct {
	sent []sentMessage
}

func (s *recordingSender) Broadcast(_ context.Context, data []byte) {
	s.sent = append(s.sent, sentMessage{data: data})
}

func (s *recordingSender) SendTo(_ context.Context, id domain.SessionID, data []byte) {
	s.sent = append(s.sent, sentMessage{to: id, data: data})
}

func (s *recordingSender) reset() { s.sent = nil }

// types は送信されたメッセージのtypeを順に返します。
func (s *recordingSender) types(t *testing.T) []MessageType {
	t.Helper()
	out := make([]MessageType, 0, len(s.sent))
	for _, m := range s.sent {
		var env struct {
			Type MessageType `json:"type"`
		}
		if err := json.Unmarshal(m.data, &env); err != nil {
			t.Fatalf("sent invalid json: %v", err)
		}
		out = append(out, env.Type)
	}
	return out
}

// last は指定typeの最後のメッセージをvにデコードします。
func (s *recordingSender) last(t *testing.T, typ MessageType, v any) bool {
	t.Helper()
	types := s.types(t)
	for i := len(s.sent) - 1; i >= 0; i-- {
		if types[i] != typ {
			continue
		}
		if err := json.Unmarshal(s.sent[i].data, v); err != nil {
			t.Fatalf("decode %s: %v", typ, err)
		}
		return true
	}
	return false
}

func count(types []MessageType, typ MessageType) int {
	n := 0
	for _, t := range types {
		if t == typ {
			n++
		}
	}
	return n
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

// runningState はジョブ選択済みのプレイヤーでRUNNING状態のRoomStateを作ります。
func runningState(t *testing.T, jobs ...JobKey) (*RoomState, []*Player) {
	t.Helper()
	s := NewRoomState()
	players := make([]*Player, 0, len(jobs))
	for _, job := range jobs {
		p := s.AddPlayer(domain.NewSessionID())
		p.Job = job
		players = append(players, p)
	}
	m := NewPhaseMachine(&fakeScheduler{}, DefaultRules())
	if err := m.StartGame(s, s.Roster.Host(), epoch.Add(-DefaultRules().Countdown)); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	m.Advance(s, epoch)
	if s.Phase != PhaseRunning {
		t.Fatalf("phase = %s, want RUNNING", s.Phase)
	}
	return s, players
}

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

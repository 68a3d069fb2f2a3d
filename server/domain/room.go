package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrNoApplication = errors.New("room has no application")

// DefaultReapInterval はsession topicの購読が消えたセッションを探す間隔です。
const DefaultReapInterval = time.Second

// Room は1ルームの単一goroutineループです。
// join/leave/受信メッセージ/tickを到着順に1つずつ最後まで処理するため、
// Applicationの状態にロックは不要です。
type Room struct {
	ID       RoomID
	sessions map[SessionID]struct{}

	pubsub      PubSub
	application Application
	scheduler   Scheduler

	inbox        <-chan Message
	reapInterval time.Duration
}

var _ Sender = (*Room)(nil)

// NewRoom はRoomを作成し、その場でroom topicを購読します。
// Runより先に届いたjoinを取りこぼさないためです。
func NewRoom(id RoomID, pubsub PubSub, scheduler Scheduler) *Room {
	return &Room{
		ID:           id,
		sessions:     make(map[SessionID]struct{}),
		pubsub:       pubsub,
		scheduler:    scheduler,
		inbox:        pubsub.Subscribe(RoomTopic(id)),
		reapInterval: DefaultReapInterval,
	}
}

// SetReapInterval はRunの前に呼びます。0以下は無視します。
func (r *Room) SetReapInterval(d time.Duration) {
	if d > 0 {
		r.reapInterval = d
	}
}

// SetApplication はRunの前に一度だけ呼びます。
func (r *Room) SetApplication(application Application) {
	r.application = application
}

func (r *Room) Broadcast(ctx context.Context, data []byte) {
	for sessionID := range r.sessions {
		r.SendTo(ctx, sessionID, data)
	}
}

func (r *Room) SendTo(ctx context.Context, sessionID SessionID, data []byte) {
	if ok := r.pubsub.TryPublish(SessionTopic(sessionID), Message{SessionID: sessionID, Data: data}); !ok {
		slog.WarnContext(ctx, "room send dropped, session queue full", "roomID", r.ID, "sessionID", sessionID)
	}
}

// SessionCount は現在Roomに参加しているセッション数を返します。Roomのgoroutine内でのみ有効です。
func (r *Room) SessionCount() int {
	return len(r.sessions)
}

func (r *Room) Run(ctx context.Context) error {
	if r.application == nil {
		return ErrNoApplication
	}
	defer r.pubsub.Unsubscribe(RoomTopic(r.ID), r.inbox)
	defer r.scheduler.Stop()

	reap := time.NewTicker(r.reapInterval)
	defer reap.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-r.inbox:
			r.handleMessage(ctx, msg)
		case <-r.scheduler.C():
			r.application.Tick(ctx)
		case <-reap.C:
			r.reapDetached(ctx)
		}
	}
}

// reapDetached はsession topicの購読者がいないセッションを退出扱いにします。
// endpointは終了時にleaveを送ってから購読を外すため、leaveを取りこぼした場合だけここで回収されます。
func (r *Room) reapDetached(ctx context.Context) {
	for sessionID := range r.sessions {
		if r.pubsub.HasSubscribers(SessionTopic(sessionID)) {
			continue
		}
		slog.WarnContext(ctx, "session detached without leave", "roomID", r.ID, "sessionID", sessionID)
		delete(r.sessions, sessionID)
		r.application.Leave(ctx, sessionID)
	}
}

func (r *Room) handleMessage(ctx context.Context, msg Message) {
	switch msg.Kind {
	case MessageJoin:
		if _, ok := r.sessions[msg.SessionID]; ok {
			return
		}
		r.sessions[msg.SessionID] = struct{}{}
		r.application.Join(ctx, msg.SessionID)
	case MessageLeave:
		if _, ok := r.sessions[msg.SessionID]; !ok {
			return
		}
		delete(r.sessions, msg.SessionID)
		r.application.Leave(ctx, msg.SessionID)
	case MessageData:
		if _, ok := r.sessions[msg.SessionID]; !ok {
			slog.DebugContext(ctx, "message from session outside room", "roomID", r.ID, "sessionID", msg.SessionID)
			return
		}
		if err := r.application.HandleMessage(ctx, msg.SessionID, msg.Data); err != nil {
			slog.DebugContext(ctx, "room handle message ignored", "sessionID", msg.SessionID, "err", err)
		}
	default:
		slog.WarnContext(ctx, "unknown room message kind", "kind", msg.Kind)
	}
}

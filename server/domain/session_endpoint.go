package domain

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrBackpressure は書き込みチャネルが満杯の場合に返されるエラーです。
	ErrBackpressure = errors.New("write channel is full, apply backpressure")
	// ErrInitializationFailed はセッションエンドポイントの初期化に失敗した場合に返されるエラーです。
	ErrInitializationFailed = errors.New("failed to initialize session endpoint")
)

// EndpointConfig はSessionEndpointの調整値です。
type EndpointConfig struct {
	WriteQueueSize    int
	HeartbeatInterval time.Duration
	HeartbeatTimeout  time.Duration
}

func DefaultEndpointConfig() EndpointConfig {
	return EndpointConfig{
		WriteQueueSize:    256,
		HeartbeatInterval: 10 * time.Second,
		HeartbeatTimeout:  30 * time.Second,
	}
}

// SessionEndpoint は1接続の読み書きとRoomへの参加/離脱を管理します。
type SessionEndpoint struct {
	session     *Session
	connection  *Connection
	pubsub      PubSub
	roomManager RoomManager
	heartbeat   *HeartbeatService

	writeCh chan []byte

	// lifecycle
	closed atomic.Bool
}

func NewSessionEndpoint(session *Session, connection *Connection, pubsub PubSub, roomManager RoomManager, cfg EndpointConfig) (*SessionEndpoint, error) {
	if session == nil || connection == nil || pubsub == nil || roomManager == nil {
		return nil, ErrInitializationFailed
	}
	if cfg.WriteQueueSize <= 0 {
		cfg.WriteQueueSize = DefaultEndpointConfig().WriteQueueSize
	}
	return &SessionEndpoint{
		session:     session,
		connection:  connection,
		pubsub:      pubsub,
		roomManager: roomManager,
		heartbeat:   NewHeartbeatService(cfg.HeartbeatInterval, cfg.HeartbeatTimeout, session, connection),
		writeCh:     make(chan []byte, cfg.WriteQueueSize),
	}, nil
}

// Run は接続が閉じるまでブロックします。
// 開始時にRoomへjoinを、終了時にleaveを送ります。正常切断ではnilを返します。
func (se *SessionEndpoint) Run(ctx context.Context) error {
	sessionTopic := SessionTopic(se.session.ID())
	msgCh := se.pubsub.Subscribe(sessionTopic)
	defer se.pubsub.Unsubscribe(sessionTopic, msgCh)

	roomID, err := se.roomManager.GetRoom(ctx, se.session.ID())
	if err != nil {
		se.close(ClosePolicyViolate, "no room")
		return err
	}
	roomTopic := RoomTopic(roomID)

	if err := se.pubsub.Publish(ctx, roomTopic, Message{SessionID: se.session.ID(), Kind: MessageJoin}); err != nil {
		se.close(CloseGoingAway, "join failed")
		return err
	}
	slog.InfoContext(ctx, "session joined room", "sessionID", se.session.ID(), "roomID", roomID)

	defer func() {
		leaveCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := se.pubsub.Publish(leaveCtx, roomTopic, Message{SessionID: se.session.ID(), Kind: MessageLeave}); err != nil {
			// 購読解除後にRoom側のreapで退出扱いになります
			slog.WarnContext(ctx, "failed to publish leave", "sessionID", se.session.ID(), "err", err)
		}
		slog.InfoContext(ctx, "session left room", "sessionID", se.session.ID(), "roomID", roomID)
	}()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error { return se.readLoop(egCtx, roomTopic) })
	eg.Go(func() error { return se.writeLoop(egCtx) })
	eg.Go(func() error { return se.subscribeLoop(egCtx, msgCh) })
	eg.Go(func() error { return se.heartbeat.Run(egCtx) })

	err = eg.Wait()
	switch {
	case err == nil, errors.Is(err, ErrTransportClosed), errors.Is(err, context.Canceled):
		se.close(CloseNormal, "")
		return nil
	case errors.Is(err, ErrHeartbeatTimeout):
		se.close(CloseGoingAway, "heartbeat timeout")
		return err
	default:
		se.close(CloseGoingAway, "")
		return err
	}
}

// Send はwriteChにデータを積みます。満杯ならErrBackpressureを返し、データは捨てられます。
func (se *SessionEndpoint) Send(data []byte) error {
	select {
	case se.writeCh <- data:
		return nil
	default:
		return ErrBackpressure
	}
}

func (se *SessionEndpoint) readLoop(ctx context.Context, roomTopic Topic) error {
	for {
		data, err := se.connection.Read(ctx)
		if err != nil {
			return err
		}
		se.session.TouchRead()
		msg := Message{SessionID: se.session.ID(), Kind: MessageData, Data: data}
		if err := se.pubsub.Publish(ctx, roomTopic, msg); err != nil {
			return err
		}
	}
}

func (se *SessionEndpoint) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case data := <-se.writeCh:
			if err := se.connection.Write(ctx, data); err != nil {
				return err
			}
		}
	}
}

// subscribeLoop はpubsubからのメッセージをwriteChに転送します。
func (se *SessionEndpoint) subscribeLoop(ctx context.Context, msgCh <-chan Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg := <-msgCh:
			if err := se.Send(msg.Data); err != nil {
				slog.WarnContext(ctx, "subscribeLoop: writeCh full, message dropped", "sessionID", se.session.ID())
			}
		}
	}
}

func (se *SessionEndpoint) close(code int, reason string) {
	if !se.closed.CompareAndSwap(false, true) {
		return
	}
	se.session.Close()
	se.connection.Close(code, reason)
}

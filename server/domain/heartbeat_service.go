package domain

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

var ErrHeartbeatTimeout = errors.New("heartbeat timeout")

// HeartbeatService は定期的にpingを送り、応答が途絶えたセッションを検出する死活監視サービスです。
type HeartbeatService struct {
	pingInterval time.Duration
	timeout      time.Duration
	session      *Session
	connection   *Connection
}

// NewHeartbeatService は新しいHeartbeatServiceを生成します。
func NewHeartbeatService(pingInterval, timeout time.Duration, session *Session, connection *Connection) *HeartbeatService {
	return &HeartbeatService{
		pingInterval: pingInterval,
		timeout:      timeout,
		session:      session,
		connection:   connection,
	}
}

// Run はpingInterval間隔でpingを送信します。
// timeoutを超えて応答がなければErrHeartbeatTimeoutを返し、ctxがキャンセルされるとnilで終了します。
func (h *HeartbeatService) Run(ctx context.Context) error {
	if h.pingInterval <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if h.session.IsPongIdle(h.timeout) {
				return ErrHeartbeatTimeout
			}
			pingCtx, cancel := context.WithTimeout(ctx, h.pingInterval)
			err := h.connection.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.DebugContext(ctx, "heartbeat: ping failed", "sessionID", h.session.ID(), "err", err)
				continue
			}
			h.session.TouchPong()
		}
	}
}

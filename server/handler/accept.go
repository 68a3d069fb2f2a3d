package handler

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	adapterwebsocket "bossraid/server/adapter/websocket"
	"bossraid/server/domain"
)

type AcceptHandler struct {
	pubsub         domain.PubSub
	roomManager    domain.RoomManager
	endpointConfig domain.EndpointConfig
	insecureOrigin bool
}

func NewAcceptHandler(pubsub domain.PubSub, roomManager domain.RoomManager, endpointConfig domain.EndpointConfig, insecureOrigin bool) *AcceptHandler {
	return &AcceptHandler{
		pubsub:         pubsub,
		roomManager:    roomManager,
		endpointConfig: endpointConfig,
		insecureOrigin: insecureOrigin,
	}
}

func (h *AcceptHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: h.insecureOrigin, // 開発用: Origin チェックをスキップ
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to accept", "err", err)
		return
	}

	session := domain.NewSession()
	transport := adapterwebsocket.NewTransportFrom(conn)
	connection := domain.NewConnection(session.ID(), transport)
	endpoint, err := domain.NewSessionEndpoint(session, connection, h.pubsub, h.roomManager, h.endpointConfig)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create session endpoint", "err", err)
		connection.Close(domain.CloseGoingAway, "initialization failed")
		return
	}
	slog.DebugContext(ctx, "accepted new connection", "sessionID", session.ID())
	if err := endpoint.Run(ctx); err != nil {
		slog.WarnContext(ctx, "session endpoint stopped", "sessionID", session.ID(), "err", err)
		return
	}
	slog.DebugContext(ctx, "session closed", "sessionID", session.ID())
}

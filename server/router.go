package server

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"bossraid/server/domain"
	"bossraid/server/handler"
)

// Route はWebSocketの入口とヘルスチェックを登録します。
func Route(pubsub domain.PubSub, roomManager domain.RoomManager, endpointConfig domain.EndpointConfig, insecureOrigin bool) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", handler.NewAcceptHandler(pubsub, roomManager, endpointConfig, insecureOrigin))
	mux.Handle("GET /healthz", handler.NewHealthHandler())
	return otelhttp.NewHandler(mux, "bossraid")
}

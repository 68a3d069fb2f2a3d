package adapterwebsocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/coder/websocket"

	"bossraid/server/domain"
)

// readLimit は1メッセージの最大サイズです。クライアントからは小さなJSONしか届きません。
const readLimit = 4096

type wsTransport struct {
	conn *websocket.Conn
}

var _ domain.Transport = (*wsTransport)(nil)

func NewTransportFrom(conn *websocket.Conn) domain.Transport {
	conn.SetReadLimit(readLimit)
	return &wsTransport{conn: conn}
}

func (t *wsTransport) Read(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return data, nil
}

func (t *wsTransport) Write(ctx context.Context, data []byte) error {
	if err := t.conn.Write(ctx, websocket.MessageText, data); err != nil {
		return mapError(err)
	}
	return nil
}

// Ping はpongを受け取るまでブロックします。並行してReadが動いている必要があります。
func (t *wsTransport) Ping(ctx context.Context) error {
	return t.conn.Ping(ctx)
}

func (t *wsTransport) Close(code int, reason string) error {
	err := t.conn.Close(websocket.StatusCode(code), reason)
	if err != nil && errors.Is(mapError(err), domain.ErrTransportClosed) {
		return nil
	}
	return err
}

// mapError は正常な切断をdomain.ErrTransportClosedに変換します。
func mapError(err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway, websocket.StatusNoStatusRcvd:
		return fmt.Errorf("%w: %w", domain.ErrTransportClosed, err)
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("%w: %w", domain.ErrTransportClosed, err)
	}
	return err
}

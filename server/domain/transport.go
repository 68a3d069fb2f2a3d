package domain

import (
	"context"
	"errors"
)

//go:generate go tool mockgen -destination=./mocks/transport_mock.go -package=mocks . Transport

// ErrTransportClosed は相手側が正常に接続を閉じた場合にTransportが返すエラーです。
var ErrTransportClosed = errors.New("transport closed")

// Transport は Connection（物理接続）が依存するI/O境界です。
type Transport interface {
	Read(ctx context.Context) (data []byte, err error)
	Write(ctx context.Context, data []byte) error
	Ping(ctx context.Context) error
	Close(code int, reason string) error
}

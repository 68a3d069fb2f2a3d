package domain

// MessageKind はRoomに届くメッセージの種別です。
type MessageKind uint8

const (
	MessageData MessageKind = iota
	MessageJoin
	MessageLeave
)

func (k MessageKind) String() string {
	switch k {
	case MessageData:
		return "data"
	case MessageJoin:
		return "join"
	case MessageLeave:
		return "leave"
	default:
		return "unknown"
	}
}

// Message はpubsubを流れる1メッセージです。
type Message struct {
	SessionID SessionID
	Kind      MessageKind
	Data      []byte
}

type Topic string

func SessionTopic(id SessionID) Topic {
	return Topic("session:" + id.String())
}

func RoomTopic(id RoomID) Topic {
	return Topic("room:" + id.String())
}

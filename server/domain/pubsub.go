package domain

import (
	"context"
	"sync"
)

// PubSub はトピック単位でメッセージを配送します。
// Subscribeで得たチャネルは有界で、TryPublishは満杯ならメッセージを捨てます。
type PubSub interface {
	Subscribe(topic Topic) <-chan Message
	Unsubscribe(topic Topic, ch <-chan Message)
	// Publish は全購読者に届くまで(またはctxが終わるまで)ブロックします。
	Publish(ctx context.Context, topic Topic, msg Message) error
	// TryPublish はブロックせずに配送し、1件でも捨てた場合はfalseを返します。
	TryPublish(topic Topic, msg Message) bool
	// HasSubscribers はtopicに購読者が1つ以上いるかを返します。
	HasSubscribers(topic Topic) bool
}

type SimplePubSub struct {
	mu         sync.RWMutex
	subs       map[Topic][]chan Message
	bufferSize int
}

var _ PubSub = (*SimplePubSub)(nil)

func NewSimplePubSub(bufferSize int) *SimplePubSub {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &SimplePubSub{
		subs:       make(map[Topic][]chan Message),
		bufferSize: bufferSize,
	}
}

func (p *SimplePubSub) Subscribe(topic Topic) <-chan Message {
	ch := make(chan Message, p.bufferSize)
	p.mu.Lock()
	p.subs[topic] = append(p.subs[topic], ch)
	p.mu.Unlock()
	return ch
}

// Unsubscribe は購読を解除します。送信中のpublisherと競合しないようチャネルはcloseしません。
func (p *SimplePubSub) Unsubscribe(topic Topic, ch <-chan Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	subs := p.subs[topic]
	for i, c := range subs {
		if c == ch {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(p.subs, topic)
		return
	}
	p.subs[topic] = subs
}

func (p *SimplePubSub) Publish(ctx context.Context, topic Topic, msg Message) error {
	for _, ch := range p.subscribers(topic) {
		select {
		case ch <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *SimplePubSub) TryPublish(topic Topic, msg Message) bool {
	delivered := true
	for _, ch := range p.subscribers(topic) {
		select {
		case ch <- msg:
		default:
			delivered = false
		}
	}
	return delivered
}

func (p *SimplePubSub) HasSubscribers(topic Topic) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subs[topic]) > 0
}

func (p *SimplePubSub) subscribers(topic Topic) []chan Message {
	p.mu.RLock()
	defer p.mu.RUnlock()
	subs := p.subs[topic]
	out := make([]chan Message, len(subs))
	copy(out, subs)
	return out
}

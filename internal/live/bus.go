package live

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

// DefaultSubject - тема NATS для уведомлений об изменении постов.
const DefaultSubject = "xclone.posts.changed"

// Bus доставляет уведомления "коллекция постов изменилась".
type Bus interface {
	Publish(ctx context.Context) error
	// Subscribe регистрирует обработчик; возвращает функцию отписки.
	Subscribe(fn func()) (func(), error)
}

// LocalBus - шина внутри одного процесса. Обработчики вызываются синхронно.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string]func()
}

func NewLocalBus() *LocalBus {
	return &LocalBus{handlers: make(map[string]func())}
}

func (b *LocalBus) Publish(ctx context.Context) error {
	b.mu.RLock()
	handlers := make([]func(), 0, len(b.handlers))
	for _, fn := range b.handlers {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn()
	}
	return nil
}

func (b *LocalBus) Subscribe(fn func()) (func(), error) {
	id := uuid.NewString()
	b.mu.Lock()
	b.handlers[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers, id)
		b.mu.Unlock()
	}, nil
}

// NATSBus раздает уведомления между несколькими экземплярами сервиса.
type NATSBus struct {
	conn    *nats.Conn
	subject string
}

// DialNATS подключается к NATS по url.
func DialNATS(url, subject string) (*NATSBus, error) {
	conn, err := nats.Connect(url, nats.Name("x-clone-service"))
	if err != nil {
		return nil, fmt.Errorf("cannot connect to %v: %w", url, err)
	}
	return NewNATSBus(conn, subject), nil
}

func NewNATSBus(conn *nats.Conn, subject string) *NATSBus {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATSBus{conn: conn, subject: subject}
}

func (b *NATSBus) Publish(ctx context.Context) error {
	if err := b.conn.Publish(b.subject, []byte("changed")); err != nil {
		return fmt.Errorf("failed to send message to %v: %w", b.subject, err)
	}
	return nil
}

func (b *NATSBus) Subscribe(fn func()) (func(), error) {
	sub, err := b.conn.Subscribe(b.subject, func(*nats.Msg) { fn() })
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %v: %w", b.subject, err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// Close закрывает соединение с NATS.
func (b *NATSBus) Close() { b.conn.Close() }

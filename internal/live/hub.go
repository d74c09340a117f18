package live

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/UkralStul/x-clone-service/internal/domain"
	"github.com/UkralStul/x-clone-service/internal/metrics"
	"github.com/UkralStul/x-clone-service/internal/storage"
	"github.com/google/uuid"
)

// Hub держит живые подписки на выборки постов. На каждое уведомление шины
// все подписки заново выполняют свой запрос и получают полный снимок.
type Hub struct {
	store  storage.Storage
	logger *slog.Logger

	mu   sync.Mutex
	subs map[string]*Subscription

	gen         atomic.Uint64
	kick        chan struct{}
	done        chan struct{}
	unsubscribe func()
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// NewHub подписывается на шину и запускает цикл обновления снимков.
func NewHub(store storage.Storage, bus Bus, logger *slog.Logger) (*Hub, error) {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		store:  store,
		logger: logger,
		subs:   make(map[string]*Subscription),
		kick:   make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	unsubscribe, err := bus.Subscribe(h.notify)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe hub to bus: %w", err)
	}
	h.unsubscribe = unsubscribe

	h.wg.Add(1)
	go h.run()
	return h, nil
}

// notify не блокирует: пачка изменений схлопывается в одно обновление.
func (h *Hub) notify() {
	select {
	case h.kick <- struct{}{}:
	default:
	}
}

func (h *Hub) run() {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case <-h.kick:
			h.refresh(context.Background())
		}
	}
}

func (h *Hub) refresh(ctx context.Context) {
	h.mu.Lock()
	subs := make([]*Subscription, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		gen := h.gen.Add(1)
		posts, err := h.store.QueryPosts(ctx, s.query)
		if err != nil {
			h.logger.Error("refresh live subscription", "subscription", s.ID, "err", err)
			continue
		}
		s.deliver(gen, posts)
	}
}

// Subscribe открывает подписку. Текущий снимок доставляется сразу.
// Подписка закрывается через Cancel или при отмене ctx.
func (h *Hub) Subscribe(ctx context.Context, q storage.PostQuery) (*Subscription, error) {
	q.Limit = storage.NormalizeLimit(q.Limit)
	s := &Subscription{
		ID:    uuid.NewString(),
		query: q,
		hub:   h,
		ch:    make(chan []*domain.Post, 1),
		done:  make(chan struct{}),
	}

	h.mu.Lock()
	select {
	case <-h.done:
		h.mu.Unlock()
		return nil, fmt.Errorf("live hub is closed")
	default:
	}
	h.subs[s.ID] = s
	h.mu.Unlock()
	metrics.SubscriptionOpened()

	gen := h.gen.Add(1)
	posts, err := h.store.QueryPosts(ctx, q)
	if err != nil {
		s.Cancel()
		return nil, fmt.Errorf("failed to query initial snapshot: %w", err)
	}
	s.deliver(gen, posts)

	go func() {
		select {
		case <-ctx.Done():
			s.Cancel()
		case <-s.done:
		}
	}()
	return s, nil
}

// Close отменяет все подписки и останавливает цикл обновления.
func (h *Hub) Close() {
	h.closeOnce.Do(func() {
		h.unsubscribe()

		h.mu.Lock()
		close(h.done)
		subs := make([]*Subscription, 0, len(h.subs))
		for _, s := range h.subs {
			subs = append(subs, s)
		}
		h.mu.Unlock()

		for _, s := range subs {
			s.Cancel()
		}
		h.wg.Wait()
	})
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Subscription - поток полных снимков выборки. В буфере хранится только
// последний непрочитанный снимок.
type Subscription struct {
	ID    string
	query storage.PostQuery
	hub   *Hub

	mu     sync.Mutex
	closed bool
	gen    uint64
	ch     chan []*domain.Post
	done   chan struct{}
}

// C возвращает канал снимков. Закрывается после Cancel.
func (s *Subscription) C() <-chan []*domain.Post { return s.ch }

// Done закрывается, когда подписка отменена.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Cancel синхронно закрывает подписку: после возврата ни один снимок,
// включая уже лежащий в буфере, доставлен не будет.
func (s *Subscription) Cancel() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	select {
	case <-s.ch:
	default:
	}
	close(s.ch)
	close(s.done)
	s.mu.Unlock()

	s.hub.remove(s.ID)
	metrics.SubscriptionClosed()
}

// deliver заменяет непрочитанный снимок новым. Снимки от более ранних
// запросов отбрасываются.
func (s *Subscription) deliver(gen uint64, posts []*domain.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen < s.gen {
		return
	}
	s.gen = gen
	select {
	case <-s.ch:
	default:
	}
	s.ch <- posts
	metrics.SnapshotDelivered()
}
